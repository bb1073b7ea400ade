package testbed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondar-aleksandr/netinspect/internal/device"
)

func validDescriptor(platform string) *device.Descriptor {
	return &device.Descriptor{
		Platform: platform,
		IP:       "10.0.0.1",
		Username: "admin",
		Password: "x",
	}
}

func TestBuildProfileDefaultPort(t *testing.T) {
	p, err := New().BuildProfile(validDescriptor("ios"))
	require.NoError(t, err)
	assert.Equal(t, 22, p.Port)
}

func TestBuildProfileExplicitPort(t *testing.T) {
	d := validDescriptor("ios")
	d.Port = 2222
	p, err := New().BuildProfile(d)
	require.NoError(t, err)
	assert.Equal(t, 2222, p.Port)
}

func TestBuildProfileSecretPresence(t *testing.T) {
	d := validDescriptor("ios")
	d.Secret = "enable-pass"
	p, err := New().BuildProfile(d)
	require.NoError(t, err)
	require.NotNil(t, p.EnableSecret)
	assert.Equal(t, "enable-pass", *p.EnableSecret)
}

func TestBuildProfileSecretAbsent(t *testing.T) {
	p, err := New().BuildProfile(validDescriptor("ios"))
	require.NoError(t, err)
	// absent means nil, never an empty-string credential
	assert.Nil(t, p.EnableSecret)
}

func TestBuildProfileGenericLegacyAlgorithms(t *testing.T) {
	p, err := New().BuildProfile(validDescriptor("junos"))
	require.NoError(t, err)
	assert.Equal(t, device.FamilyGeneric, p.Family)
	assert.NotEmpty(t, p.LegacyKeyExchanges)
	assert.NotEmpty(t, p.LegacyCiphers)
	assert.NotEmpty(t, p.LegacyHostKeys)
}

// old VRP firmware needs the same downgrades as old IOS
func TestBuildProfileHuaweiLegacyAlgorithms(t *testing.T) {
	p, err := New().BuildProfile(validDescriptor("vrpv8"))
	require.NoError(t, err)
	assert.Equal(t, device.FamilyHuawei, p.Family)
	assert.NotEmpty(t, p.LegacyKeyExchanges)
	assert.NotEmpty(t, p.LegacyCiphers)
	assert.NotEmpty(t, p.LegacyHostKeys)
}

func TestBuildProfileHuaweiDriverVariant(t *testing.T) {
	tests := []struct {
		platform string
		driver   string
	}{
		{"vrpv8", "vrpv8"},
		{"huawei_vrpv8", "vrpv8"},
		{"vrp", "vrp"},
		{"huawei", "vrp"},
	}
	for _, tt := range tests {
		p, err := New().BuildProfile(validDescriptor(tt.platform))
		require.NoError(t, err)
		assert.Equal(t, device.FamilyHuawei, p.Family)
		assert.Equal(t, tt.driver, p.Driver, "platform %q", tt.platform)
		assert.Equal(t, 30*time.Second, p.ConnectTimeout)
	}
}

func TestBuildProfileGenericDriverResolution(t *testing.T) {
	tests := []struct {
		platform string
		driver   string
		parsing  bool
	}{
		{"ios", "ios", true},
		{"cisco_iosxe", "iosxe", true},
		{"nxos", "nxos", true},
		{"asa", "asa", true},
		{"junos", "junos", false},
		{"juniper", "junos", false},
		{"something_else", "ios", false},
	}
	for _, tt := range tests {
		p, err := New().BuildProfile(validDescriptor(tt.platform))
		require.NoError(t, err)
		assert.Equal(t, tt.driver, p.Driver, "platform %q", tt.platform)
		assert.Equal(t, tt.parsing, p.Parsing, "platform %q", tt.platform)
	}
}

func TestBuildProfileFamilyConstraint(t *testing.T) {
	b := New(WithRequireFamily(device.FamilyHuawei))

	// huawei entry point receiving a non-huawei platform fails before any I/O
	_, err := b.BuildProfile(validDescriptor("ios"))
	require.Error(t, err)
	assert.IsType(t, &device.ValidationError{}, err)

	p, err := b.BuildProfile(validDescriptor("vrpv8"))
	require.NoError(t, err)
	assert.Equal(t, device.FamilyHuawei, p.Family)
}

func TestBuildProfileInvalidDescriptor(t *testing.T) {
	d := validDescriptor("ios")
	d.Password = ""
	_, err := New().BuildProfile(d)
	require.Error(t, err)
	assert.IsType(t, &device.ValidationError{}, err)
}

func TestBuildProfileGenericTimeoutOption(t *testing.T) {
	b := New(WithGenericTimeout(10 * time.Second))
	p, err := b.BuildProfile(validDescriptor("ios"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, p.ConnectTimeout)
}
