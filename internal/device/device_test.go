package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		platform string
		want     VendorFamily
	}{
		{"ios", FamilyGeneric},
		{"iosxe", FamilyGeneric},
		{"nxos", FamilyGeneric},
		{"asa", FamilyGeneric},
		{"junos", FamilyGeneric},
		{"huawei", FamilyHuawei},
		{"Huawei_S5700", FamilyHuawei},
		{"vrp", FamilyHuawei},
		{"vrpv8", FamilyHuawei},
		{"VRPV8", FamilyHuawei},
		{"", FamilyGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.platform), "platform %q", tt.platform)
	}
}

func TestClassifyCaseInsensitiveDeterministic(t *testing.T) {
	assert.Equal(t, Classify("vrpv8"), Classify("VRPV8"))
	assert.Equal(t, Classify("ios"), Classify("IOS"))
}

func TestDescriptorValidate(t *testing.T) {
	valid := Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "admin", Password: "x"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		d    Descriptor
	}{
		{"missing platform", Descriptor{IP: "10.0.0.1", Username: "a", Password: "b"}},
		{"missing ip", Descriptor{Platform: "ios", Username: "a", Password: "b"}},
		{"missing username", Descriptor{Platform: "ios", IP: "10.0.0.1", Password: "b"}},
		{"missing password", Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "a"}},
		{"port out of range", Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "a", Password: "b", Port: 70000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			assert.Error(t, err)
			assert.IsType(t, &ValidationError{}, err)
		})
	}
}

func TestDescriptorValidateAllowsUnsetPort(t *testing.T) {
	d := Descriptor{Platform: "ios", IP: "10.0.0.1", Username: "a", Password: "b", Port: 0}
	assert.NoError(t, d.Validate())
}
