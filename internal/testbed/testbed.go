package testbed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bondar-aleksandr/netinspect/internal/device"
)

// Profile is the ephemeral, backend-specific materialization of a device
// descriptor. It is built fresh for every request and never persisted.
type Profile struct {
	Family   device.VendorFamily
	Platform string // the descriptor's platform identifier, unchanged
	Driver   string // backend driver name resolved from the platform

	IP       string
	Port     int
	Username string
	Password string
	// EnableSecret is nil when the descriptor carries no secret. An empty
	// string is never stored here.
	EnableSecret *string

	ConnectTimeout time.Duration

	// Legacy SSH algorithm overrides, needed to interoperate with older
	// firmware. Applied on the generic backend (kex + ciphers; that is all
	// its API exposes) and on the direct-SSH driver (all three lists).
	LegacyKeyExchanges []string
	LegacyCiphers      []string
	LegacyHostKeys     []string

	// Parsing enables structured-output parsing for this platform.
	Parsing bool
	// Verbose echoes session transcripts into the logger.
	Verbose bool
}

// Fixed legacy negotiation overrides. Older device firmware offers only
// these.
var (
	legacyKeyExchanges = []string{
		"diffie-hellman-group-exchange-sha1",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
	}
	legacyCiphers = []string{
		"aes128-cbc",
		"aes192-cbc",
		"aes256-cbc",
		"3des-cbc",
	}
	legacyHostKeys = []string{
		"ssh-rsa",
		"ssh-dss",
	}
)

const (
	defaultPort           = 22
	huaweiConnectTimeout  = 30 * time.Second
	defaultGenericTimeout = 30 * time.Second
)

// genericDrivers maps a platform marker to the CLI automation driver name
// and its structured-parsing capability. Lookup order matters: more specific
// markers come first.
var genericDrivers = []struct {
	marker  string
	driver  string
	parsing bool
}{
	{"iosxr", "iosxr", true},
	{"iosxe", "iosxe", true},
	{"nxos", "nxos", true},
	{"asa", "asa", true},
	{"junos", "junos", false},
	{"juniper", "junos", false},
	{"ios", "ios", true},
}

// Builder turns device descriptors into backend connection profiles.
type Builder struct {
	requireFamily  device.VendorFamily
	constrained    bool
	genericTimeout time.Duration
	verbose        bool
}

type Option func(*Builder)

// WithRequireFamily rejects descriptors outside the given vendor family
// before any network I/O happens.
func WithRequireFamily(f device.VendorFamily) Option {
	return func(b *Builder) {
		b.requireFamily = f
		b.constrained = true
	}
}

// WithGenericTimeout overrides the generic backend's dial timeout. The
// Huawei backend keeps its fixed 30s timeout regardless.
func WithGenericTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.genericTimeout = d
		}
	}
}

// WithVerbose turns on session transcript echo for built profiles.
func WithVerbose(v bool) Option {
	return func(b *Builder) { b.verbose = v }
}

func New(opts ...Option) *Builder {
	b := &Builder{genericTimeout: defaultGenericTimeout}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildProfile validates the descriptor and resolves the backend-specific
// connection parameters.
func (b *Builder) BuildProfile(d *device.Descriptor) (*Profile, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	family := d.Family()
	if b.constrained && family != b.requireFamily {
		return nil, &device.ValidationError{
			Reason: fmt.Sprintf("platform %q is not in the %s family", d.Platform, b.requireFamily),
		}
	}

	p := &Profile{
		Family:   family,
		Platform: d.Platform,
		IP:       d.IP,
		Port:     d.Port,
		Username: d.Username,
		Password: d.Password,
		Verbose:  b.verbose,
	}
	if p.Port == 0 {
		p.Port = defaultPort
	}
	if d.Secret != "" {
		secret := d.Secret
		p.EnableSecret = &secret
	}

	// both families need the downgrades: old IOS/JunOS and old VRP firmware
	// alike offer nothing newer
	p.LegacyKeyExchanges = legacyKeyExchanges
	p.LegacyCiphers = legacyCiphers
	p.LegacyHostKeys = legacyHostKeys

	switch family {
	case device.FamilyHuawei:
		p.Driver = huaweiDriverName(d.Platform)
		p.ConnectTimeout = huaweiConnectTimeout
	default:
		p.Driver, p.Parsing = genericDriverName(d.Platform)
		p.ConnectTimeout = b.genericTimeout
	}
	return p, nil
}

// huaweiDriverName picks the VRP generation: platforms signalling the
// variant-8 control plane get the vrpv8 driver, everything else the
// baseline vrp driver.
func huaweiDriverName(platform string) string {
	if strings.Contains(strings.ToLower(platform), "vrpv8") {
		return "vrpv8"
	}
	return "vrp"
}

func genericDriverName(platform string) (string, bool) {
	p := strings.ToLower(platform)
	for _, entry := range genericDrivers {
		if strings.Contains(p, entry.marker) {
			return entry.driver, entry.parsing
		}
	}
	// unknown dialects ride on the plain ios driver without parsing
	return "ios", false
}
