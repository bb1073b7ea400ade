package device

import (
	"fmt"
	"strings"
)

// VendorFamily groups operating systems that share one CLI automation
// backend and command semantics.
type VendorFamily string

const (
	// FamilyGeneric covers platforms driven through the multi-platform
	// CLI automation backend (Cisco dialects, Juniper).
	FamilyGeneric VendorFamily = "generic"
	// FamilyHuawei covers VRP-based platforms driven over direct SSH.
	FamilyHuawei VendorFamily = "huawei"
)

// huaweiMarkers are matched case-insensitively against the platform
// identifier. Any hit maps the device to FamilyHuawei.
var huaweiMarkers = []string{"huawei", "vrpv8", "vrp"}

// Classify resolves the vendor family for a platform identifier.
// Matching is a case-insensitive substring check; everything that does not
// look like a Huawei platform falls back to the generic backend.
func Classify(platform string) VendorFamily {
	p := strings.ToLower(platform)
	for _, marker := range huaweiMarkers {
		if strings.Contains(p, marker) {
			return FamilyHuawei
		}
	}
	return FamilyGeneric
}

// Descriptor identifies one device to inspect. Password and Secret never
// leave the process: they are excluded from report serialization.
type Descriptor struct {
	Platform string `json:"platform"`
	IP       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"-"`
	Secret   string `json:"-"`
	Port     int    `json:"port"`
}

// run states shown in the summary table
const (
	Ok                   = "Success"
	Unreachable          = "Unreachable"
	Unknown              = "Unknown"
	SshAuthFailure       = "SSH authentication failure"
	InvalidEntry         = "Invalid inventory entry"
	CmdPartiallyAccepted = "Commands accepted with errors"
)

// ValidationError reports a malformed descriptor or a platform identifier
// that violates a caller-imposed family constraint. It is always raised
// before any network I/O.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid device entry: " + e.Reason
}

// Validate checks the descriptor invariants. Port 0 means "not set" and is
// defaulted to 22 later, when the connection profile is built.
func (d *Descriptor) Validate() error {
	switch {
	case d.Platform == "":
		return &ValidationError{Reason: "platform is required"}
	case d.IP == "":
		return &ValidationError{Reason: "ip is required"}
	case d.Username == "":
		return &ValidationError{Reason: "username is required"}
	case d.Password == "":
		return &ValidationError{Reason: "password is required"}
	case d.Port < 0 || d.Port > 65535:
		return &ValidationError{Reason: fmt.Sprintf("port %d out of range", d.Port)}
	}
	return nil
}

// Family is a shortcut for Classify on the descriptor's platform.
func (d *Descriptor) Family() VendorFamily {
	return Classify(d.Platform)
}

// CommandSpec is one inspection command to run on a device.
type CommandSpec struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

type CommandStatus string

const (
	StatusSuccess CommandStatus = "success"
	StatusError   CommandStatus = "error"
)

// CommandResult is the outcome of one command. Results are reported in
// input order, one per submitted command, regardless of outcome.
type CommandResult struct {
	Command string         `json:"command"`
	Status  CommandStatus  `json:"status"`
	Output  string         `json:"output,omitempty"`
	Parsed  map[string]any `json:"parsed_output,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Succeeded reports whether the command was accepted by the device.
func (r CommandResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// ExecutionReport is the final per-device report: the original descriptor
// plus the ordered per-command outcomes.
type ExecutionReport struct {
	Device  Descriptor      `json:"device_info"`
	Results []CommandResult `json:"command_responses"`
}
