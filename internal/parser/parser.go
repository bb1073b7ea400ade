package parser

import (
	"regexp"
	"strings"
)

// ParseError means the raw output of one command could not be turned into a
// structured representation. It is recoverable: the caller keeps the raw
// output and drops the structured field.
type ParseError struct {
	Command string
	Reason  string
}

func (e *ParseError) Error() string {
	return "cannot parse output of " + e.Command + ": " + e.Reason
}

// grammar extracts structured data from the raw output of one command.
type grammar func(raw string) (map[string]any, bool)

// grammars maps a normalized command to its output grammar. The table covers
// the Cisco dialect commands we can extract reliably; anything else yields a
// ParseError and the caller falls back to raw output.
var grammars = map[string]grammar{
	"show version":            parseShowVersion,
	"show ip interface brief": parseShowIPIntBrief,
}

// Parse transforms raw command output into a structured representation using
// the platform's command grammar. The platform argument selects the dialect;
// only Cisco-style dialects are covered by the current grammar table.
func Parse(platform, command, raw string) (map[string]any, error) {
	cmd := normalize(command)
	g, ok := grammars[cmd]
	if !ok {
		return nil, &ParseError{Command: command, Reason: "no grammar for command on " + platform}
	}
	parsed, ok := g(raw)
	if !ok {
		return nil, &ParseError{Command: command, Reason: "output did not match grammar"}
	}
	return parsed, nil
}

// Supports reports whether a grammar exists for the command.
func Supports(command string) bool {
	_, ok := grammars[normalize(command)]
	return ok
}

// normalize collapses whitespace so "show  ip int brief " and
// "show ip int brief" select the same grammar, and expands the common
// abbreviations seen in operator command files.
func normalize(command string) string {
	fields := strings.Fields(strings.ToLower(command))
	for i, f := range fields {
		switch f {
		case "sh", "sho":
			fields[i] = "show"
		case "int", "interf":
			fields[i] = "interface"
		case "bri", "brie":
			fields[i] = "brief"
		case "ver":
			fields[i] = "version"
		}
	}
	return strings.Join(fields, " ")
}

var (
	reVersion  = regexp.MustCompile(`(?m)Software.*, Version ([^,\s]+)`)
	reUptime   = regexp.MustCompile(`(?m)^(\S+) uptime is (.+?)\s*$`)
	reSerial   = regexp.MustCompile(`(?m)^Processor board ID (\S+)`)
	reIntBrief = regexp.MustCompile(`(?m)^(\S+)\s+(\S+)\s+\S+\s+\S+\s+(up|down|administratively down)\s+(up|down)\s*$`)
)

func parseShowVersion(raw string) (map[string]any, bool) {
	m := reVersion.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	out := map[string]any{"version": m[1]}
	if u := reUptime.FindStringSubmatch(raw); u != nil {
		out["hostname"] = u[1]
		out["uptime"] = u[2]
	}
	if s := reSerial.FindStringSubmatch(raw); s != nil {
		out["serial"] = s[1]
	}
	return out, true
}

func parseShowIPIntBrief(raw string) (map[string]any, bool) {
	rows := reIntBrief.FindAllStringSubmatch(raw, -1)
	if rows == nil {
		return nil, false
	}
	interfaces := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(r[1], "Interface") {
			continue
		}
		interfaces = append(interfaces, map[string]string{
			"interface": r[1],
			"ip":        r[2],
			"status":    r[3],
			"protocol":  r[4],
		})
	}
	if len(interfaces) == 0 {
		return nil, false
	}
	return map[string]any{"interfaces": interfaces}, true
}
