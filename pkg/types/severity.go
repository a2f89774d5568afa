package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Severity classifies how serious a rule finding is.
type Severity int

const (
	// SeverityHint is the default for rules that do not declare one.
	SeverityHint Severity = iota
	// SeverityInfo marks informational findings.
	SeverityInfo
	// SeverityWarning marks findings that should be fixed.
	SeverityWarning
	// SeverityError marks findings that must be fixed.
	SeverityError
	// SeverityOff disables a rule entirely.
	SeverityOff
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "hint"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseSeverity resolves a severity name.
// An empty name resolves to SeverityHint, the default.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "":
		return SeverityHint, nil
	case "hint":
		return SeverityHint, nil
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "off":
		return SeverityOff, nil
	default:
		return SeverityHint, fmt.Errorf("unknown severity: %q", name)
	}
}

// MarshalJSON encodes the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a lowercase severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalYAML decodes a severity name from a rule file.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the severity as its lowercase name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}
