package core

import "strings"

// redacted is printed wherever a Secret would otherwise be formatted.
const redacted = "[REDACTED]"

// Secret holds the API credential. Formatting, JSON, YAML and text encoding all
// print a placeholder, so a Secret can sit inside logged config values safely.
// Expose returns the real value for the x-api-key header.
//
//	key := NewSecret("sk-ant-123")
//	fmt.Println(key)  // [REDACTED]
//	key.Expose()      // "sk-ant-123"
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: strings.TrimSpace(value)}
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string {
	return "core.Secret{" + redacted + "}"
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Expose returns the raw value. Do not log it.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no credential was supplied.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// Hint returns the last four characters prefixed with an ellipsis, for
// display in CLI output. Short secrets are fully masked.
func (s Secret) Hint() string {
	if len(s.value) < 12 {
		return redacted
	}
	return "..." + s.value[len(s.value)-4:]
}
