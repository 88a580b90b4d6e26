package pipeline

import (
	"log/slog"
	"strconv"
)

const redactedCredential = "***"

// Credential is the bearer token attached to every request. Its string,
// Go-syntax, JSON and slog renderings are all redacted.
type Credential string

// String returns a redacted placeholder.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return redactedCredential
}

// GoString keeps %#v from printing the token.
func (c Credential) GoString() string {
	return strconv.Quote(c.String())
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// MarshalJSON implements json.Marshaler.
func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// Empty reports whether no token was configured.
func (c Credential) Empty() bool {
	return c == ""
}

func (c Credential) authorization() string {
	return "Bearer " + string(c)
}
