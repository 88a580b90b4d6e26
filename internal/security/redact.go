package security

import "strings"

const mask = "***"

var sensitiveSubstrings = []string{
	"token",
	"password",
	"authorization",
	"apikey",
	"api_key",
	"credential",
	"secret",
	"bearer",
	"cookie",
	"session",
	"jwt",
}

// RedactArguments returns a copy of tool arguments with sensitive values
// masked. Nested objects are redacted recursively.
func RedactArguments(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	redacted := make(map[string]any, len(values))
	for key, value := range values {
		if isSensitiveKey(key) {
			redacted[key] = mask
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			redacted[key] = RedactArguments(nested)
			continue
		}
		redacted[key] = value
	}
	return redacted
}

// ScrubSecret replaces every occurrence of secret in text with a mask.
func ScrubSecret(text, secret string) string {
	if secret == "" || text == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, mask)
}

// ScrubSecretBytes is ScrubSecret for byte payloads.
func ScrubSecretBytes(data []byte, secret string) []byte {
	if secret == "" || len(data) == 0 {
		return data
	}
	if !strings.Contains(string(data), secret) {
		return data
	}
	return []byte(strings.ReplaceAll(string(data), secret, mask))
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
