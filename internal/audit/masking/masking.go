package masking

import "strings"

const maskToken = "****"

// MaskCredential redacts a scanned credential while keeping a minimal
// suffix so two audit rows for the same credential remain correlatable.
func MaskCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}

	return prefix + maskToken + remainder[len(remainder)-4:]
}

func splitPrefix(value string) (string, string) {
	lastDash := strings.LastIndex(value, "-")
	if lastDash == -1 || lastDash == len(value)-1 {
		return "", value
	}
	return value[:lastDash+1], value[lastDash+1:]
}
