package handlers

import "strings"

// redactEmail keeps the first character and the domain so log lines stay
// correlatable without storing the full address.
func redactEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return "[redacted]"
	}

	local := []rune(email[:at])
	domain := email[at+1:]
	if len(local) == 0 {
		return "***@" + domain
	}
	return string(local[0]) + "***@" + domain
}
