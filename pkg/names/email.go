package names

import (
	"regexp"
	"strings"
)

// emailPattern validates a cleaned address: a restricted local part, one @,
// a domain, and a TLD of at least two letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// plusTagPattern matches a "+tag" local-part suffix up to the @.
var plusTagPattern = regexp.MustCompile(`\+[^@]*@`)

// CleanEmail canonicalizes an email address: trims, lowercases, and strips a
// "+tag" local-part suffix (user+filter@gmail.com becomes user@gmail.com).
// It returns ok=false for anything that does not validate after cleaning,
// since malformed addresses are expected input.
func CleanEmail(raw string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}

	cleaned = plusTagPattern.ReplaceAllString(cleaned, "@")

	if !emailPattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}
