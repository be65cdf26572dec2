// Package redact removes credentials from strings before they are logged or
// returned in error responses. Connection URLs, settings values and error
// messages pass through here so that secrets from the environment never reach
// log output.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Precompiled rules, applied in order.
var rules = []rule{
	// user:password@ in any URL, keeping the scheme
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/@\s:]*:[^/@\s]+@`), "${1}" + RedactedCredentialPlaceholder + "@"},
	// public key in a Sentry style DSN
	{regexp.MustCompile(`(?i)\b(https?://)[0-9a-f]{16,}@`), "${1}" + RedactedKeyPlaceholder + "@"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)(\s*[=:]\s*['"]?)[^'"&\s]+`), "${1}${2}" + RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(secret[_-]?(?:access[_-]?)?key|api[_-]?key|token|sessionid)(\s*[=:]\s*['"]?)[A-Za-z0-9_\-.~+/=]{8,}`), "${1}${2}" + RedactedKeyPlaceholder},
	{regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{16}\b`), RedactedKeyPlaceholder},
}

// sensitiveNames are substrings marking a setting whose value must never be shown.
var sensitiveNames = []string{"SECRET", "PASSWORD", "TOKEN", "ACCESS_KEY", "PRIVATE", "DSN"}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// URL masks the password in a connection URL. Strings that do not parse as a
// URL fall back to String.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return String(raw)
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), RedactionPlaceholder)
	}
	return strings.Replace(u.String(), url.QueryEscape(RedactionPlaceholder), RedactionPlaceholder, 1)
}

// IsSensitive reports whether a setting named name holds a secret.
func IsSensitive(name string) bool {
	upper := strings.ToUpper(name)
	for _, s := range sensitiveNames {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// Setting returns value unless name marks a secret. URL valued settings keep
// everything but their credentials.
func Setting(name, value string) string {
	if value == "" {
		return value
	}
	if IsSensitive(name) {
		return RedactionPlaceholder
	}
	if strings.HasSuffix(strings.ToUpper(name), "_URL") {
		return URL(value)
	}
	return String(value)
}
