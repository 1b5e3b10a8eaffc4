package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
	"time"
)

func NowISO() string {
	return time.Now().Format(time.RFC3339)
}

// ParseBool accepts the usual spellings of yes/no used in env files.
func ParseBool(s string, def bool) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "yes", "true", "1", "y", "on":
		return true
	case "no", "false", "0", "n", "off":
		return false
	default:
		return def
	}
}

// SecretEqual compares a configured secret with a caller-supplied value in
// constant time, whatever their lengths.
func SecretEqual(secret, given string) bool {
	a := sha256.Sum256([]byte(secret))
	b := sha256.Sum256([]byte(given))
	return hmac.Equal(a[:], b[:])
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
