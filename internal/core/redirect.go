package core

import (
	"regexp"
	"strings"
)

// MaxRedirectLength bounds accepted redirect targets.
const MaxRedirectLength = 200

var (
	redirectWhitelist = regexp.MustCompile(`^/[a-zA-Z0-9\-_/?&=#]*$`)

	traversalSequences = []string{"../", `..\`, "..%2F", "..%5C", "%2E%2E%2F", "%2E%2E%5C"}
	nullSequences      = []string{"\x00", "%00"}
)

// ValidateRedirect reports whether target is a safe same-site relative path.
// Any adjacent slashes are rejected, including harmless ones like "/a//b".
// It never panics; an internal failure counts as a rejection.
func ValidateRedirect(target string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if target == "" {
		return false
	}
	if !strings.HasPrefix(target, "/") {
		return false
	}
	if len(target) > MaxRedirectLength {
		return false
	}
	for _, seq := range traversalSequences {
		if strings.Contains(target, seq) {
			return false
		}
	}
	if !redirectWhitelist.MatchString(target) {
		return false
	}
	for _, seq := range nullSequences {
		if strings.Contains(target, seq) {
			return false
		}
	}
	if strings.Contains(target, "//") {
		return false
	}
	return true
}

// ResolveRedirect returns the target to navigate to, or a RedirectRejectedError.
func ResolveRedirect(target string) (string, error) {
	if !ValidateRedirect(target) {
		return "", &RedirectRejectedError{Target: target}
	}
	return target, nil
}

// FirstRedirectTarget picks the first non-empty candidate, in returnTo, redirect, from order.
func FirstRedirectTarget(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}
