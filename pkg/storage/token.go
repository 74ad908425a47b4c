package storage

import "github.com/kike-0203/watchy-solver-clean/pkg/domain"

// ValidToken reports whether s is a well-formed solution token: exactly
// domain.TokenLength lowercase hex characters. Tokens are used as directory
// names, so anything else is rejected outright.
func ValidToken(s string) bool {
	if len(s) != domain.TokenLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}
