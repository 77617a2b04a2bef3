package rate

import (
	"errors"
	"strings"

	"fxcache/internal/domain"
)

var (
	ErrCodeRequired  = errors.New("currency code is required")
	ErrCodeMalformed = errors.New("currency code must be 3 latin letters")
)

// NormalizeCode trims and uppercases a raw currency code and rejects anything
// that is not a 3-letter code. Used by the HTTP layer so malformed input fails
// before any cache or store access.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrCodeRequired
	}
	if !domain.IsValidCode(code) {
		return "", ErrCodeMalformed
	}
	return code, nil
}
