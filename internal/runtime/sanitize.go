package runtime

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxQuerySize is 4KB (conservative default)
	DefaultMaxQuerySize = 4096
	// EnvMaxQuerySize is the environment variable to override the default
	EnvMaxQuerySize = "LANG2QUERY_MAX_QUERY_SIZE"
)

var (
	ErrQueryTooLarge = errors.New("query exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("query contains invalid UTF-8 sequences")
)

// SanitizeQuery cleans an incoming question by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters. Oversized
// queries are rejected rather than truncated so runs stay deterministic.
func SanitizeQuery(query string) (string, error) {
	limit := getMaxQuerySize()
	if len(query) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrQueryTooLarge, len(query), limit)
	}

	if !utf8.ValidString(query) {
		return "", ErrInvalidUTF8
	}

	// Strip control characters except newline, tab, and carriage return.
	// This prevents log poisoning and terminal corruption.
	clean := true
	for _, r := range query {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return query, nil
	}

	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxQuerySize() int {
	if val := os.Getenv(EnvMaxQuerySize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxQuerySize
}
