package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback when none is set.
// Keys are checked in order so a service-prefixed name can shadow a platform default.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
