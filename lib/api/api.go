package api

import (
	"fmt"
	"strings"
)

// Build URL for given path under a service base URL.
// A trailing slash on the base URL is ignored.
func BuildURL(base string, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Build URL for given formatted path under a service base URL.
func BuildURLf(base string, path string, v ...any) string {
	return BuildURL(base, fmt.Sprintf(path, v...))
}
