package cache

import (
	"sort"
	"strings"
)

// KeyFor builds the deterministic fingerprint for a request: the method and
// path, followed by the query parameters in sorted order. Two requests for
// the same resource always produce the same key regardless of map iteration
// order.
func KeyFor(method, path string, params map[string]string) string {
	if len(params) == 0 {
		return method + " " + path
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return method + " " + path + "?" + strings.Join(parts, "&")
}
