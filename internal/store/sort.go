package store

import "strings"

// ParseSort interprets a "[-]field" sort spec, falling back to def (same
// notation) when spec is empty. It returns the field name and direction,
// 1 ascending or -1 descending.
func ParseSort(spec, def string) (string, int) {
	if spec == "" {
		spec = def
	}
	dir := 1
	if strings.HasPrefix(spec, "-") {
		dir = -1
		spec = strings.TrimPrefix(spec, "-")
	}
	if spec == "" {
		spec = "createdAt"
	}
	return spec, dir
}
