package gateway

import (
	"strings"
)

// routeLabel collapses identifier segments so metric labels stay bounded:
// /todos/42/mark becomes /todos/{id}/mark.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if isIdentifier(seg) {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	if seg == "" {
		return false
	}
	digits, hex := true, len(seg) >= 16
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F', r == '-':
			digits = false
		default:
			return false
		}
	}
	return digits || hex
}
