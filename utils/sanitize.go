package utils

import (
	"net/url"
	"path"
	"strings"
)

const maxKeyLength = 240

// SanitizeBlobKey normalizes a client-supplied filename into a safe blob key
// component. It URL-decodes the name, drops any path components, replaces
// characters outside a small allow-list with underscores, collapses runs of
// underscores, and caps the length while preserving the extension.
func SanitizeBlobKey(raw string) string {
	if raw == "" {
		return raw
	}

	key := raw
	if decoded, err := url.QueryUnescape(strings.ReplaceAll(raw, "+", " ")); err == nil {
		key = decoded
	}

	// Drop directory components so "../../etc/passwd" becomes "passwd".
	key = path.Base(strings.ReplaceAll(key, "\\", "/"))
	if key == "." || key == "/" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == '(' || r == ')' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	key = b.String()

	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}

	if len(key) > maxKeyLength {
		ext := path.Ext(key)
		name := strings.TrimSuffix(key, ext)
		if len(name) > 200 {
			name = name[:200]
		}
		key = name + ext
	}
	return key
}
