package media

import (
	"strings"
	"time"
)

// SanitizeTree recursively cleans an attribute tree for storage. string
// leaves lose embedded null bytes and surrounding whitespace, byte leaves
// are decoded as UTF-8 text first, sequences and nested mappings are
// walked preserving order and keys, dates and other scalars pass through
// unchanged. the function is idempotent.
func SanitizeTree(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		return sanitizeString(val)
	case []byte:
		return sanitizeString(string(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = SanitizeTree(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = SanitizeTree(item)
		}
		return out
	default:
		return val
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// Sanitized returns a copy of the attribute set safe for persistence:
// no string leaf carries null bytes or raw binary content.
func (e ExifData) Sanitized() ExifData {
	out := e.Clone()
	out.Make = sanitizeStringPtr(out.Make)
	out.Model = sanitizeStringPtr(out.Model)
	out.LensModel = sanitizeStringPtr(out.LensModel)
	for k, v := range out.Extra {
		out.Extra[k] = SanitizeTree(v)
	}
	return out
}

func sanitizeStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeString(*s)
	return &clean
}
