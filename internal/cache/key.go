package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from an operation name, its
// positional arguments, and its keyword arguments. Keyword arguments are
// serialized in sorted key order so argument order at the call site does
// not change the key.
func Key(op string, args []any, kwargs map[string]any) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte(':')
	b.WriteString(encodeValues(args))
	b.WriteByte(':')

	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encodeValue(kwargs[k]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func encodeValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = encodeValue(v)
	}
	return strings.Join(parts, ",")
}

func encodeValue(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		// Unmarshalable values (channels, funcs) should never reach a
		// cache key; fall back to the fmt representation.
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
