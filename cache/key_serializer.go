package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer renders every part with a deterministic textual form.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins namespace and parts with KeySeparator. Keys sharing a namespace
// share the prefix namespace + KeySeparator, which is what prefix invalidation relies on.
func (s *defaultKeySerializer) SerializeKey(namespace string, parts ...any) string {
	if len(parts) == 0 {
		return namespace
	}

	out := make([]string, 0, len(parts)+1)
	out = append(out, namespace)
	for _, p := range parts {
		out = append(out, s.serializeValue(p))
	}
	return strings.Join(out, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", val)
	case fmt.Stringer:
		return val.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%T", v)
	}
	return "json:" + string(data)
}

// Prefix returns the key prefix shared by every key of namespace.
func Prefix(namespace string) string {
	return namespace + KeySeparator
}

// HasPrefix reports whether key belongs to namespace. The bare namespace also matches.
func HasPrefix(key, namespace string) bool {
	return key == namespace || strings.HasPrefix(key, Prefix(namespace))
}
