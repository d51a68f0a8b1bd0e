// Package canon provides the canonical-JSON encoding shared by every
// component that hashes structured data for a stable identifier: the
// safety gate's certificate hash (§4.5) and the session store's message
// content hash (§3). Keys are sorted ascending and numbers are rendered
// without locale-dependent formatting, per spec §6.
package canon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// JSON renders v with map keys sorted ascending and numbers formatted via
// strconv with no locale dependence. It supports the subset of values any
// hashing caller needs: maps, slices, strings, bools, float64/int, nil.
func JSON(v any) string {
	var b strings.Builder
	write(&b, v)
	return b.String()
}

func write(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		b.WriteString(strconv.Quote(val))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case map[string]any:
		writeMap(b, val)
	case []any:
		writeSlice(b, val)
	default:
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", val)))
	}
}

func writeMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		write(b, m[k])
	}
	b.WriteByte('}')
}

func writeSlice(b *strings.Builder, s []any) {
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		write(b, v)
	}
	b.WriteByte(']')
}
