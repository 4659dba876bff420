package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/coedit/internal/ir"
)

// splitPath splits "/contact/name" into root "contact" and nested ["name"].
//
// A leading empty segment (from the leading slash) is ignored. Segments
// decode the JSON-Pointer escapes "~1" → "/" and "~0" → "~".
func splitPath(path string) (root string, nested []string) {
	segs := strings.Split(path, "/")
	if len(segs) > 0 && segs[0] == "" {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return "", nil
	}
	for i, seg := range segs {
		segs[i] = unescapeSegment(seg)
	}
	return segs[0], segs[1:]
}

// unescapeSegment decodes one JSON-Pointer reference token. Order matters:
// "~01" must decode to "~1", not "/".
func unescapeSegment(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

// writeAt sets value at segs inside cur and returns the updated container.
//
// cur must already be a private deep copy; it is mutated in place where
// possible. Missing or null intermediate objects are created. Arrays are
// addressed by decimal index; with add, the index inserts and "-" appends.
func writeAt(cur ir.Value, segs []string, op ir.Op, value ir.Value) (ir.Value, error) {
	seg := segs[0]
	last := len(segs) == 1

	switch c := cur.(type) {
	case nil, ir.Null:
		return writeAt(ir.Object{}, segs, op, value)

	case ir.Object:
		if last {
			c[seg] = value
			return c, nil
		}
		child, err := writeAt(c[seg], segs[1:], op, value)
		if err != nil {
			return nil, err
		}
		c[seg] = child
		return c, nil

	case ir.Array:
		if last && op == ir.OpAdd {
			idx, ok := insertIndex(seg, len(c))
			if !ok {
				return nil, fmt.Errorf("index %s out of range", seg)
			}
			out := make(ir.Array, 0, len(c)+1)
			out = append(out, c[:idx]...)
			out = append(out, value)
			return append(out, c[idx:]...), nil
		}
		idx, ok := elementIndex(seg, len(c))
		if !ok {
			return nil, fmt.Errorf("index %s out of range", seg)
		}
		if last {
			c[idx] = value
			return c, nil
		}
		child, err := writeAt(c[idx], segs[1:], op, value)
		if err != nil {
			return nil, err
		}
		c[idx] = child
		return c, nil

	default:
		return nil, fmt.Errorf("cannot set %s on non-object value", seg)
	}
}

// removeAt deletes the final segment of segs inside cur. Navigation that
// finds no container is a no-op, never an error.
func removeAt(cur ir.Value, segs []string) ir.Value {
	seg := segs[0]
	last := len(segs) == 1

	switch c := cur.(type) {
	case ir.Object:
		if last {
			delete(c, seg)
			return c
		}
		child, ok := c[seg]
		if !ok {
			return c
		}
		c[seg] = removeAt(child, segs[1:])
		return c

	case ir.Array:
		idx, ok := elementIndex(seg, len(c))
		if !ok {
			return c
		}
		if last {
			out := make(ir.Array, 0, len(c)-1)
			out = append(out, c[:idx]...)
			return append(out, c[idx+1:]...)
		}
		c[idx] = removeAt(c[idx], segs[1:])
		return c

	default:
		return cur
	}
}

// elementIndex parses an index addressing an existing element.
func elementIndex(seg string, n int) (int, bool) {
	idx, ok := parseIndex(seg)
	if !ok || idx >= n {
		return 0, false
	}
	return idx, true
}

// insertIndex parses an insertion point: 0..n, or "-" for the end.
func insertIndex(seg string, n int) (int, bool) {
	if seg == "-" {
		return n, true
	}
	idx, ok := parseIndex(seg)
	if !ok || idx > n {
		return 0, false
	}
	return idx, true
}

// parseIndex accepts only canonical decimal indexes: "0", "1", "12", never
// "01", "+1" or "-1".
func parseIndex(seg string) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return idx, true
}
