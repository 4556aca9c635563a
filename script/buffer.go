package script

import "strings"

const truncatedMarker = "\n...(output truncated)\n"

// boundedBuffer collects print output up to a byte limit. A limit of zero
// or less means unlimited.
type boundedBuffer struct {
	b         strings.Builder
	limit     int
	truncated bool
}

func newBoundedBuffer(limit int) *boundedBuffer {
	return &boundedBuffer{limit: limit}
}

func (w *boundedBuffer) WriteString(s string) {
	if w.truncated {
		return
	}
	if w.limit > 0 && w.b.Len()+len(s) > w.limit {
		w.b.WriteString(s[:w.limit-w.b.Len()])
		w.b.WriteString(truncatedMarker)
		w.truncated = true
		return
	}
	w.b.WriteString(s)
}

func (w *boundedBuffer) String() string {
	return w.b.String()
}
