package fontctx

import "strconv"

// AppendDebug appends a diagnostic description of h to b and returns the
// extended buffer. It takes no locks and allocates only if b must grow.
func (h Handle) AppendDebug(b []byte) []byte {
	b = append(b, "fontctx.Handle{backend: "...)
	c := h.c
	if c == nil {
		return append(b, "none}"...)
	}
	s := c.s
	b = append(b, s.backend...)
	b = append(b, ", id: "...)
	b = strconv.AppendUint(b, s.id, 10)
	b = append(b, ", refs: "...)
	b = strconv.AppendInt(b, s.refs.Load(), 10)
	if c.released.Load() {
		b = append(b, ", released"...)
	}
	return append(b, '}')
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	var buf [80]byte
	return string(h.AppendDebug(buf[:0]))
}

// GoString implements fmt.GoStringer.
func (h Handle) GoString() string {
	return h.String()
}
