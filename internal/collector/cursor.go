package collector

// Cursor is the round-robin service pointer over motor channels. The
// rotation is its own type so the invariant is testable in isolation: n
// consecutive services hit n distinct channels in ascending cyclic order.
type Cursor struct {
	n   int
	idx int
}

// NewCursor returns a cursor over n channels, starting at channel 0.
func NewCursor(n int) *Cursor {
	if n < 1 {
		n = 1
	}
	return &Cursor{n: n}
}

// Peek reports the channel the next service will use without advancing.
func (c *Cursor) Peek() int {
	return c.idx
}

// Next returns the channel to serve now and advances the rotation.
func (c *Cursor) Next() int {
	idx := c.idx
	c.idx = (c.idx + 1) % c.n
	return idx
}

// Len reports the rotation size.
func (c *Cursor) Len() int {
	return c.n
}
