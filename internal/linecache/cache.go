// Package linecache mirrors the visible line state of one remote document
// view. The core process owns document truth; this cache is rebuilt from
// the incremental update batches it sends.
package linecache

// Cache is an ordered, possibly sparse sequence of lines. A nil entry
// marks a row known to exist whose content has not yet been delivered.
//
// Cache is not internally synchronized. One goroutine applies updates and
// hands completed snapshots to readers; in practice that is the goroutine
// dispatching core notifications.
type Cache struct {
	lines []*Line
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// ApplyUpdate rebuilds the cache by playing u's ops, in order, against the
// current snapshot. The old snapshot stays intact and readable until the
// fully built replacement is swapped in, so readers never observe a
// partially rebuilt cache.
func (c *Cache) ApplyUpdate(u *Update) {
	old := c.lines
	cursor := 0
	var next []*Line

	for _, op := range u.Ops {
		switch op.Kind {
		case OpIns:
			next = append(next, op.Lines...)
		case OpCopy:
			// Shortfall past the end of the old snapshot fills with nil so
			// the operation is total over any well-formed count.
			for n := 0; n < op.N; n++ {
				if cursor < len(old) {
					next = append(next, old[cursor])
					cursor++
				} else {
					next = append(next, nil)
				}
			}
		case OpSkip:
			cursor += op.N
		case OpInvalidate:
			for n := 0; n < op.N; n++ {
				next = append(next, nil)
			}
		case OpUnknown:
			// Forward compatibility: newer cores may send ops we don't know.
		}
	}

	c.lines = next
}

// Height returns the number of rows the cache currently describes,
// including invalidated ones.
func (c *Cache) Height() int {
	return len(c.lines)
}

// Line returns the line at index i. It returns nil both for out-of-range
// indices and for rows that are invalidated or not yet delivered; callers
// treat absence uniformly as "not currently available".
func (c *Cache) Line(i int) *Line {
	if i < 0 || i >= len(c.lines) {
		return nil
	}
	return c.lines[i]
}
