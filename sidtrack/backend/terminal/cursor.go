package terminal

// cursor tracks which logical frame sits on the first row of the listing.
// Rows run newest to oldest. While following, the top row is always the
// newest frame; any scroll pins it to a fixed logical frame instead, which
// stays put as new frames arrive until it is overwritten.
type cursor struct {
	follow bool
	top    uint64
}

func newCursor() *cursor {
	return &cursor{follow: true}
}

// scroll moves the top row by delta frames; negative is older.
func (c *cursor) scroll(delta int, recorded uint64) {
	if recorded == 0 {
		return
	}
	if c.follow {
		c.top = recorded - 1
		c.follow = false
	}
	if delta < 0 {
		d := uint64(-delta)
		if c.top < d {
			c.top = 0
		} else {
			c.top -= d
		}
		return
	}
	c.top += uint64(delta)
}

func (c *cursor) followNewest() {
	c.follow = true
}

// resolve clamps the cursor to the frames still held and returns the
// logical index of the top row and how many rows are available below it.
func (c *cursor) resolve(recorded uint64, filled int) (top uint64, available int) {
	if recorded == 0 || filled == 0 {
		return 0, 0
	}
	newest := recorded - 1
	oldest := recorded - uint64(filled)

	top = c.top
	if c.follow || top > newest {
		top = newest
	}
	if top < oldest {
		top = oldest
	}
	if !c.follow {
		c.top = top
	}
	return top, int(top-oldest) + 1
}
