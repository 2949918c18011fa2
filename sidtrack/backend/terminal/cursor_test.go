package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_Resolve(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(c *cursor)
		recorded      uint64
		filled        int
		wantTop       uint64
		wantAvailable int
	}{
		{"empty", func(c *cursor) {}, 0, 0, 0, 0},
		{"follow before wrap", func(c *cursor) {}, 5, 5, 4, 5},
		{"follow after wrap", func(c *cursor) {}, 100, 8, 99, 8},
		{"pinned", func(c *cursor) { c.scroll(-3, 100) }, 100, 8, 96, 5},
		{"pinned frame overwritten", func(c *cursor) { c.scroll(-3, 20) }, 100, 8, 92, 1},
		{"pinned beyond newest", func(c *cursor) { c.scroll(50, 10) }, 10, 10, 9, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor()
			tt.setup(c)
			top, available := c.resolve(tt.recorded, tt.filled)
			assert.Equal(t, tt.wantTop, top)
			assert.Equal(t, tt.wantAvailable, available)
		})
	}
}

func TestCursor_PinnedStaysPutAsFramesArrive(t *testing.T) {
	c := newCursor()
	c.scroll(-2, 50)

	top, _ := c.resolve(50, 16)
	assert.Equal(t, uint64(47), top)

	top, _ = c.resolve(55, 16)
	assert.Equal(t, uint64(47), top, "scrubbed row does not move with the writer")

	c.followNewest()
	top, _ = c.resolve(55, 16)
	assert.Equal(t, uint64(54), top)
}

func TestCursor_ScrollClampsAtZero(t *testing.T) {
	c := newCursor()
	c.scroll(-10, 3)
	top, available := c.resolve(3, 3)
	assert.Equal(t, uint64(0), top)
	assert.Equal(t, 1, available)

	c.scroll(-1, 0)
	assert.False(t, c.follow)
}
