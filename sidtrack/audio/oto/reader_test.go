//go:build !headless

package oto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReader_ChunksFixedSize(t *testing.T) {
	var calls int
	var sizes []int
	r := &reader{
		cb: func(buf []byte) {
			calls++
			sizes = append(sizes, len(buf))
			for i := range buf {
				buf[i] = byte(calls)
			}
		},
		chunk: make([]byte, 4),
	}
	r.pos = len(r.chunk)

	p := make([]byte, 6)
	n, err := r.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{1, 1, 1, 1, 2, 2}, p)

	p = make([]byte, 3)
	r.Read(p)
	assert.Equal(t, []byte{2, 2, 3}, p)

	assert.Equal(t, []int{4, 4, 4}, sizes, "callback always sees the full chunk")
}

func TestReader_SilentAfterClose(t *testing.T) {
	called := false
	r := &reader{cb: func([]byte) { called = true }, chunk: make([]byte, 4)}
	r.pos = len(r.chunk)
	r.closed = true

	p := []byte{9, 9, 9}
	n, _ := r.Read(p)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0, 0, 0}, p)
	assert.False(t, called)
}
