package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendFansOutPerUser(t *testing.T) {
	h := NewHub()
	a1 := h.Register("a")
	a2 := h.Register("a")
	b := h.Register("b")
	defer h.Unregister("b", b)

	assert.Equal(t, 2, h.Send("a", "hello"))
	assert.Equal(t, "hello", <-a1.Messages)
	assert.Equal(t, "hello", <-a2.Messages)
	assert.Empty(t, b.Messages)

	h.Unregister("a", a1)
	h.Unregister("a", a1)
	assert.Equal(t, 1, h.Connected("a"))
	_, open := <-a1.Done
	assert.False(t, open)

	h.Unregister("a", a2)
	assert.Equal(t, 0, h.Send("a", "gone"))
}

func TestSendNeverBlocks(t *testing.T) {
	h := NewHub()
	cs := h.Register("a")
	defer h.Unregister("a", cs)

	for i := 0; i < cap(cs.Messages); i++ {
		h.Send("a", "x")
	}
	assert.Equal(t, 0, h.Send("a", "overflow"))
}
