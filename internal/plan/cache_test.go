package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newResponseCache(2)
	c.put("a", &SequencingResponse{RequestID: "a"})
	c.put("b", &SequencingResponse{RequestID: "b"})

	// Touch a so b becomes the eviction victim.
	_, ok := c.get("a")
	assert.True(t, ok)

	c.put("c", &SequencingResponse{RequestID: "c"})

	_, ok = c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestResponseCache_PutSameKeyReplaces(t *testing.T) {
	c := newResponseCache(2)
	c.put("a", &SequencingResponse{RequestID: "first"})
	c.put("a", &SequencingResponse{RequestID: "second"})

	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "second", got.RequestID)
	assert.Equal(t, 1, c.len())
}
