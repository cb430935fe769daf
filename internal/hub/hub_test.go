package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubCountTracksConnections(t *testing.T) {
	h := NewHub()
	assert.Zero(t, h.Count("comp-1"))

	h.Add("comp-1", "term-1", nil)
	h.Add("comp-1", "term-2", nil)
	h.Add("comp-2", "term-3", nil)

	assert.Equal(t, 2, h.Count("comp-1"))
	assert.Equal(t, 1, h.Count("comp-2"))

	h.Remove("comp-1", "term-1")
	assert.Equal(t, 1, h.Count("comp-1"))

	// Removing an unknown terminal is a no-op.
	h.Remove("comp-1", "term-9")
	assert.Equal(t, 1, h.Count("comp-1"))

	h.Remove("comp-1", "term-2")
	assert.Zero(t, h.Count("comp-1"))
	assert.Equal(t, 1, h.Count("comp-2"))
}
