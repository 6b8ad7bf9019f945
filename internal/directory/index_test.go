package directory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_PutStoresBothAliases(t *testing.T) {
	idx := NewIndex()
	ent := Entity{"id": "abc-123", "displayName": "Finance Team"}
	idx.Put("abc-123", "Finance Team", ent)

	byID, ok := idx.Get("abc-123")
	assert.True(t, ok)
	byName, ok := idx.Get("Finance Team")
	assert.True(t, ok)
	assert.Equal(t, byID.String("id"), byName.String("id"))
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_NegativeMarkers(t *testing.T) {
	idx := NewIndex()
	assert.False(t, idx.Negative("ghost"))

	idx.PutNegative("ghost")
	assert.True(t, idx.Negative("ghost"))

	// A successful put clears the marker.
	idx.Put("abc-1", "ghost", Entity{"id": "abc-1"})
	assert.False(t, idx.Negative("ghost"))
	_, ok := idx.Get("ghost")
	assert.True(t, ok)
}

func TestIndex_Delete(t *testing.T) {
	idx := NewIndex()
	idx.Put("abc-1", "Team A", Entity{"id": "abc-1"})
	idx.PutNegative("gone")

	idx.Delete("abc-1", "Team A", "gone")
	_, ok := idx.Get("abc-1")
	assert.False(t, ok)
	_, ok = idx.Get("Team A")
	assert.False(t, ok)
	assert.False(t, idx.Negative("gone"))
	assert.Zero(t, idx.Len())
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	idx := NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				idx.Put("abc-1", "Team A", Entity{"id": "abc-1"})
				idx.Get("abc-1")
				idx.Negative("missing")
				idx.PutNegative("missing")
			}
		}()
	}
	wg.Wait()

	_, ok := idx.Get("Team A")
	assert.True(t, ok)
}
