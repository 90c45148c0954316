package idx

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesSortableIDs(t *testing.T) {
	ids := make([]string, 0, 100)
	for range 100 {
		ids = append(ids, New().String())
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	require.Equal(t, sorted, ids, "ids generated in sequence must sort in order")

	seen := map[string]bool{}
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestParse(t *testing.T) {
	id := New()

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = Parse("definitely-not-a-ulid")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestIDTime(t *testing.T) {
	now := time.Now()
	id := NewAt(now)
	require.WithinDuration(t, now, id.Time(), time.Second)
}

func TestIsZero(t *testing.T) {
	var zero ID
	require.True(t, zero.IsZero())
	require.False(t, New().IsZero())
}
