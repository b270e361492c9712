package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantor-labs/repliq/internal/domain"
)

func TestStoreRecordAndRecent(t *testing.T) {
	t.Run("returns turns oldest first", func(t *testing.T) {
		store := NewStore(20, time.Hour)
		store.Record("s1", domain.Turn{Question: "first"})
		store.Record("s1", domain.Turn{Question: "second"})

		turns := store.Recent("s1", 10)
		require.Len(t, turns, 2)
		assert.Equal(t, "first", turns[0].Question)
		assert.Equal(t, "second", turns[1].Question)
	})

	t.Run("limits the returned window", func(t *testing.T) {
		store := NewStore(20, time.Hour)
		for i := 0; i < 5; i++ {
			store.Record("s1", domain.Turn{Question: fmt.Sprintf("q%d", i)})
		}

		turns := store.Recent("s1", 2)
		require.Len(t, turns, 2)
		assert.Equal(t, "q3", turns[0].Question)
		assert.Equal(t, "q4", turns[1].Question)
	})

	t.Run("caps stored turns per session", func(t *testing.T) {
		store := NewStore(3, time.Hour)
		for i := 0; i < 6; i++ {
			store.Record("s1", domain.Turn{Question: fmt.Sprintf("q%d", i)})
		}

		turns := store.Recent("s1", 10)
		require.Len(t, turns, 3)
		assert.Equal(t, "q3", turns[0].Question)
	})

	t.Run("blank session id is ignored", func(t *testing.T) {
		store := NewStore(20, time.Hour)
		store.Record("", domain.Turn{Question: "lost"})
		assert.Zero(t, store.Len())
	})

	t.Run("unknown session yields nothing", func(t *testing.T) {
		store := NewStore(20, time.Hour)
		assert.Nil(t, store.Recent("missing", 5))
	})
}

func TestStoreIntents(t *testing.T) {
	store := NewStore(20, time.Hour)
	store.Record("s1", domain.Turn{Question: "a", Intent: "billing_question"})
	store.Record("s1", domain.Turn{Question: "b"})
	store.Record("s1", domain.Turn{Question: "c", Intent: "shipping_status"})
	store.Record("s1", domain.Turn{Question: "d", Intent: "billing_question"})

	intents := store.Intents("s1")
	assert.Equal(t, []string{"billing_question", "shipping_status"}, intents)
}

func TestStoreSweep(t *testing.T) {
	store := NewStore(20, time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	store.Record("active", domain.Turn{Question: "q"})
	store.now = func() time.Time { return base.Add(-5 * time.Minute) }
	store.Record("idle", domain.Turn{Question: "q"})

	store.now = func() time.Time { return base }
	removed := store.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
	assert.NotNil(t, store.Recent("active", 1))
	assert.Nil(t, store.Recent("idle", 1))
}
