package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantor-labs/repliq/internal/domain"
)

func answerFor(text string) domain.AnswerResult {
	return domain.AnswerResult{Answer: text}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"lowercases", "Where Is My Order", "where is my order"},
		{"trims", "  hello  ", "hello"},
		{"interior whitespace kept", "a  b", "a  b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.query))
		})
	}
}

func TestResponseCacheGetSet(t *testing.T) {
	t.Run("set then get returns the value", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		c.Set("where is my order", answerFor("on its way"))

		got, ok := c.Get("where is my order")
		require.True(t, ok)
		assert.Equal(t, "on its way", got.Answer)
	})

	t.Run("keys are case folded and trimmed", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		c.Set("Where Is My Order", answerFor("on its way"))

		got, ok := c.Get("  where is my order ")
		require.True(t, ok)
		assert.Equal(t, "on its way", got.Answer)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		_, ok := c.Get("never stored")
		assert.False(t, ok)
	})

	t.Run("set overwrites prior entry", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		c.Set("q", answerFor("old"))
		c.Set("q", answerFor("new"))

		got, ok := c.Get("q")
		require.True(t, ok)
		assert.Equal(t, "new", got.Answer)
		assert.Equal(t, 1, c.Len())
	})
}

func TestResponseCacheExpiry(t *testing.T) {
	t.Run("entry expires after the ttl", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		base := time.Now()
		c.now = func() time.Time { return base }

		c.Set("q", answerFor("a"))

		c.now = func() time.Time { return base.Add(59 * time.Second) }
		_, ok := c.Get("q")
		assert.True(t, ok, "entry inside the ttl window must hit")

		c.now = func() time.Time { return base.Add(61 * time.Second) }
		_, ok = c.Get("q")
		assert.False(t, ok, "entry beyond the ttl must miss")
	})

	t.Run("expired entry is evicted on read", func(t *testing.T) {
		c := NewResponseCache(time.Minute)
		base := time.Now()
		c.now = func() time.Time { return base }

		c.Set("q", answerFor("a"))
		c.now = func() time.Time { return base.Add(2 * time.Minute) }

		c.Get("q")
		assert.Zero(t, c.Len())
	})
}

func TestResponseCacheSweep(t *testing.T) {
	c := NewResponseCache(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("fresh", answerFor("a"))
	c.now = func() time.Time { return base.Add(-2 * time.Minute) }
	c.Set("stale one", answerFor("b"))
	c.Set("stale two", answerFor("c"))

	c.now = func() time.Time { return base }
	removed := c.Sweep()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestResponseCachePurge(t *testing.T) {
	c := NewResponseCache(time.Minute)
	c.Set("a", answerFor("1"))
	c.Set("b", answerFor("2"))
	require.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}
