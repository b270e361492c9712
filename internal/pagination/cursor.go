package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Cursor represents a decoded pagination cursor over the in-memory knowledge
// list: the offset to resume from and the load timestamp of the snapshot the
// offset belongs to.
type Cursor struct {
	Offset   int
	LoadedAt time.Time
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
	// ErrStaleCursor is returned when the cursor was minted against a
	// knowledge snapshot that has since been reloaded
	ErrStaleCursor = errors.New("cursor is stale, the knowledge base was reloaded")
)

// EncodeCursor creates a base64-encoded cursor from an offset and the
// snapshot load time
func EncodeCursor(offset int, loadedAt time.Time) string {
	if offset <= 0 {
		return ""
	}
	raw := strconv.Itoa(offset) + "|" + loadedAt.UTC().Format(time.RFC3339Nano)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a base64-encoded cursor. An empty cursor decodes to
// nil, meaning the first page.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return nil, ErrInvalidCursor
	}

	loadedAt, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		Offset:   offset,
		LoadedAt: loadedAt,
	}, nil
}

// Resolve validates a decoded cursor against the current snapshot load time
// and returns the offset to resume from. A nil cursor starts at zero.
func (c *Cursor) Resolve(loadedAt time.Time) (int, error) {
	if c == nil {
		return 0, nil
	}
	if !c.LoadedAt.Equal(loadedAt.UTC()) {
		return 0, ErrStaleCursor
	}
	return c.Offset, nil
}

// NextCursor creates a cursor for the next page. Returns empty string when
// the page reached the end of the list.
func NextCursor(nextOffset, total int, loadedAt time.Time) string {
	if nextOffset >= total {
		return ""
	}
	return EncodeCursor(nextOffset, loadedAt)
}
