// Package draft persists unpublished post drafts on the local machine.
//
// Drafts live behind the Store interface so callers receive a store rather
// than reaching for shared state. Two implementations exist: SQLiteStore keeps
// drafts in a single local database file, MemoryStore keeps them for the life
// of the process. Neither synchronizes across machines or sessions.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("draft not found")

// Values mirrors the fields of the post form.
type Values struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Author     string  `json:"author,omitempty"`
	Categories []int64 `json:"categories"`
	Published  bool    `json:"published"`
}

type Record struct {
	Key     string    `json:"key"`
	Values  Values    `json:"values"`
	SavedAt time.Time `json:"savedAt"`
}

type Store interface {
	// Save replaces any draft stored under key.
	Save(ctx context.Context, key string, values Values) (Record, error)
	Get(ctx context.Context, key string) (Record, error)
	// List returns every draft, most recently saved first.
	List(ctx context.Context) ([]Record, error)
	Latest(ctx context.Context) (Record, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

const NewPostKey = "draft-new"

// PostKey is the key of the draft for edits to an existing post.
func PostKey(postID int64) string {
	return fmt.Sprintf("draft-post-%d", postID)
}

// ParsePostKey returns the post ID of a key made by PostKey.
func ParsePostKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "draft-post-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
