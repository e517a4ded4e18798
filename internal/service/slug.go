package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/terminally-online/typewriter/internal/queries"
)

const (
	maxSlugBase  = 44
	fallbackSlug = "post"
)

// baseSlug derives the slug prefix for a title, short enough to take a
// numeric suffix without exceeding the column width.
func baseSlug(title string) string {
	s := slug.Make(title)
	if len(s) > maxSlugBase {
		s = strings.TrimRight(s[:maxSlugBase], "-")
	}
	if len(s) < 2 {
		return fallbackSlug
	}
	return s
}

// nextSlug returns base if it is free, otherwise the first free base-N with N >= 2.
func nextSlug(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

// allocateSlug picks a free slug for title. Concurrent allocations of the same
// base wait on each other, so q must be bound to a transaction.
func allocateSlug(ctx context.Context, q *queries.Queries, title string) (string, error) {
	base := baseSlug(title)
	if err := q.LockPostSlug(ctx, base); err != nil {
		return "", err
	}
	taken, err := q.GetPostSlugs(ctx, base)
	if err != nil {
		return "", err
	}
	return nextSlug(base, taken), nil
}
