package queries

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminally-online/typewriter/internal/migrate"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/testdb"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()

	dbURL := testdb.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := migrate.Up(ctx, dbURL, migrate.Embedded(), migrate.UpOptions{})
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return New(pool)
}

func TestQueries_Integration(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	post, err := q.CreatePost(ctx, CreatePostParams{Title: "Hello", Content: "x", Slug: "hello", Author: "Ada"})
	require.NoError(t, err)
	a, err := q.CreateCategory(ctx, CreateCategoryParams{Title: "A", Slug: "a"})
	require.NoError(t, err)
	b, err := q.CreateCategory(ctx, CreateCategoryParams{Title: "B", Slug: "b"})
	require.NoError(t, err)

	t.Run("create post categories returns inserted rows", func(t *testing.T) {
		links, err := q.CreatePostCategories(ctx, post.ID, []int64{a.ID, b.ID, a.ID})
		require.NoError(t, err)
		assert.ElementsMatch(t, []models.PostCategory{
			{PostID: post.ID, CategoryID: a.ID},
			{PostID: post.ID, CategoryID: b.ID},
		}, links)

		links, err = q.CreatePostCategories(ctx, post.ID, []int64{a.ID})
		require.NoError(t, err)
		assert.Empty(t, links, "existing pair is skipped")

		links, err = q.CreatePostCategories(ctx, post.ID, nil)
		require.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)
	})

	t.Run("ids beyond int4 are plain misses", func(t *testing.T) {
		_, err := q.GetPostByID(ctx, math.MaxInt32+1)
		assert.ErrorIs(t, err, pgx.ErrNoRows)

		_, err = q.GetCategoryByID(ctx, math.MaxInt32+1)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})
}
