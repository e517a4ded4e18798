package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

// UpdatePostParams leaves a column untouched when its field is nil.
type UpdatePostParams struct {
	ID        int64   `json:"id"`
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Slug      *string `json:"slug,omitempty"`
	Author    *string `json:"author,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

const update_postSQL = `
UPDATE post
SET title = COALESCE($2, title),
    content = COALESCE($3, content),
    slug = COALESCE($4, slug),
    author = COALESCE($5, author),
    published = COALESCE($6, published),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + postColumns + `;`

func (q *Queries) UpdatePost(ctx context.Context, params UpdatePostParams) (*models.Post, error) {
	row := q.db.QueryRow(ctx, update_postSQL, params.ID, params.Title, params.Content, params.Slug, params.Author, params.Published)
	return scanPost(row)
}
