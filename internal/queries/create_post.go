package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

type CreatePostParams struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Slug      string `json:"slug"`
	Author    string `json:"author"`
	Published bool   `json:"published"`
}

const create_postSQL = `
INSERT INTO post (title, content, slug, author, published)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + postColumns + `;`

func (q *Queries) CreatePost(ctx context.Context, params CreatePostParams) (*models.Post, error) {
	row := q.db.QueryRow(ctx, create_postSQL, params.Title, params.Content, params.Slug, params.Author, params.Published)
	return scanPost(row)
}
