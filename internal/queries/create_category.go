package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

type CreateCategoryParams struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

const create_categorySQL = `
INSERT INTO categories (title, slug, description)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns + `;`

func (q *Queries) CreateCategory(ctx context.Context, params CreateCategoryParams) (*models.Category, error) {
	row := q.db.QueryRow(ctx, create_categorySQL, params.Title, params.Slug, params.Description)
	return scanCategory(row)
}
