package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

type UpdateCategoryParams struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

const update_categorySQL = `
UPDATE categories
SET title = COALESCE($2, title),
    slug = COALESCE($3, slug),
    description = COALESCE($4, description)
WHERE id = $1
RETURNING ` + categoryColumns + `;`

func (q *Queries) UpdateCategory(ctx context.Context, params UpdateCategoryParams) (*models.Category, error) {
	row := q.db.QueryRow(ctx, update_categorySQL, params.ID, params.Title, params.Slug, params.Description)
	return scanCategory(row)
}
