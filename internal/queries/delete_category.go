package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const delete_categorySQL = `
DELETE FROM categories
WHERE id = $1
RETURNING ` + categoryColumns + `;`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(q.db.QueryRow(ctx, delete_categorySQL, id))
}
