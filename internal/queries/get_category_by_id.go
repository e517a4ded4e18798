package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const get_category_by_idSQL = `
SELECT ` + categoryColumns + `
FROM categories
WHERE id = $1;`

func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(q.db.QueryRow(ctx, get_category_by_idSQL, id))
}
