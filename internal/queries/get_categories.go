package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const get_categoriesSQL = `
SELECT ` + categoryColumns + `
FROM categories
ORDER BY id;`

func (q *Queries) GetCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := q.db.Query(ctx, get_categoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Category, 0)
	for rows.Next() {
		item, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
