package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

// Duplicate ids collapse into one row.
const create_post_categoriesSQL = `
INSERT INTO post_categories (post_id, category_id)
SELECT $1, category_id
FROM unnest($2::bigint[]) AS category_id
ON CONFLICT DO NOTHING
RETURNING post_id, category_id;`

// CreatePostCategories returns the rows it inserted.
func (q *Queries) CreatePostCategories(ctx context.Context, postID int64, categoryIDs []int64) ([]models.PostCategory, error) {
	result := make([]models.PostCategory, 0, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return result, nil
	}

	rows, err := q.db.Query(ctx, create_post_categoriesSQL, postID, categoryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PostCategory
		if err := rows.Scan(&item.PostID, &item.CategoryID); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
