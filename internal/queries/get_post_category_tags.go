package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const get_post_category_tagsSQL = `
SELECT pc.post_id, c.id, c.title
FROM post_categories pc
INNER JOIN categories c ON pc.category_id = c.id
WHERE pc.post_id = $1;`

func (q *Queries) GetPostCategoryTags(ctx context.Context, postID int64) ([]models.PostCategoryTag, error) {
	rows, err := q.db.Query(ctx, get_post_category_tagsSQL, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.PostCategoryTag, 0)
	for rows.Next() {
		var item models.PostCategoryTag
		if err := rows.Scan(&item.PostID, &item.CategoryID, &item.CategoryTitle); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
