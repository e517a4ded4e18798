package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const filter_posts_by_categorySQL = `
SELECT p.id, p.title, p.content, p.created_at
FROM post_categories pc
INNER JOIN post p ON pc.post_id = p.id
WHERE pc.category_id = $1;`

func (q *Queries) FilterPostsByCategory(ctx context.Context, categoryID int64) ([]models.PostSummary, error) {
	rows, err := q.db.Query(ctx, filter_posts_by_categorySQL, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.PostSummary, 0)
	for rows.Next() {
		var item models.PostSummary
		if err := rows.Scan(&item.PostID, &item.Title, &item.Content, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
