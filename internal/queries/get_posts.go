package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const get_postsSQL = `
SELECT ` + postColumns + `
FROM post
ORDER BY id;`

func (q *Queries) GetPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := q.db.Query(ctx, get_postsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Post, 0)
	for rows.Next() {
		item, err := scanPost(rows)
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
