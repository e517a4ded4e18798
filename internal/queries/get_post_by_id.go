package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const get_post_by_idSQL = `
SELECT ` + postColumns + `
FROM post
WHERE id = $1;`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(q.db.QueryRow(ctx, get_post_by_idSQL, id))
}
