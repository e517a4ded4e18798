package queries

import (
	"context"

	"github.com/terminally-online/typewriter/internal/models"
)

const delete_postSQL = `
DELETE FROM post
WHERE id = $1
RETURNING ` + postColumns + `;`

func (q *Queries) DeletePost(ctx context.Context, id int64) (*models.Post, error) {
	return scanPost(q.db.QueryRow(ctx, delete_postSQL, id))
}
