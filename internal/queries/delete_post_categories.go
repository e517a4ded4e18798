package queries

import (
	"context"
)

const delete_post_categoriesSQL = `
DELETE FROM post_categories WHERE post_id = $1;`

func (q *Queries) DeletePostCategories(ctx context.Context, postID int64) (int64, error) {
	result, err := q.db.Exec(ctx, delete_post_categoriesSQL, postID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
