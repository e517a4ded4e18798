package queries

import (
	"context"
)

const get_post_slugsSQL = `
SELECT slug
FROM post
WHERE slug = $1 OR slug LIKE $1 || '-%';`

// GetPostSlugs returns base and every slug of the form base-suffix.
func (q *Queries) GetPostSlugs(ctx context.Context, base string) ([]string, error) {
	rows, err := q.db.Query(ctx, get_post_slugsSQL, base)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
