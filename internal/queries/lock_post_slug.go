package queries

import (
	"context"
)

const lock_post_slugSQL = `
SELECT pg_advisory_xact_lock(hashtext('post_slug:' || $1));`

// LockPostSlug serializes slug allocation for base until the surrounding
// transaction ends. It must run inside a transaction.
func (q *Queries) LockPostSlug(ctx context.Context, base string) error {
	_, err := q.db.Exec(ctx, lock_post_slugSQL, base)
	return err
}
