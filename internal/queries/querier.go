// Package queries holds the SQL statements behind the post, category and
// post_categories tables. Every method runs on a Querier so the same code works
// against a pool, a single connection or a transaction.
package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/terminally-online/typewriter/internal/models"
)

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db Querier
}

func New(db Querier) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const postColumns = `id, title, content, slug, author, published, created_at, updated_at`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Slug, &p.Author, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const categoryColumns = `id, title, slug, description`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
