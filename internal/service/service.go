// Package service implements the post, category and post/category procedures
// on top of the queries package. It owns input validation, default values,
// transactions and the mapping of storage failures onto apperr kinds.
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/queries"
)

// DB is satisfied by *pgxpool.Pool and *pgx.Conn.
type DB interface {
	queries.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	Posts          *PostService
	Categories     *CategoryService
	PostCategories *PostCategoryService
}

func New(db DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := queries.New(db)
	return &Service{
		Posts:          &PostService{db: db, q: q, log: logger.Named("posts")},
		Categories:     &CategoryService{q: q, log: logger.Named("categories")},
		PostCategories: &PostCategoryService{q: q},
	}
}

// IDInput is the input of every procedure that addresses a single row.
type IDInput struct {
	ID int64 `json:"id"`
}

func inTx(ctx context.Context, db DB, q *queries.Queries, fn func(*queries.Queries) error) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(q.WithTx(tx))
	})
}
