package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/queries"
)

const DefaultAuthor = "Anonymous"

type CreatePostInput struct {
	Title       string  `json:"title" validate:"min=2,max=50"`
	Content     string  `json:"content"`
	Published   *bool   `json:"published,omitempty"`
	Author      *string `json:"author,omitempty" validate:"omitnil,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitnil,min=2,max=50,slug"`
	CategoryIDs []int64 `json:"categoryIds" validate:"dive,gt=0"`
}

// UpdatePostInput merges the non-nil fields into the post. A nil CategoryIDs
// keeps the current categories; a non-nil one, even empty, replaces them. An
// empty Author resets the author to DefaultAuthor, as on create.
type UpdatePostInput struct {
	ID          int64    `json:"id"`
	Title       *string  `json:"title,omitempty" validate:"omitnil,min=2,max=50"`
	Content     *string  `json:"content,omitempty"`
	Slug        *string  `json:"slug,omitempty" validate:"omitnil,min=2,max=50,slug"`
	Published   *bool    `json:"published,omitempty"`
	Author      *string  `json:"author,omitempty" validate:"omitnil,max=100"`
	CategoryIDs *[]int64 `json:"categoryIds,omitempty" validate:"omitnil,dive,gt=0"`
}

type PostService struct {
	db  DB
	q   *queries.Queries
	log *zap.Logger
}

func (s *PostService) GetAll(ctx context.Context) ([]models.Post, error) {
	posts, err := s.q.GetPosts(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch all posts", err)
	}
	return posts, nil
}

func (s *PostService) GetByID(ctx context.Context, input IDInput) (*models.Post, error) {
	post, err := s.q.GetPostByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No post found")
		}
		return nil, apperr.Internal("Failed to fetch post", err)
	}
	return post, nil
}

func authorOrDefault(author *string) string {
	if author == nil || strings.TrimSpace(*author) == "" {
		return DefaultAuthor
	}
	return *author
}

// Create inserts the post and its category rows in one transaction. The slug
// is derived from the title unless one is given.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	params := queries.CreatePostParams{
		Title:   input.Title,
		Content: input.Content,
		Author:  authorOrDefault(input.Author),
	}
	if input.Published != nil {
		params.Published = *input.Published
	}

	var (
		created *models.Post
		linked  int
	)
	err := inTx(ctx, s.db, s.q, func(q *queries.Queries) error {
		if input.Slug != nil {
			params.Slug = *input.Slug
		} else {
			allocated, err := allocateSlug(ctx, q, input.Title)
			if err != nil {
				return err
			}
			params.Slug = allocated
		}

		post, err := q.CreatePost(ctx, params)
		if err != nil {
			return err
		}

		links, err := q.CreatePostCategories(ctx, post.ID, input.CategoryIDs)
		if err != nil {
			return err
		}

		created = post
		linked = len(links)
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("Failed to create post", err)
	}

	s.log.Debug("created post",
		zap.Int64("post_id", created.ID),
		zap.String("slug", created.Slug),
		zap.Int("categories", linked))

	return created, nil
}

// Update applies the scalar changes and, when CategoryIDs is set, swaps the
// post's category rows for the new set. Everything happens in one transaction;
// a missing post aborts it before the join table is touched.
func (s *PostService) Update(ctx context.Context, input UpdatePostInput) (*models.Post, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	author := input.Author
	if author != nil {
		a := authorOrDefault(author)
		author = &a
	}

	var (
		updated *models.Post
		removed int64
		added   []models.PostCategory
	)
	err := inTx(ctx, s.db, s.q, func(q *queries.Queries) error {
		post, err := q.UpdatePost(ctx, queries.UpdatePostParams{
			ID:        input.ID,
			Title:     input.Title,
			Content:   input.Content,
			Slug:      input.Slug,
			Author:    author,
			Published: input.Published,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("Post not found")
			}
			return err
		}

		if input.CategoryIDs != nil {
			if removed, err = q.DeletePostCategories(ctx, input.ID); err != nil {
				return err
			}
			if added, err = q.CreatePostCategories(ctx, input.ID, *input.CategoryIDs); err != nil {
				return err
			}
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update post")
	}

	if input.CategoryIDs != nil {
		s.log.Debug("replaced post categories",
			zap.Int64("post_id", updated.ID),
			zap.Int64("removed", removed),
			zap.Int("added", len(added)))
	}

	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, input IDInput) (*models.Post, error) {
	post, err := s.q.DeletePost(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No post found to delete.")
		}
		return nil, apperr.Internal("Failed to delete post", err)
	}
	return post, nil
}
