package service

import (
	"context"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/queries"
)

type PostCategoryService struct {
	q *queries.Queries
}

// FilterByCategory lists the posts tagged with the category in input.ID. An
// unknown or unused category yields an empty list.
func (s *PostCategoryService) FilterByCategory(ctx context.Context, input IDInput) ([]models.PostSummary, error) {
	posts, err := s.q.FilterPostsByCategory(ctx, input.ID)
	if err != nil {
		return nil, apperr.Internal("Failed to filter by category", err)
	}
	return posts, nil
}

// EachPostCategory lists the categories attached to the post in input.ID.
func (s *PostCategoryService) EachPostCategory(ctx context.Context, input IDInput) ([]models.PostCategoryTag, error) {
	tags, err := s.q.GetPostCategoryTags(ctx, input.ID)
	if err != nil {
		return nil, apperr.Internal("Failed to find post category", err)
	}
	return tags, nil
}
