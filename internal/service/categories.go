package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/queries"
)

type CreateCategoryInput struct {
	Title       string `json:"title" validate:"min=2,max=50"`
	Slug        string `json:"slug" validate:"min=2,max=50"`
	Description string `json:"description"`
}

type UpdateCategoryInput struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty" validate:"omitnil,min=2,max=50"`
	Slug        *string `json:"slug,omitempty" validate:"omitnil,min=2,max=50"`
	Description *string `json:"description,omitempty"`
}

type CategoryService struct {
	q   *queries.Queries
	log *zap.Logger
}

func (s *CategoryService) GetAll(ctx context.Context) ([]models.Category, error) {
	categories, err := s.q.GetCategories(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch all categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetByID(ctx context.Context, input IDInput) (*models.Category, error) {
	category, err := s.q.GetCategoryByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No category found")
		}
		return nil, apperr.Internal("Failed to fetch category", err)
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	category, err := s.q.CreateCategory(ctx, queries.CreateCategoryParams{
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	})
	if err != nil {
		return nil, apperr.Internal("Failed to create category", err)
	}

	s.log.Debug("created category", zap.Int64("category_id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, input UpdateCategoryInput) (*models.Category, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	category, err := s.q.UpdateCategory(ctx, queries.UpdateCategoryParams{
		ID:          input.ID,
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No category found to update.")
		}
		return nil, apperr.Internal("Failed to update category", err)
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, input IDInput) (*models.Category, error) {
	category, err := s.q.DeleteCategory(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("No category found to delete.")
		}
		return nil, apperr.Internal("Failed to delete category", err)
	}
	return category, nil
}
