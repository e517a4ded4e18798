package api

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/service"
)

type Posts interface {
	GetAll(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, input service.IDInput) (*models.Post, error)
	Create(ctx context.Context, input service.CreatePostInput) (*models.Post, error)
	Update(ctx context.Context, input service.UpdatePostInput) (*models.Post, error)
	Delete(ctx context.Context, input service.IDInput) (*models.Post, error)
}

type Categories interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, input service.IDInput) (*models.Category, error)
	Create(ctx context.Context, input service.CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, input service.UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, input service.IDInput) (*models.Category, error)
}

type PostCategories interface {
	FilterByCategory(ctx context.Context, input service.IDInput) ([]models.PostSummary, error)
	EachPostCategory(ctx context.Context, input service.IDInput) ([]models.PostCategoryTag, error)
}

type procedureKind int

const (
	kindQuery procedureKind = iota
	kindMutation
)

type procedure struct {
	kind procedureKind
	call func(ctx context.Context, input json.RawMessage) (any, error)
}

func decodeInput[In any](raw json.RawMessage) (In, error) {
	var input In
	if len(raw) == 0 {
		return input, apperr.BadRequest("input is required", nil)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, apperr.BadRequest("invalid input", err)
	}
	return input, nil
}

func withInput[In, Out any](kind procedureKind, fn func(context.Context, In) (Out, error)) procedure {
	return procedure{
		kind: kind,
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			input, err := decodeInput[In](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, input)
		},
	}
}

func withoutInput[Out any](fn func(context.Context) (Out, error)) procedure {
	return procedure{
		kind: kindQuery,
		call: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return fn(ctx)
		},
	}
}

// Router maps procedure names such as "post.getall" to their implementation.
type Router struct {
	procedures map[string]procedure
}

func NewRouter(posts Posts, categories Categories, postCategories PostCategories) *Router {
	return &Router{procedures: map[string]procedure{
		"post.getall":         withoutInput(posts.GetAll),
		"post.getPostById":    withInput(kindQuery, posts.GetByID),
		"post.createPost":     withInput(kindMutation, posts.Create),
		"post.updatePostById": withInput(kindMutation, posts.Update),
		"post.deletePostById": withInput(kindMutation, posts.Delete),

		"category.getall":             withoutInput(categories.GetAll),
		"category.getCategoryById":    withInput(kindQuery, categories.GetByID),
		"category.createCategory":     withInput(kindMutation, categories.Create),
		"category.updateCategoryById": withInput(kindMutation, categories.Update),
		"category.deleteCategoryById": withInput(kindMutation, categories.Delete),

		"postCategories.filterByCategory": withInput(kindQuery, postCategories.FilterByCategory),
		"postCategories.eachPostCategory": withInput(kindQuery, postCategories.EachPostCategory),
	}}
}

func (r *Router) lookup(name string) (procedure, bool) {
	p, ok := r.procedures[name]
	return p, ok
}

// Names lists the registered procedures in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
