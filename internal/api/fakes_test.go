package api

import (
	"context"
	"sync"
	"time"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/service"
)

// fakeBlog keeps posts and categories in memory for transport tests.
type fakeBlog struct {
	mu         sync.Mutex
	posts      map[int64]models.Post
	categories map[int64]models.Category
	tags       map[int64][]int64
	nextID     int64
	calls      map[string]int
	failWith   error

	// afterRead, when set, runs once a query has read its rows and released
	// the lock.
	afterRead func(name string)
}

func newFakeBlog() *fakeBlog {
	return &fakeBlog{
		posts:      make(map[int64]models.Post),
		categories: make(map[int64]models.Category),
		tags:       make(map[int64][]int64),
		calls:      make(map[string]int),
	}
}

func (f *fakeBlog) record(name string) error {
	f.calls[name]++
	return f.failWith
}

type fakePosts struct{ *fakeBlog }
type fakeCategories struct{ *fakeBlog }
type fakePostCategories struct{ *fakeBlog }

func (f fakePosts) GetAll(ctx context.Context) ([]models.Post, error) {
	f.mu.Lock()
	if err := f.record("post.getall"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	out := make([]models.Post, 0, len(f.posts))
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	hook := f.afterRead
	f.mu.Unlock()

	if hook != nil {
		hook("post.getall")
	}
	return out, nil
}

func (f fakePosts) GetByID(ctx context.Context, in service.IDInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("post.getPostById"); err != nil {
		return nil, err
	}
	p, ok := f.posts[in.ID]
	if !ok {
		return nil, apperr.NotFound("No post found")
	}
	return &p, nil
}

func (f fakePosts) Create(ctx context.Context, in service.CreatePostInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("post.createPost"); err != nil {
		return nil, err
	}
	if len(in.Title) < 2 {
		return nil, apperr.BadRequest("title must contain at least 2 character(s)", nil)
	}
	f.nextID++
	author := service.DefaultAuthor
	if in.Author != nil && *in.Author != "" {
		author = *in.Author
	}
	p := models.Post{
		ID:        f.nextID,
		Title:     in.Title,
		Content:   in.Content,
		Slug:      "post-" + in.Title,
		Author:    author,
		Published: in.Published != nil && *in.Published,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.posts[p.ID] = p
	f.tags[p.ID] = append([]int64(nil), in.CategoryIDs...)
	return &p, nil
}

func (f fakePosts) Update(ctx context.Context, in service.UpdatePostInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("post.updatePostById"); err != nil {
		return nil, err
	}
	p, ok := f.posts[in.ID]
	if !ok {
		return nil, apperr.NotFound("Post not found")
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.CategoryIDs != nil {
		f.tags[p.ID] = append([]int64(nil), (*in.CategoryIDs)...)
	}
	f.posts[p.ID] = p
	return &p, nil
}

func (f fakePosts) Delete(ctx context.Context, in service.IDInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("post.deletePostById"); err != nil {
		return nil, err
	}
	p, ok := f.posts[in.ID]
	if !ok {
		return nil, apperr.NotFound("No post found to delete.")
	}
	delete(f.posts, in.ID)
	delete(f.tags, in.ID)
	return &p, nil
}

func (f fakeCategories) GetAll(ctx context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("category.getall"); err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(f.categories))
	for id := int64(1); id <= f.nextID; id++ {
		if c, ok := f.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCategories) GetByID(ctx context.Context, in service.IDInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("category.getCategoryById"); err != nil {
		return nil, err
	}
	c, ok := f.categories[in.ID]
	if !ok {
		return nil, apperr.NotFound("No category found")
	}
	return &c, nil
}

func (f fakeCategories) Create(ctx context.Context, in service.CreateCategoryInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("category.createCategory"); err != nil {
		return nil, err
	}
	f.nextID++
	c := models.Category{ID: f.nextID, Title: in.Title, Slug: in.Slug, Description: in.Description}
	f.categories[c.ID] = c
	return &c, nil
}

func (f fakeCategories) Update(ctx context.Context, in service.UpdateCategoryInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("category.updateCategoryById"); err != nil {
		return nil, err
	}
	c, ok := f.categories[in.ID]
	if !ok {
		return nil, apperr.NotFound("No category found to update.")
	}
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Slug != nil {
		c.Slug = *in.Slug
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	f.categories[c.ID] = c
	return &c, nil
}

func (f fakeCategories) Delete(ctx context.Context, in service.IDInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("category.deleteCategoryById"); err != nil {
		return nil, err
	}
	c, ok := f.categories[in.ID]
	if !ok {
		return nil, apperr.NotFound("No category found to delete.")
	}
	delete(f.categories, in.ID)
	for postID, ids := range f.tags {
		kept := ids[:0]
		for _, id := range ids {
			if id != in.ID {
				kept = append(kept, id)
			}
		}
		f.tags[postID] = kept
	}
	return &c, nil
}

func (f fakePostCategories) FilterByCategory(ctx context.Context, in service.IDInput) ([]models.PostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("postCategories.filterByCategory"); err != nil {
		return nil, err
	}
	out := make([]models.PostSummary, 0)
	for id := int64(1); id <= f.nextID; id++ {
		for _, categoryID := range f.tags[id] {
			if categoryID == in.ID {
				p := f.posts[id]
				out = append(out, models.PostSummary{PostID: p.ID, Title: p.Title, Content: p.Content, CreatedAt: p.CreatedAt})
			}
		}
	}
	return out, nil
}

func (f fakePostCategories) EachPostCategory(ctx context.Context, in service.IDInput) ([]models.PostCategoryTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("postCategories.eachPostCategory"); err != nil {
		return nil, err
	}
	out := make([]models.PostCategoryTag, 0)
	for _, categoryID := range f.tags[in.ID] {
		out = append(out, models.PostCategoryTag{PostID: in.ID, CategoryID: categoryID, CategoryTitle: f.categories[categoryID].Title})
	}
	return out, nil
}

func (f *fakeBlog) router() *Router {
	return NewRouter(fakePosts{f}, fakeCategories{f}, fakePostCategories{f})
}

func (f *fakeBlog) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
