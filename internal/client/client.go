// Package client calls Typewriter procedures over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
	"github.com/terminally-online/typewriter/internal/service"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *struct {
		Code       apperr.Code `json:"code"`
		Message    string      `json:"message"`
		HTTPStatus int         `json:"httpStatus"`
	} `json:"error"`
}

// call issues a query as GET and a mutation as POST, and decodes the result
// envelope into Out. A remote failure comes back as *apperr.Error.
func call[Out any](ctx context.Context, c *Client, mutation bool, procedure string, input any) (Out, error) {
	var out Out

	var body []byte
	if input != nil {
		var err error
		body, err = json.Marshal(input)
		if err != nil {
			return out, fmt.Errorf("failed to marshal input: %w", err)
		}
	}

	endpoint := c.baseURL + "/trpc/" + procedure
	var req *http.Request
	var err error
	if mutation {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		if body != nil {
			endpoint += "?input=" + url.QueryEscape(string(body))
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("%s request failed: %w", procedure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, fmt.Errorf("%s returned status %d: %s", procedure, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if env.Error != nil {
		return out, apperr.New(env.Error.Code, env.Error.Message)
	}
	if env.Result == nil {
		return out, fmt.Errorf("%s returned status %d without a result", procedure, resp.StatusCode)
	}
	if err := json.Unmarshal(env.Result.Data, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s result: %w", procedure, err)
	}
	return out, nil
}

func (c *Client) Posts(ctx context.Context) ([]models.Post, error) {
	return call[[]models.Post](ctx, c, false, "post.getall", nil)
}

func (c *Client) Post(ctx context.Context, id int64) (*models.Post, error) {
	return call[*models.Post](ctx, c, false, "post.getPostById", service.IDInput{ID: id})
}

func (c *Client) CreatePost(ctx context.Context, input service.CreatePostInput) (*models.Post, error) {
	if input.CategoryIDs == nil {
		input.CategoryIDs = []int64{}
	}
	return call[*models.Post](ctx, c, true, "post.createPost", input)
}

func (c *Client) UpdatePost(ctx context.Context, input service.UpdatePostInput) (*models.Post, error) {
	return call[*models.Post](ctx, c, true, "post.updatePostById", input)
}

func (c *Client) DeletePost(ctx context.Context, id int64) (*models.Post, error) {
	return call[*models.Post](ctx, c, true, "post.deletePostById", service.IDInput{ID: id})
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return call[[]models.Category](ctx, c, false, "category.getall", nil)
}

func (c *Client) Category(ctx context.Context, id int64) (*models.Category, error) {
	return call[*models.Category](ctx, c, false, "category.getCategoryById", service.IDInput{ID: id})
}

func (c *Client) CreateCategory(ctx context.Context, input service.CreateCategoryInput) (*models.Category, error) {
	return call[*models.Category](ctx, c, true, "category.createCategory", input)
}

func (c *Client) UpdateCategory(ctx context.Context, input service.UpdateCategoryInput) (*models.Category, error) {
	return call[*models.Category](ctx, c, true, "category.updateCategoryById", input)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) (*models.Category, error) {
	return call[*models.Category](ctx, c, true, "category.deleteCategoryById", service.IDInput{ID: id})
}

// PostsByCategory lists the posts tagged with the category.
func (c *Client) PostsByCategory(ctx context.Context, categoryID int64) ([]models.PostSummary, error) {
	return call[[]models.PostSummary](ctx, c, false, "postCategories.filterByCategory", service.IDInput{ID: categoryID})
}

// PostCategories lists the categories the post is tagged with.
func (c *Client) PostCategories(ctx context.Context, postID int64) ([]models.PostCategoryTag, error) {
	return call[[]models.PostCategoryTag](ctx, c, false, "postCategories.eachPostCategory", service.IDInput{ID: postID})
}
