package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminally-online/typewriter/internal/apperr"
	"github.com/terminally-online/typewriter/internal/models"
)

func newTestHandler(t *testing.T, blog *fakeBlog, db Pinger) (*Handler, *QueryCache) {
	t.Helper()
	cache := NewQueryCache(time.Minute, 100)
	t.Cleanup(cache.Close)
	return NewHandler(blog.router(), cache, db, 5*time.Second, nil), cache
}

func query(t *testing.T, h http.Handler, name, input string) *httptest.ResponseRecorder {
	t.Helper()
	target := "/trpc/" + name
	if input != "" {
		target += "?input=" + url.QueryEscape(input)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func mutate(t *testing.T, h http.Handler, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/trpc/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env ResultEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Result.Data, &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestHandler_PostLifecycle(t *testing.T) {
	blog := newFakeBlog()
	h, _ := newTestHandler(t, blog, nil)

	rec := mutate(t, h, "post.createPost", `{"title":"Hello","content":"World","categoryIds":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeData[models.Post](t, rec)
	assert.Equal(t, "Hello", created.Title)
	assert.Equal(t, "Anonymous", created.Author)
	assert.False(t, created.Published)

	rec = query(t, h, "post.getPostById", `{"id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeData[models.Post](t, rec))

	rec = mutate(t, h, "post.updatePostById", `{"id":1,"title":"Hello again"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello again", decodeData[models.Post](t, rec).Title)

	rec = mutate(t, h, "post.deletePostById", `{"id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = query(t, h, "post.getall", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]models.Post](t, rec))
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		procedure  string
		body       string
		wantStatus int
		wantCode   apperr.Code
	}{
		{
			name:       "unknown procedure",
			method:     http.MethodGet,
			procedure:  "post.nope",
			wantStatus: http.StatusNotFound,
			wantCode:   apperr.CodeNotFound,
		},
		{
			name:       "missing post",
			method:     http.MethodGet,
			procedure:  "post.getPostById",
			body:       `{"id":42}`,
			wantStatus: http.StatusNotFound,
			wantCode:   apperr.CodeNotFound,
		},
		{
			name:       "missing input",
			method:     http.MethodGet,
			procedure:  "post.getPostById",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeBadRequest,
		},
		{
			name:       "malformed input",
			method:     http.MethodPost,
			procedure:  "category.createCategory",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeBadRequest,
		},
		{
			name:       "validation failure",
			method:     http.MethodPost,
			procedure:  "post.createPost",
			body:       `{"title":"a","content":"","categoryIds":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeBadRequest,
		},
		{
			name:       "mutation over GET",
			method:     http.MethodGet,
			procedure:  "post.deletePostById",
			body:       `{"id":1}`,
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   apperr.CodeMethodNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, newFakeBlog(), nil)

			var rec *httptest.ResponseRecorder
			if tt.method == http.MethodGet {
				rec = query(t, h, tt.procedure, tt.body)
			} else {
				rec = mutate(t, h, tt.procedure, tt.body)
			}

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantStatus, body.HTTPStatus)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHandler_InternalErrorHidesCause(t *testing.T) {
	blog := newFakeBlog()
	blog.failWith = apperr.Internal("Failed to fetch all posts", errors.New("connection refused"))
	h, _ := newTestHandler(t, blog, nil)

	rec := query(t, h, "post.getall", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, apperr.CodeInternal, body.Code)
	assert.Equal(t, "Failed to fetch all posts", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandler_QueryCache(t *testing.T) {
	blog := newFakeBlog()
	h, cache := newTestHandler(t, blog, nil)

	rec := query(t, h, "category.getall", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = query(t, h, "category.getall", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, blog.callCount("category.getall"))
	assert.Equal(t, 1, cache.Size())

	rec = mutate(t, h, "category.createCategory", `{"title":"Tech","slug":"tech","description":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, cache.Size())

	rec = query(t, h, "category.getall", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Len(t, decodeData[[]models.Category](t, rec), 1)
	assert.Equal(t, 2, blog.callCount("category.getall"))
}

func TestHandler_QueryCacheDropsResultReadBeforeMutation(t *testing.T) {
	blog := newFakeBlog()
	h, cache := newTestHandler(t, blog, nil)

	read := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	blog.afterRead = func(name string) {
		once.Do(func() {
			close(read)
			<-release
		})
	}

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- query(t, h, "post.getall", "") }()

	<-read
	rec := mutate(t, h, "post.createPost", `{"title":"Fresh","content":"x","categoryIds":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	close(release)

	stale := <-done
	assert.Equal(t, "MISS", stale.Header().Get("X-Cache"))
	assert.Empty(t, decodeData[[]models.Post](t, stale))
	assert.Zero(t, cache.Size())

	rec = query(t, h, "post.getall", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Len(t, decodeData[[]models.Post](t, rec), 1)
}

func TestHandler_QueryCacheKeyedByInput(t *testing.T) {
	blog := newFakeBlog()
	h, _ := newTestHandler(t, blog, nil)

	query(t, h, "postCategories.eachPostCategory", `{"id":1}`)
	rec := query(t, h, "postCategories.eachPostCategory", `{"id":2}`)

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, blog.callCount("postCategories.eachPostCategory"))
}

func TestHandler_QueryOverPOST(t *testing.T) {
	blog := newFakeBlog()
	h, _ := newTestHandler(t, blog, nil)

	rec := mutate(t, h, "postCategories.filterByCategory", `{"id":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{"data":[]}}`, rec.Body.String())
}

func TestHandler_FilterAndTags(t *testing.T) {
	blog := newFakeBlog()
	h, _ := newTestHandler(t, blog, nil)

	rec := mutate(t, h, "category.createCategory", `{"title":"Tech","slug":"tech","description":""}`)
	tech := decodeData[models.Category](t, rec)
	rec = mutate(t, h, "post.createPost", `{"title":"Hi","content":"x","categoryIds":[`+jsonInt(tech.ID)+`]}`)
	post := decodeData[models.Post](t, rec)

	rec = query(t, h, "postCategories.filterByCategory", `{"id":`+jsonInt(tech.ID)+`}`)
	summaries := decodeData[[]models.PostSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, post.ID, summaries[0].PostID)
	assert.Equal(t, "Hi", summaries[0].Title)

	rec = query(t, h, "postCategories.eachPostCategory", `{"id":`+jsonInt(post.ID)+`}`)
	assert.Equal(t,
		[]models.PostCategoryTag{{PostID: post.ID, CategoryID: tech.ID, CategoryTitle: "Tech"}},
		decodeData[[]models.PostCategoryTag](t, rec))
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h, _ := newTestHandler(t, newFakeBlog(), fakePinger{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, HealthResponse{Status: "ok", CacheSize: 0, Database: "ok"}, resp)
	})

	t.Run("database down", func(t *testing.T) {
		h, _ := newTestHandler(t, newFakeBlog(), fakePinger{err: errors.New("dial tcp: refused")})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "dial tcp: refused", resp.Database)
	})
}

func TestRouter_Names(t *testing.T) {
	names := newFakeBlog().router().Names()

	assert.Equal(t, []string{
		"category.createCategory",
		"category.deleteCategoryById",
		"category.getCategoryById",
		"category.getall",
		"category.updateCategoryById",
		"post.createPost",
		"post.deletePostById",
		"post.getPostById",
		"post.getall",
		"post.updatePostById",
		"postCategories.eachPostCategory",
		"postCategories.filterByCategory",
	}, names)
}
