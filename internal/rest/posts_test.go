package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/paper/api"
	"github.com/dfryer1193/paper/posting/domain"
	"github.com/dfryer1193/paper/posting/persistence"
	"github.com/dfryer1193/paper/shared/db/sqlite"
)

type testServer struct {
	engine *gin.Engine
	repo   domain.PostRepository
}

// newTestServer serves a freshly migrated database holding only the
// default category.
func newTestServer(t *testing.T) (*testServer, *sqlite.SQLiteDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	repo := persistence.NewPostRepository(database.DB())
	engine := gin.New()
	NewApi(engine, repo, database.Ping)

	return &testServer{engine: engine, repo: repo}, database
}

// setupTestServer adds a second category next to the default one.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	s, database := newTestServer(t)
	_, err := database.DB().Exec(`INSERT INTO categories (id, name) VALUES (2, 'go')`)
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, posts ...*domain.Post) {
	t.Helper()
	for _, p := range posts {
		_, err := s.repo.Save(context.Background(), p)
		require.NoError(t, err)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func activePost(title, url, user string, categoryID int64) *domain.Post {
	return &domain.Post{
		Title:    title,
		Content:  "Contenido",
		URL:      url,
		User:     user,
		Category: &domain.Category{ID: categoryID},
		Active:   true,
	}
}

func TestCreatePost(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/posts/v1/", api.PostProto{
		Title:      "Hello World",
		Content:    "Content on go",
		User:       "user-id",
		CategoryID: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	post := decode[api.Post](t, w)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "hello-world", post.URL, "url should be derived from the title")
	assert.True(t, post.Active)
	assert.Equal(t, int64(1), post.CategoryID)
}

func TestCreatePost_FreshDatabase(t *testing.T) {
	s, _ := newTestServer(t)

	w := s.do(t, http.MethodPost, "/posts/v1/", api.PostProto{
		Title:      "First post",
		Content:    "Nothing seeded by hand",
		User:       "user-id",
		CategoryID: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	post := decode[api.Post](t, w)
	assert.Equal(t, "first-post", post.URL)

	w = s.do(t, http.MethodGet, "/posts/v1/first-post", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "general", decode[api.Post](t, w).CategoryName)
}

func TestCreatePost_ValidationError(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/posts/v1/", api.PostProto{User: "user-id", CategoryID: 1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[api.Error](t, w)
	assert.Equal(t, []api.Violation{
		{Field: "title", Message: "Title is required."},
		{Field: "content", Message: "Content is required."},
	}, body.Violations)
}

func TestCreatePost_Conflict(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t, activePost("Hello world", "hello-world", "user-id", 1))

	w := s.do(t, http.MethodPost, "/posts/v1/", api.PostProto{
		Title:      "Hello world",
		Content:    "Again",
		URL:        "hello-world",
		User:       "user-id",
		CategoryID: 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/posts/v1/", api.PostProto{Title: "No category", Content: "Content", User: "user-id"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePost_MalformedBody(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/posts/v1/", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPost(t *testing.T) {
	s := setupTestServer(t)
	hidden := activePost("Hidden", "hidden", "user-id", 1)
	hidden.Active = false
	s.seed(t, activePost("Visible", "visible", "user-id", 1), hidden)

	w := s.do(t, http.MethodGet, "/posts/v1/visible", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Visible", decode[api.Post](t, w).Title)

	w = s.do(t, http.MethodGet, "/posts/v1/hidden", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/posts/v1/id/2", nil)
	require.Equal(t, http.StatusOK, w.Code, "lookup by id ignores the active flag")
	assert.Equal(t, "hidden", decode[api.Post](t, w).URL)

	w = s.do(t, http.MethodGet, "/posts/v1/id/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/posts/v1/id/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPosts(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t,
		activePost("One", "one", "user-random", 1),
		activePost("Two", "two", "user-two", 2),
		activePost("Three", "three", "user-two", 1),
		activePost("Four", "four", "user-two", 1),
	)

	tests := []struct {
		name  string
		path  string
		urls  []string
		total int64
	}{
		{name: "first page", path: "/posts/v1/?page=0&size=3", urls: []string{"one", "two", "three"}, total: 4},
		{name: "second page", path: "/posts/v1/?page=1&size=3", urls: []string{"four"}, total: 4},
		{name: "far past the end", path: "/posts/v1/?page=922337203685477581&size=10", urls: []string{}, total: 4},
		{name: "by user", path: "/posts/v1/?user=user-random&size=3", urls: []string{"one"}, total: 1},
		{name: "by category", path: "/posts/v1/?category=2&size=3", urls: []string{"two"}, total: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			page := decode[api.PostPage](t, w)
			urls := make([]string, 0, len(page.Posts))
			for _, p := range page.Posts {
				urls = append(urls, p.URL)
			}
			assert.Equal(t, tt.urls, urls)
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestGetPosts_BadQuery(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/posts/v1/?page=x", "/posts/v1/?size=x", "/posts/v1/?category=x"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t, activePost("Delete me", "delete-me", "user-id", 1))

	w := s.do(t, http.MethodDelete, "/posts/v1/id/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/posts/v1/id/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/posts/v1/id/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "deleting twice is not an error")
}

type failingRepository struct {
	domain.PostRepository
}

func (failingRepository) FindAllByActive(context.Context, bool, domain.PageRequest) (*domain.Page, error) {
	return nil, domain.StorageError("failed to query posts", errors.New("disk on fire"))
}

func TestGetPosts_StorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewApi(engine, failingRepository{}, func(context.Context) error { return errors.New("down") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/v1/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthz(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
