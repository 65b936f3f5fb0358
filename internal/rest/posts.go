package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/paper/api"
	"github.com/dfryer1193/paper/posting/domain"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

type postsHandler struct {
	posts domain.PostRepository
}

// GetPosts lists active posts, optionally narrowed to one user or one category
func (h *postsHandler) GetPosts(c *gin.Context) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid page"})
		return
	}
	size, err := queryInt(c, "size", domain.DefaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid size"})
		return
	}
	req := domain.NewPageRequest(page, size)

	ctx := c.Request.Context()
	var result *domain.Page

	switch {
	case c.Query("category") != "":
		var categoryID int64
		categoryID, err = strconv.ParseInt(c.Query("category"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.Error{Error: "invalid category"})
			return
		}
		result, err = h.posts.FindByCategoryIDAndActive(ctx, categoryID, true, req)
	case c.Query("user") != "":
		result, err = h.posts.FindByUserAndActive(ctx, c.Query("user"), true, req)
	default:
		result, err = h.posts.FindAllByActive(ctx, true, req)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPostPage(result))
}

// GetPost returns an active post by url
func (h *postsHandler) GetPost(c *gin.Context) {
	post, ok, err := h.posts.FindByURLAndActive(c.Request.Context(), c.Param("url"), true)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: "post not found"})
		return
	}

	c.JSON(http.StatusOK, toPost(post))
}

// GetPostByID returns a post by id whether or not it is active
func (h *postsHandler) GetPostByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid id"})
		return
	}

	post, ok, err := h.posts.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: "post not found"})
		return
	}

	c.JSON(http.StatusOK, toPost(post))
}

func (h *postsHandler) CreatePost(c *gin.Context) {
	proto := &api.PostProto{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	post := fromProto(proto)
	saved, err := h.posts.Save(c.Request.Context(), post)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPost(saved))
}

// DeletePost is idempotent; unknown ids still answer 204
func (h *postsHandler) DeletePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid id"})
		return
	}

	if err := h.posts.Delete(c.Request.Context(), &domain.Post{ID: id}); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var cv *domain.ConstraintViolation

	switch {
	case errors.As(err, &verr):
		violations := make([]api.Violation, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			violations = append(violations, api.Violation{Field: v.Field, Message: v.Message})
		}
		c.JSON(http.StatusBadRequest, api.Error{Error: "validation failed", Violations: violations})
	case errors.As(err, &cv):
		c.JSON(http.StatusConflict, api.Error{Error: cv.Constraint + " constraint violated"})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "internal server error"})
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func fromProto(p *api.PostProto) *domain.Post {
	post := &domain.Post{
		Title:   p.Title,
		Content: p.Content,
		URL:     p.URL,
		User:    p.User,
		Active:  true,
	}

	if post.URL == "" && post.Title != "" {
		post.URL = slug.Make(post.Title)
	}
	if p.CategoryID != 0 {
		post.Category = &domain.Category{ID: p.CategoryID}
	}
	if p.Active != nil {
		post.Active = *p.Active
	}

	return post
}

func toPost(p *domain.Post) api.Post {
	return api.Post{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		URL:          p.URL,
		User:         p.User,
		CategoryID:   p.CategoryID(),
		CategoryName: categoryName(p),
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func categoryName(p *domain.Post) string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

func toPostPage(page *domain.Page) api.PostPage {
	posts := make([]api.Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		posts = append(posts, toPost(p))
	}

	return api.PostPage{
		Posts:      posts,
		Page:       page.Number,
		Size:       page.Size,
		Total:      page.TotalElements,
		TotalPages: page.TotalPages,
	}
}
