package rest

import (
	"context"
	"net/http"

	"github.com/dfryer1193/paper/posting/domain"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the storage backend is reachable
type Pinger func(ctx context.Context) error

func NewApi(router *gin.Engine, posts domain.PostRepository, ping Pinger) {
	h := &postsHandler{posts: posts}

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", h.GetPosts)
		postsV1.POST("/", h.CreatePost)
		postsV1.GET("/:url", h.GetPost)
		postsV1.GET("/id/:id", h.GetPostByID)
		postsV1.DELETE("/id/:id", h.DeletePost)
	}

	router.GET("/healthz", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
