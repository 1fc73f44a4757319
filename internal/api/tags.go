package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/repository"
	"go.uber.org/zap"
)

type TagHandler struct {
	repo   repository.TagRepository
	logger *zap.Logger
}

func NewTagHandler(repo repository.TagRepository, logger *zap.Logger) *TagHandler {
	return &TagHandler{repo: repo, logger: logger}
}

func (h *TagHandler) Register(g *gin.RouterGroup) {
	g.GET("/tags", h.List)
}

// List handles GET /v1/tags, the user's tags by name.
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.repo.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to list tags", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
