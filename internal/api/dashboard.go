package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/dashboard"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/models"
	"go.uber.org/zap"
)

const (
	maxRecentLimit = 100
	maxClosingDays = 3650
)

type DashboardService interface {
	Overview(ctx context.Context, userID uuid.UUID, recentLimit, closingDays int) (dashboard.Overview, error)
	KeyMetrics(ctx context.Context, userID uuid.UUID) (models.KeyMetrics, error)
	PipelineOverview(ctx context.Context, userID uuid.UUID) ([]models.StageTotal, error)
	RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
	DealsClosingSoon(ctx context.Context, userID uuid.UUID, days int) ([]models.Deal, error)
	ActivitySummary(ctx context.Context, userID uuid.UUID) (models.ActivitySummary, error)
}

type DashboardHandler struct {
	svc         DashboardService
	recentLimit int
	closingDays int
	logger      *zap.Logger
}

// NewDashboardHandler takes the defaults used when a request does not
// pass ?limit= or ?days=.
func NewDashboardHandler(svc DashboardService, recentLimit, closingDays int, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, recentLimit: recentLimit, closingDays: closingDays, logger: logger}
}

func (h *DashboardHandler) Register(g *gin.RouterGroup) {
	g.GET("/dashboard", h.Overview)
	g.GET("/dashboard/metrics", h.Metrics)
	g.GET("/dashboard/pipeline", h.Pipeline)
	g.GET("/dashboard/recent-activities", h.RecentActivities)
	g.GET("/dashboard/closing-soon", h.ClosingSoon)
	g.GET("/dashboard/activity-summary", h.ActivitySummary)
}

// Overview handles GET /v1/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.recentLimit, maxRecentLimit)
	if !ok {
		return
	}
	days, ok := intQuery(c, "days", h.closingDays, maxClosingDays)
	if !ok {
		return
	}

	o, err := h.svc.Overview(c.Request.Context(), middleware.GetUserID(c), limit, days)
	if err != nil {
		readFailed(c, h.logger, "failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *DashboardHandler) Metrics(c *gin.Context) {
	m, err := h.svc.KeyMetrics(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to load key metrics", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *DashboardHandler) Pipeline(c *gin.Context) {
	stages, err := h.svc.PipelineOverview(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to load pipeline", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

// RecentActivities handles GET /v1/dashboard/recent-activities?limit=
func (h *DashboardHandler) RecentActivities(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.recentLimit, maxRecentLimit)
	if !ok {
		return
	}
	activities, err := h.svc.RecentActivities(c.Request.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		readFailed(c, h.logger, "failed to load recent activities", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// ClosingSoon handles GET /v1/dashboard/closing-soon?days=
func (h *DashboardHandler) ClosingSoon(c *gin.Context) {
	days, ok := intQuery(c, "days", h.closingDays, maxClosingDays)
	if !ok {
		return
	}
	deals, err := h.svc.DealsClosingSoon(c.Request.Context(), middleware.GetUserID(c), days)
	if err != nil {
		readFailed(c, h.logger, "failed to load deals closing soon", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

func (h *DashboardHandler) ActivitySummary(c *gin.Context) {
	summary, err := h.svc.ActivitySummary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to load activity summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// intQuery reads a non-negative integer query parameter no larger than
// upper. Absent means def.
func intQuery(c *gin.Context, key string, def, upper int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > upper {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + key + "' parameter"})
		return 0, false
	}
	return n, true
}
