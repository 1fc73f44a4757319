package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/repository"
	"go.uber.org/zap"
)

type ActivityService interface {
	CreateActivity(ctx context.Context, userID uuid.UUID, in crm.ActivityInput) (crm.Outcome, error)
	UpdateActivity(ctx context.Context, userID, activityID uuid.UUID, in crm.ActivityInput) (crm.Outcome, error)
	DeleteActivity(ctx context.Context, userID, activityID uuid.UUID) (crm.Outcome, error)
}

type ActivityHandler struct {
	svc       ActivityService
	repo      repository.ActivityRepository
	mutations *Mutations
	logger    *zap.Logger
}

func NewActivityHandler(svc ActivityService, repo repository.ActivityRepository, mutations *Mutations, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, repo: repo, mutations: mutations, logger: logger}
}

func (h *ActivityHandler) Register(g *gin.RouterGroup) {
	g.GET("/activities", h.List)
	g.POST("/activities", h.Create)
	g.GET("/activities/:id", h.Get)
	g.PUT("/activities/:id", h.Update)
	g.DELETE("/activities/:id", h.Delete)
}

// List handles GET /v1/activities?query=&type=&company=&contact=&deal=&page=
func (h *ActivityHandler) List(c *gin.Context) {
	filter, err := listing.ParseActivityFilter(c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.repo.List(c.Request.Context(), middleware.GetUserID(c), filter, listing.ParsePage(c.Query("page")))
	if err != nil {
		readFailed(c, h.logger, "failed to list activities", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}

	activity, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		readFailed(c, h.logger, "failed to get activity", err)
		return
	}
	if activity == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var out crm.Outcome
	in, err := bindActivity(c)
	if err == nil {
		out, err = h.svc.CreateActivity(c.Request.Context(), middleware.GetUserID(c), in)
	}
	h.mutations.respond(c, http.StatusCreated, "activity", "create", out, err)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	var out crm.Outcome
	in, err := bindActivity(c)
	if err == nil {
		out, err = h.svc.UpdateActivity(c.Request.Context(), middleware.GetUserID(c), id, in)
	}
	h.mutations.respond(c, http.StatusOK, "activity", "update", out, err)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "activity")
	if !ok {
		return
	}
	out, err := h.svc.DeleteActivity(c.Request.Context(), middleware.GetUserID(c), id)
	h.mutations.respond(c, http.StatusOK, "activity", "delete", out, err)
}

func bindActivity(c *gin.Context) (crm.ActivityInput, error) {
	var req activityRequest
	if err := bind(c, &req); err != nil {
		return crm.ActivityInput{}, err
	}
	return req.input()
}
