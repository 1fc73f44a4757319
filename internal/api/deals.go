package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/dashboard"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
	"go.uber.org/zap"
)

type DealService interface {
	CreateDeal(ctx context.Context, userID uuid.UUID, in crm.DealInput) (crm.Outcome, error)
	UpdateDeal(ctx context.Context, userID, dealID uuid.UUID, in crm.DealInput) (crm.Outcome, error)
	UpdateDealStage(ctx context.Context, userID, dealID uuid.UUID, stage models.DealStage) (crm.Outcome, error)
	DeleteDeal(ctx context.Context, userID, dealID uuid.UUID) (crm.Outcome, error)
}

type DealHandler struct {
	svc       DealService
	repo      repository.DealRepository
	mutations *Mutations
	logger    *zap.Logger
}

func NewDealHandler(svc DealService, repo repository.DealRepository, mutations *Mutations, logger *zap.Logger) *DealHandler {
	return &DealHandler{svc: svc, repo: repo, mutations: mutations, logger: logger}
}

func (h *DealHandler) Register(g *gin.RouterGroup) {
	g.GET("/deals", h.List)
	g.POST("/deals", h.Create)
	g.GET("/deals/board", h.Board)
	g.GET("/deals/:id", h.Get)
	g.PUT("/deals/:id", h.Update)
	g.PATCH("/deals/:id/stage", h.UpdateStage)
	g.DELETE("/deals/:id", h.Delete)
}

// List handles GET /v1/deals?query=&stage=&company=&page=
func (h *DealHandler) List(c *gin.Context) {
	filter, err := listing.ParseDealFilter(c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.repo.List(c.Request.Context(), middleware.GetUserID(c), filter, listing.ParsePage(c.Query("page")))
	if err != nil {
		readFailed(c, h.logger, "failed to list deals", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Board handles GET /v1/deals/board: every deal grouped by stage.
func (h *DealHandler) Board(c *gin.Context) {
	deals, err := h.repo.ListBoard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to load pipeline board", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": dashboard.BuildBoard(deals)})
}

func (h *DealHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "deal")
	if !ok {
		return
	}

	deal, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		readFailed(c, h.logger, "failed to get deal", err)
		return
	}
	if deal == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Create(c *gin.Context) {
	var out crm.Outcome
	in, err := bindDeal(c)
	if err == nil {
		out, err = h.svc.CreateDeal(c.Request.Context(), middleware.GetUserID(c), in)
	}
	h.mutations.respond(c, http.StatusCreated, "deal", "create", out, err)
}

func (h *DealHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "deal")
	if !ok {
		return
	}
	var out crm.Outcome
	in, err := bindDeal(c)
	if err == nil {
		out, err = h.svc.UpdateDeal(c.Request.Context(), middleware.GetUserID(c), id, in)
	}
	h.mutations.respond(c, http.StatusOK, "deal", "update", out, err)
}

// UpdateStage handles PATCH /v1/deals/:id/stage, the board's drag and
// drop. It answers {"success": true} and leaves navigation to the client.
func (h *DealHandler) UpdateStage(c *gin.Context) {
	id, ok := parseID(c, "deal")
	if !ok {
		return
	}
	var out crm.Outcome
	var req stageRequest
	err := bind(c, &req)
	if err == nil {
		out, err = h.svc.UpdateDealStage(c.Request.Context(), middleware.GetUserID(c), id, models.DealStage(strings.TrimSpace(req.Stage)))
	}
	if h.mutations.finish(c, "deal", "update_stage", out, err) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (h *DealHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "deal")
	if !ok {
		return
	}
	out, err := h.svc.DeleteDeal(c.Request.Context(), middleware.GetUserID(c), id)
	h.mutations.respond(c, http.StatusOK, "deal", "delete", out, err)
}

func bindDeal(c *gin.Context) (crm.DealInput, error) {
	var req dealRequest
	if err := bind(c, &req); err != nil {
		return crm.DealInput{}, err
	}
	return req.input()
}
