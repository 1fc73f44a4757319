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

type ContactService interface {
	CreateContact(ctx context.Context, userID uuid.UUID, in crm.ContactInput) (crm.Outcome, error)
	UpdateContact(ctx context.Context, userID, contactID uuid.UUID, in crm.ContactInput) (crm.Outcome, error)
	DeleteContact(ctx context.Context, userID, contactID uuid.UUID) (crm.Outcome, error)
}

type ContactHandler struct {
	svc       ContactService
	repo      repository.ContactRepository
	mutations *Mutations
	logger    *zap.Logger
}

func NewContactHandler(svc ContactService, repo repository.ContactRepository, mutations *Mutations, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, repo: repo, mutations: mutations, logger: logger}
}

func (h *ContactHandler) Register(g *gin.RouterGroup) {
	g.GET("/contacts", h.List)
	g.POST("/contacts", h.Create)
	g.GET("/contacts/:id", h.Get)
	g.PUT("/contacts/:id", h.Update)
	g.DELETE("/contacts/:id", h.Delete)
}

// List handles GET /v1/contacts?query=&company=&authorityLevel=&decisionMaker=&page=
func (h *ContactHandler) List(c *gin.Context) {
	filter, err := listing.ParseContactFilter(c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.repo.List(c.Request.Context(), middleware.GetUserID(c), filter, listing.ParsePage(c.Query("page")))
	if err != nil {
		readFailed(c, h.logger, "failed to list contacts", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContactHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "contact")
	if !ok {
		return
	}

	contact, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		readFailed(c, h.logger, "failed to get contact", err)
		return
	}
	if contact == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Create(c *gin.Context) {
	var out crm.Outcome
	in, err := bindContact(c)
	if err == nil {
		out, err = h.svc.CreateContact(c.Request.Context(), middleware.GetUserID(c), in)
	}
	h.mutations.respond(c, http.StatusCreated, "contact", "create", out, err)
}

func (h *ContactHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "contact")
	if !ok {
		return
	}
	var out crm.Outcome
	in, err := bindContact(c)
	if err == nil {
		out, err = h.svc.UpdateContact(c.Request.Context(), middleware.GetUserID(c), id, in)
	}
	h.mutations.respond(c, http.StatusOK, "contact", "update", out, err)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "contact")
	if !ok {
		return
	}
	out, err := h.svc.DeleteContact(c.Request.Context(), middleware.GetUserID(c), id)
	h.mutations.respond(c, http.StatusOK, "contact", "delete", out, err)
}

func bindContact(c *gin.Context) (crm.ContactInput, error) {
	var req contactRequest
	if err := bind(c, &req); err != nil {
		return crm.ContactInput{}, err
	}
	return req.input()
}
