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

type CompanyService interface {
	CreateCompany(ctx context.Context, userID uuid.UUID, in crm.CompanyInput) (crm.Outcome, error)
	UpdateCompany(ctx context.Context, userID, companyID uuid.UUID, in crm.CompanyInput) (crm.Outcome, error)
	DeleteCompany(ctx context.Context, userID, companyID uuid.UUID) (crm.Outcome, error)
}

// CompanyHandler serves /v1/companies. Reads go straight to the
// repository; writes go through the crm service.
type CompanyHandler struct {
	svc       CompanyService
	repo      repository.CompanyRepository
	mutations *Mutations
	logger    *zap.Logger
}

func NewCompanyHandler(svc CompanyService, repo repository.CompanyRepository, mutations *Mutations, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{svc: svc, repo: repo, mutations: mutations, logger: logger}
}

func (h *CompanyHandler) Register(g *gin.RouterGroup) {
	g.GET("/companies", h.List)
	g.POST("/companies", h.Create)
	g.GET("/companies/:id", h.Get)
	g.PUT("/companies/:id", h.Update)
	g.DELETE("/companies/:id", h.Delete)
}

// List handles GET /v1/companies?query=&industry=&size=&page=
func (h *CompanyHandler) List(c *gin.Context) {
	filter, err := listing.ParseCompanyFilter(c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.repo.List(c.Request.Context(), middleware.GetUserID(c), filter, listing.ParsePage(c.Query("page")))
	if err != nil {
		readFailed(c, h.logger, "failed to list companies", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "company")
	if !ok {
		return
	}

	company, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		readFailed(c, h.logger, "failed to get company", err)
		return
	}
	if company == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Create handles POST /v1/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var out crm.Outcome
	var req companyRequest
	err := bind(c, &req)
	if err == nil {
		out, err = h.svc.CreateCompany(c.Request.Context(), middleware.GetUserID(c), req.input())
	}
	h.mutations.respond(c, http.StatusCreated, "company", "create", out, err)
}

// Update handles PUT /v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "company")
	if !ok {
		return
	}
	var out crm.Outcome
	var req companyRequest
	err := bind(c, &req)
	if err == nil {
		out, err = h.svc.UpdateCompany(c.Request.Context(), middleware.GetUserID(c), id, req.input())
	}
	h.mutations.respond(c, http.StatusOK, "company", "update", out, err)
}

// Delete handles DELETE /v1/companies/:id. Contacts, deals and
// activities of the company go with it.
func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "company")
	if !ok {
		return
	}

	out, err := h.svc.DeleteCompany(c.Request.Context(), middleware.GetUserID(c), id)
	h.mutations.respond(c, http.StatusOK, "company", "delete", out, err)
}
