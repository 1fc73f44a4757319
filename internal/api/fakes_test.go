package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recorder collects mutation metrics and published invalidations.
type recorder struct {
	mu        sync.Mutex
	results   []string
	published [][]crm.EntityRef
}

func (r *recorder) ObserveMutation(entity, op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, entity+"/"+op+"/"+result)
}

func (r *recorder) Publish(_ context.Context, _ uuid.UUID, affected []crm.EntityRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, affected)
}

// fakeCRM implements every service interface with optional hooks; an
// unset hook returns the zero outcome.
type fakeCRM struct {
	createCompany   func(crm.CompanyInput) (crm.Outcome, error)
	updateCompany   func(uuid.UUID, crm.CompanyInput) (crm.Outcome, error)
	createContact   func(crm.ContactInput) (crm.Outcome, error)
	createDeal      func(crm.DealInput) (crm.Outcome, error)
	updateDealStage func(uuid.UUID, models.DealStage) (crm.Outcome, error)
	createActivity  func(crm.ActivityInput) (crm.Outcome, error)
	deleteFn        func(uuid.UUID) (crm.Outcome, error)
	calls           int
}

func (f *fakeCRM) CreateCompany(_ context.Context, _ uuid.UUID, in crm.CompanyInput) (crm.Outcome, error) {
	f.calls++
	if f.createCompany == nil {
		return crm.Outcome{}, nil
	}
	return f.createCompany(in)
}

func (f *fakeCRM) UpdateCompany(_ context.Context, _ uuid.UUID, id uuid.UUID, in crm.CompanyInput) (crm.Outcome, error) {
	f.calls++
	if f.updateCompany == nil {
		return crm.Outcome{}, nil
	}
	return f.updateCompany(id, in)
}

func (f *fakeCRM) DeleteCompany(_ context.Context, _ uuid.UUID, id uuid.UUID) (crm.Outcome, error) {
	return f.delete(id)
}

func (f *fakeCRM) CreateContact(_ context.Context, _ uuid.UUID, in crm.ContactInput) (crm.Outcome, error) {
	f.calls++
	if f.createContact == nil {
		return crm.Outcome{}, nil
	}
	return f.createContact(in)
}

func (f *fakeCRM) UpdateContact(context.Context, uuid.UUID, uuid.UUID, crm.ContactInput) (crm.Outcome, error) {
	f.calls++
	return crm.Outcome{}, nil
}

func (f *fakeCRM) DeleteContact(_ context.Context, _ uuid.UUID, id uuid.UUID) (crm.Outcome, error) {
	return f.delete(id)
}

func (f *fakeCRM) CreateDeal(_ context.Context, _ uuid.UUID, in crm.DealInput) (crm.Outcome, error) {
	f.calls++
	if f.createDeal == nil {
		return crm.Outcome{}, nil
	}
	return f.createDeal(in)
}

func (f *fakeCRM) UpdateDeal(context.Context, uuid.UUID, uuid.UUID, crm.DealInput) (crm.Outcome, error) {
	f.calls++
	return crm.Outcome{}, nil
}

func (f *fakeCRM) UpdateDealStage(_ context.Context, _ uuid.UUID, id uuid.UUID, stage models.DealStage) (crm.Outcome, error) {
	f.calls++
	if f.updateDealStage == nil {
		return crm.Outcome{}, nil
	}
	return f.updateDealStage(id, stage)
}

func (f *fakeCRM) DeleteDeal(_ context.Context, _ uuid.UUID, id uuid.UUID) (crm.Outcome, error) {
	return f.delete(id)
}

func (f *fakeCRM) CreateActivity(_ context.Context, _ uuid.UUID, in crm.ActivityInput) (crm.Outcome, error) {
	f.calls++
	if f.createActivity == nil {
		return crm.Outcome{}, nil
	}
	return f.createActivity(in)
}

func (f *fakeCRM) UpdateActivity(context.Context, uuid.UUID, uuid.UUID, crm.ActivityInput) (crm.Outcome, error) {
	f.calls++
	return crm.Outcome{}, nil
}

func (f *fakeCRM) DeleteActivity(_ context.Context, _ uuid.UUID, id uuid.UUID) (crm.Outcome, error) {
	return f.delete(id)
}

func (f *fakeCRM) delete(id uuid.UUID) (crm.Outcome, error) {
	f.calls++
	if f.deleteFn == nil {
		return crm.Outcome{}, nil
	}
	return f.deleteFn(id)
}

// Read-side stubs embed the repository interface; only the methods the
// handlers call are implemented.

type stubCompanies struct {
	repository.CompanyRepository
	company   *models.Company
	page      listing.Page[models.Company]
	err       error
	gotFilter listing.CompanyFilter
	gotPage   int
}

func (s *stubCompanies) GetByID(context.Context, uuid.UUID, uuid.UUID) (*models.Company, error) {
	return s.company, s.err
}

func (s *stubCompanies) List(_ context.Context, _ uuid.UUID, f listing.CompanyFilter, page int) (listing.Page[models.Company], error) {
	s.gotFilter, s.gotPage = f, page
	return s.page, s.err
}

type stubContacts struct {
	repository.ContactRepository
	gotFilter listing.ContactFilter
}

func (s *stubContacts) List(_ context.Context, _ uuid.UUID, f listing.ContactFilter, page int) (listing.Page[models.Contact], error) {
	s.gotFilter = f
	return listing.NewPage[models.Contact](nil, 0, page), nil
}

type stubDeals struct {
	repository.DealRepository
	board []models.Deal
	deal  *models.Deal
}

func (s *stubDeals) ListBoard(context.Context, uuid.UUID) ([]models.Deal, error) {
	return s.board, nil
}

func (s *stubDeals) GetByID(context.Context, uuid.UUID, uuid.UUID) (*models.Deal, error) {
	return s.deal, nil
}

func (s *stubDeals) List(context.Context, uuid.UUID, listing.DealFilter, int) (listing.Page[models.Deal], error) {
	return listing.NewPage[models.Deal](nil, 0, 1), nil
}

type stubActivities struct {
	repository.ActivityRepository
}

type stubTags struct {
	repository.TagRepository
	tags []models.Tag
}

func (s *stubTags) ListByUser(context.Context, uuid.UUID) ([]models.Tag, error) {
	return s.tags, nil
}

// testEnv is a router with the CRM routes behind a fixed identity.
type testEnv struct {
	router *gin.Engine
	svc    *fakeCRM
	rec    *recorder
	comps  *stubCompanies
	conts  *stubContacts
	deals  *stubDeals
	tags   *stubTags
	userID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		svc:    &fakeCRM{},
		rec:    &recorder{},
		comps:  &stubCompanies{},
		conts:  &stubContacts{},
		deals:  &stubDeals{},
		tags:   &stubTags{},
		userID: uuid.New(),
	}
	logger := zap.NewNop()
	mutations := NewMutations(env.rec, env.rec, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, env.userID)
		c.Next()
	})
	v1 := r.Group("/v1")
	NewCompanyHandler(env.svc, env.comps, mutations, logger).Register(v1)
	NewContactHandler(env.svc, env.conts, mutations, logger).Register(v1)
	NewDealHandler(env.svc, env.deals, mutations, logger).Register(v1)
	NewActivityHandler(env.svc, &stubActivities{}, mutations, logger).Register(v1)
	NewTagHandler(env.tags, logger).Register(v1)
	env.router = r
	return env
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) form(method, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}
