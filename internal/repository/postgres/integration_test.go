package postgres_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/dashboard"
	"github.com/lalith-99/minicrm/internal/db"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type stack struct {
	users      *postgres.UserStore
	tags       *postgres.TagStore
	companies  *postgres.CompanyStore
	contacts   *postgres.ContactStore
	deals      *postgres.DealStore
	activities *postgres.ActivityStore
	dash       *postgres.DashboardStore
	crm        *crm.Service
	dashboard  *dashboard.Service
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("CRM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CRM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.Migrate(ctx))

	pool := database.Pool()
	s := &stack{
		users:      postgres.NewUserStore(pool),
		tags:       postgres.NewTagStore(pool),
		companies:  postgres.NewCompanyStore(pool),
		contacts:   postgres.NewContactStore(pool),
		deals:      postgres.NewDealStore(pool),
		activities: postgres.NewActivityStore(pool),
		dash:       postgres.NewDashboardStore(pool),
	}
	s.crm = crm.NewService(crm.Stores{
		Companies:  s.companies,
		Contacts:   s.contacts,
		Deals:      s.deals,
		Activities: s.activities,
	})
	s.dashboard = dashboard.NewService(s.dash)
	return s
}

func (s *stack) newUser(t *testing.T) uuid.UUID {
	t.Helper()
	u, err := s.users.Create(context.Background(), uuid.NewString()+"@it.test", "IT", "x")
	require.NoError(t, err)
	return u.ID
}

// createdID reads the new record's ID from the detail path of a create.
func createdID(t *testing.T, out crm.Outcome) uuid.UUID {
	t.Helper()
	i := strings.LastIndex(out.NavigateTo, "/")
	id, err := uuid.Parse(out.NavigateTo[i+1:])
	require.NoError(t, err, out.NavigateTo)
	return id
}

func TestEndToEndLifecycle(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)

	out, err := s.crm.CreateCompany(ctx, userID, crm.CompanyInput{Name: "Acme", Tags: "vip, enterprise"})
	require.NoError(t, err)
	companyID := createdID(t, out)

	primary := models.AuthorityPrimary
	out, err = s.crm.CreateContact(ctx, userID, crm.ContactInput{
		CompanyID: companyID, Name: "Jane", IsDecisionMaker: true, AuthorityLevel: &primary,
	})
	require.NoError(t, err)
	contactID := createdID(t, out)

	value := decimal.NewFromInt(50000)
	out, err = s.crm.CreateDeal(ctx, userID, crm.DealInput{
		CompanyID: companyID, ContactID: &contactID, Name: "Acme License", Value: &value,
	})
	require.NoError(t, err)
	dealID := createdID(t, out)

	_, err = s.crm.CreateActivity(ctx, userID, crm.ActivityInput{
		Type: models.ActivityCall, Subject: "Kickoff",
		CompanyID: &companyID, ContactID: &contactID, DealID: &dealID,
	})
	require.NoError(t, err)

	deal, err := s.deals.GetByID(ctx, userID, dealID)
	require.NoError(t, err)
	require.NotNil(t, deal)
	assert.Equal(t, models.StageProspecting, deal.Stage)
	assert.Equal(t, "Acme", deal.CompanyName)

	metrics, err := s.dashboard.KeyMetrics(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Companies)
	assert.Equal(t, 1, metrics.OpenDeals)
	assert.True(t, metrics.PipelineValue.Equal(value))

	recent, err := s.dashboard.RecentActivities(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Kickoff", recent[0].Subject)

	company, err := s.companies.GetByID(ctx, userID, companyID)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Len(t, company.Tags, 2)
	assert.Equal(t, 1, company.ContactCount)

	_, err = s.crm.DeleteCompany(ctx, userID, companyID)
	require.NoError(t, err)

	contact, err := s.contacts.GetByID(ctx, userID, contactID)
	require.NoError(t, err)
	assert.Nil(t, contact)
	deal, err = s.deals.GetByID(ctx, userID, dealID)
	require.NoError(t, err)
	assert.Nil(t, deal)
	activities, err := s.activities.List(ctx, userID, listing.ActivityFilter{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, activities.Total)
}

func TestOwnershipIsolation(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	owner, intruder := s.newUser(t), s.newUser(t)

	out, err := s.crm.CreateCompany(ctx, owner, crm.CompanyInput{Name: "Private Co"})
	require.NoError(t, err)
	companyID := createdID(t, out)

	_, err = s.crm.CreateDeal(ctx, intruder, crm.DealInput{CompanyID: companyID, Name: "Steal"})
	assert.ErrorIs(t, err, crm.ErrNotFound)

	_, err = s.crm.UpdateCompany(ctx, intruder, companyID, crm.CompanyInput{Name: "Mine now"})
	assert.ErrorIs(t, err, crm.ErrNotFound)

	got, err := s.companies.GetByID(ctx, intruder, companyID)
	require.NoError(t, err)
	assert.Nil(t, got)

	page, err := s.companies.List(ctx, intruder, listing.CompanyFilter{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestTagsAreSharedAndReplaced(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)

	out, err := s.crm.CreateCompany(ctx, userID, crm.CompanyInput{Name: "A", Tags: "vip, partner"})
	require.NoError(t, err)
	a := createdID(t, out)
	_, err = s.crm.CreateCompany(ctx, userID, crm.CompanyInput{Name: "B", Tags: "vip"})
	require.NoError(t, err)

	tags, err := s.tags.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = s.crm.UpdateCompany(ctx, userID, a, crm.CompanyInput{Name: "A", Tags: "partner"})
	require.NoError(t, err)

	company, err := s.companies.GetByID(ctx, userID, a)
	require.NoError(t, err)
	require.Len(t, company.Tags, 1)
	assert.Equal(t, "partner", company.Tags[0].Name)
}

func TestTagUpsertReusesRows(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)

	first, err := s.tags.Upsert(ctx, userID, []string{"A", "A", "B"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "A", first[0].Name)
	assert.Equal(t, "B", first[1].Name)
	assert.Equal(t, postgres.DefaultTagColor, first[0].Color)

	again, err := s.tags.Upsert(ctx, userID, []string{"B", "A"})
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, first[1].ID, again[0].ID)
	assert.Equal(t, first[0].ID, again[1].ID)

	other, err := s.tags.Upsert(ctx, s.newUser(t), []string{"A"})
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestConcurrentTagSavesInOppositeOrder(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)

	orders := [][]string{{"alpha", "beta", "gamma"}, {"gamma", "beta", "alpha"}}
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		names := orders[i%2]
		g.Go(func() error {
			_, err := s.tags.Upsert(ctx, userID, names)
			return err
		})
	}
	require.NoError(t, g.Wait())

	tags, err := s.tags.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tags, 3)
}

func (s *stack) newDeal(t *testing.T, userID, companyID uuid.UUID, stage models.DealStage, value int64, closeAt *time.Time) uuid.UUID {
	t.Helper()
	v := decimal.NewFromInt(value)
	out, err := s.crm.CreateDeal(context.Background(), userID, crm.DealInput{
		CompanyID: companyID, Name: string(stage), Value: &v, Stage: &stage, ExpectedCloseDate: closeAt,
	})
	require.NoError(t, err)
	return createdID(t, out)
}

func TestDashboardExcludesClosedDeals(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)
	out, err := s.crm.CreateCompany(ctx, userID, crm.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	companyID := createdID(t, out)

	s.newDeal(t, userID, companyID, models.StageProspecting, 100, nil)
	s.newDeal(t, userID, companyID, models.StageProspecting, 50, nil)
	s.newDeal(t, userID, companyID, models.StageNegotiation, 300, nil)
	s.newDeal(t, userID, companyID, models.StageClosedWon, 1000, nil)
	s.newDeal(t, userID, companyID, models.StageClosedLost, 2000, nil)

	n, total, err := s.dash.OpenDealTotals(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, total.Equal(decimal.NewFromInt(450)), total.String())

	rows, err := s.dash.PipelineByStage(ctx, userID)
	require.NoError(t, err)
	byStage := make(map[models.DealStage]models.StageTotal, len(rows))
	for _, r := range rows {
		byStage[r.Stage] = r
	}
	require.Len(t, byStage, 2)
	assert.Equal(t, 2, byStage[models.StageProspecting].Count)
	assert.True(t, byStage[models.StageProspecting].Value.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 1, byStage[models.StageNegotiation].Count)
	assert.NotContains(t, byStage, models.StageClosedWon)
	assert.NotContains(t, byStage, models.StageClosedLost)
}

func TestDealsClosingBetweenIsInclusive(t *testing.T) {
	s := setupStack(t)
	ctx := context.Background()
	userID := s.newUser(t)
	out, err := s.crm.CreateCompany(ctx, userID, crm.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	companyID := createdID(t, out)

	from := time.Now().UTC().Truncate(time.Second)
	to := from.AddDate(0, 0, 30)
	at := func(d time.Time) *time.Time { return &d }

	atStart := s.newDeal(t, userID, companyID, models.StageProposal, 1, at(from))
	atEnd := s.newDeal(t, userID, companyID, models.StageQualification, 1, at(to))
	s.newDeal(t, userID, companyID, models.StageProposal, 1, at(from.Add(-time.Second)))
	s.newDeal(t, userID, companyID, models.StageProposal, 1, at(to.Add(time.Second)))
	s.newDeal(t, userID, companyID, models.StageClosedWon, 1, at(from.AddDate(0, 0, 1)))
	s.newDeal(t, userID, companyID, models.StageProposal, 1, nil)

	deals, err := s.dash.DealsClosingBetween(ctx, userID, from, to)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, atStart, deals[0].ID)
	assert.Equal(t, atEnd, deals[1].ID)
}
