package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

// memStore is an in-memory stand-in for the four Postgres stores. It
// keeps the same ownership rules: every lookup filters by userID.
type memStore struct {
	companies  map[uuid.UUID]*models.Company
	contacts   map[uuid.UUID]*models.Contact
	deals      map[uuid.UUID]*models.Deal
	activities map[uuid.UUID]*models.Activity
	tags       map[string]models.Tag

	// writeErr, when set, fails every write.
	writeErr error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		companies:  make(map[uuid.UUID]*models.Company),
		contacts:   make(map[uuid.UUID]*models.Contact),
		deals:      make(map[uuid.UUID]*models.Deal),
		activities: make(map[uuid.UUID]*models.Activity),
		tags:       make(map[string]models.Tag),
	}
}

func (m *memStore) service() *Service {
	s := NewService(Stores{
		Companies:  memCompanies{m},
		Contacts:   memContacts{m},
		Deals:      memDeals{m},
		Activities: memActivities{m},
	})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func (m *memStore) upsertTags(userID uuid.UUID, names []string) []models.Tag {
	out := make([]models.Tag, 0, len(names))
	for _, name := range names {
		key := userID.String() + "/" + name
		t, ok := m.tags[key]
		if !ok {
			t = models.Tag{ID: uuid.New(), UserID: userID, Name: name, Color: "#6B7280"}
			m.tags[key] = t
		}
		out = append(out, t)
	}
	return out
}

func (m *memStore) write() error {
	m.writes++
	return m.writeErr
}

type memCompanies struct{ m *memStore }

func (r memCompanies) Create(_ context.Context, userID uuid.UUID, f repository.CompanyFields, tags []string) (*models.Company, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	c := &models.Company{ID: uuid.New(), UserID: userID, Name: f.Name, Industry: f.Industry, Size: f.Size,
		Website: f.Website, Phone: f.Phone, Email: f.Email, Address: f.Address, Notes: f.Notes,
		Tags: r.m.upsertTags(userID, tags)}
	r.m.companies[c.ID] = c
	return c, nil
}

func (r memCompanies) Update(_ context.Context, userID, id uuid.UUID, f repository.CompanyFields, tags []string) (*models.Company, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	c, ok := r.m.companies[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	c.Name, c.Industry, c.Size, c.Notes = f.Name, f.Industry, f.Size, f.Notes
	c.Tags = r.m.upsertTags(userID, tags)
	return c, nil
}

func (r memCompanies) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	if err := r.m.write(); err != nil {
		return false, err
	}
	c, ok := r.m.companies[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(r.m.companies, id)
	return true, nil
}

func (r memCompanies) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Company, error) {
	c, ok := r.m.companies[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return c, nil
}

func (r memCompanies) Exists(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	c, err := r.GetByID(ctx, userID, id)
	return c != nil, err
}

func (r memCompanies) List(context.Context, uuid.UUID, listing.CompanyFilter, int) (listing.Page[models.Company], error) {
	return listing.Page[models.Company]{}, nil
}

type memContacts struct{ m *memStore }

func (r memContacts) Create(_ context.Context, userID uuid.UUID, f repository.ContactFields, tags []string) (*models.Contact, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	c := &models.Contact{ID: uuid.New(), UserID: userID, CompanyID: f.CompanyID, Name: f.Name,
		IsDecisionMaker: f.IsDecisionMaker, AuthorityLevel: f.AuthorityLevel, Notes: f.Notes,
		Tags: r.m.upsertTags(userID, tags)}
	r.m.contacts[c.ID] = c
	return c, nil
}

func (r memContacts) Update(_ context.Context, userID, id uuid.UUID, f repository.ContactFields, tags []string) (*models.Contact, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	c, ok := r.m.contacts[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	c.CompanyID, c.Name = f.CompanyID, f.Name
	c.IsDecisionMaker, c.AuthorityLevel = f.IsDecisionMaker, f.AuthorityLevel
	c.Tags = r.m.upsertTags(userID, tags)
	return c, nil
}

func (r memContacts) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	if err := r.m.write(); err != nil {
		return false, err
	}
	c, ok := r.m.contacts[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(r.m.contacts, id)
	return true, nil
}

func (r memContacts) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Contact, error) {
	c, ok := r.m.contacts[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return c, nil
}

func (r memContacts) Exists(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	c, err := r.GetByID(ctx, userID, id)
	return c != nil, err
}

func (r memContacts) List(context.Context, uuid.UUID, listing.ContactFilter, int) (listing.Page[models.Contact], error) {
	return listing.Page[models.Contact]{}, nil
}

type memDeals struct{ m *memStore }

func (r memDeals) Create(_ context.Context, userID uuid.UUID, f repository.DealFields) (*models.Deal, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	d := &models.Deal{ID: uuid.New(), UserID: userID}
	applyDeal(d, f)
	r.m.deals[d.ID] = d
	return d, nil
}

func (r memDeals) Update(_ context.Context, userID, id uuid.UUID, f repository.DealFields) (*models.Deal, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	d, ok := r.m.deals[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	applyDeal(d, f)
	return d, nil
}

func applyDeal(d *models.Deal, f repository.DealFields) {
	d.CompanyID, d.ContactID, d.Name = f.CompanyID, f.ContactID, f.Name
	d.Value, d.Stage, d.Probability = f.Value, f.Stage, f.Probability
	d.ExpectedCloseDate, d.Notes = f.ExpectedCloseDate, f.Notes
}

func (r memDeals) UpdateStage(_ context.Context, userID, id uuid.UUID, stage models.DealStage) (bool, error) {
	if err := r.m.write(); err != nil {
		return false, err
	}
	d, ok := r.m.deals[id]
	if !ok || d.UserID != userID {
		return false, nil
	}
	d.Stage = stage
	return true, nil
}

func (r memDeals) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	if err := r.m.write(); err != nil {
		return false, err
	}
	d, ok := r.m.deals[id]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(r.m.deals, id)
	return true, nil
}

func (r memDeals) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Deal, error) {
	d, ok := r.m.deals[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r memDeals) Exists(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	d, err := r.GetByID(ctx, userID, id)
	return d != nil, err
}

func (r memDeals) List(context.Context, uuid.UUID, listing.DealFilter, int) (listing.Page[models.Deal], error) {
	return listing.Page[models.Deal]{}, nil
}

func (r memDeals) ListBoard(context.Context, uuid.UUID) ([]models.Deal, error) {
	return nil, nil
}

type memActivities struct{ m *memStore }

func (r memActivities) Create(_ context.Context, userID uuid.UUID, f repository.ActivityFields) (*models.Activity, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	a := &models.Activity{ID: uuid.New(), UserID: userID}
	applyActivity(a, f)
	r.m.activities[a.ID] = a
	return a, nil
}

func (r memActivities) Update(_ context.Context, userID, id uuid.UUID, f repository.ActivityFields) (*models.Activity, error) {
	if err := r.m.write(); err != nil {
		return nil, err
	}
	a, ok := r.m.activities[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	applyActivity(a, f)
	return a, nil
}

func applyActivity(a *models.Activity, f repository.ActivityFields) {
	a.Type, a.Subject, a.Description, a.Date = f.Type, f.Subject, f.Description, f.Date
	a.CompanyID, a.ContactID, a.DealID = f.CompanyID, f.ContactID, f.DealID
}

func (r memActivities) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	if err := r.m.write(); err != nil {
		return false, err
	}
	a, ok := r.m.activities[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.m.activities, id)
	return true, nil
}

func (r memActivities) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Activity, error) {
	a, ok := r.m.activities[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r memActivities) List(context.Context, uuid.UUID, listing.ActivityFilter, int) (listing.Page[models.Activity], error) {
	return listing.Page[models.Activity]{}, nil
}
