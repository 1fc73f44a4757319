package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/shopspring/decimal"
)

// Every method takes the owning userID and filters by it. A record owned
// by someone else is indistinguishable from one that does not exist:
// single-row reads return nil, nil and writes report nothing affected.

// ErrTags marks a failure while resolving or linking tags, so callers can
// tell it apart from a failure of the entity write itself.
var ErrTags = errors.New("save tags")

// ErrReference is returned by a write whose foreign key does not resolve
// to a row of the same owner.
var ErrReference = errors.New("referenced record not found")

// ErrEmailTaken is returned by UserRepository.Create for a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// CompanyFields are the writable columns of a company.
type CompanyFields struct {
	Name     string
	Industry *string
	Size     *models.CompanySize
	Website  *string
	Phone    *string
	Email    *string
	Address  *string
	Notes    *string
}

type ContactFields struct {
	CompanyID       uuid.UUID
	Name            string
	Email           *string
	Phone           *string
	JobTitle        *string
	IsDecisionMaker bool
	AuthorityLevel  *models.AuthorityLevel
	Notes           *string
}

type DealFields struct {
	CompanyID         uuid.UUID
	ContactID         *uuid.UUID
	Name              string
	Value             decimal.Decimal
	Stage             models.DealStage
	Probability       int
	ExpectedCloseDate *time.Time
	Notes             *string
}

type ActivityFields struct {
	Type            models.ActivityType
	Subject         string
	Description     *string
	Date            time.Time
	DurationMinutes *int
	Outcome         *string
	NextSteps       *string
	CompanyID       *uuid.UUID
	ContactID       *uuid.UUID
	DealID          *uuid.UUID
}

type UserRepository interface {
	Create(ctx context.Context, email, name, passwordHash string) (*models.User, error)

	// GetByID returns nil, nil if not found.
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail is the only unscoped lookup; login uses it.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type TagRepository interface {
	// Upsert resolves names to tag rows, creating the missing ones.
	// The result follows the order of names.
	Upsert(ctx context.Context, userID uuid.UUID, names []string) ([]models.Tag, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Tag, error)
}

// CompanyRepository writes the company row and replaces its tag links in
// one transaction.
type CompanyRepository interface {
	Create(ctx context.Context, userID uuid.UUID, f CompanyFields, tagNames []string) (*models.Company, error)

	// Update returns nil, nil when no owned row matched.
	Update(ctx context.Context, userID, companyID uuid.UUID, f CompanyFields, tagNames []string) (*models.Company, error)

	// Delete reports whether an owned row was removed.
	Delete(ctx context.Context, userID, companyID uuid.UUID) (bool, error)

	GetByID(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, error)
	Exists(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, f listing.CompanyFilter, page int) (listing.Page[models.Company], error)
}

type ContactRepository interface {
	Create(ctx context.Context, userID uuid.UUID, f ContactFields, tagNames []string) (*models.Contact, error)
	Update(ctx context.Context, userID, contactID uuid.UUID, f ContactFields, tagNames []string) (*models.Contact, error)
	Delete(ctx context.Context, userID, contactID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error)
	Exists(ctx context.Context, userID, contactID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, f listing.ContactFilter, page int) (listing.Page[models.Contact], error)
}

type DealRepository interface {
	Create(ctx context.Context, userID uuid.UUID, f DealFields) (*models.Deal, error)
	Update(ctx context.Context, userID, dealID uuid.UUID, f DealFields) (*models.Deal, error)

	// UpdateStage writes the stage column and updated_at, nothing else.
	UpdateStage(ctx context.Context, userID, dealID uuid.UUID, stage models.DealStage) (bool, error)

	Delete(ctx context.Context, userID, dealID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, userID, dealID uuid.UUID) (*models.Deal, error)
	Exists(ctx context.Context, userID, dealID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, f listing.DealFilter, page int) (listing.Page[models.Deal], error)

	// ListBoard returns every deal of the user, most recently updated first.
	ListBoard(ctx context.Context, userID uuid.UUID) ([]models.Deal, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, userID uuid.UUID, f ActivityFields) (*models.Activity, error)
	Update(ctx context.Context, userID, activityID uuid.UUID, f ActivityFields) (*models.Activity, error)
	Delete(ctx context.Context, userID, activityID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, userID, activityID uuid.UUID) (*models.Activity, error)
	List(ctx context.Context, userID uuid.UUID, f listing.ActivityFilter, page int) (listing.Page[models.Activity], error)
}

// DashboardRepository holds the read-only aggregate queries. Open means
// a stage outside models.ClosedStages.
type DashboardRepository interface {
	CountCompanies(ctx context.Context, userID uuid.UUID) (int, error)
	CountContacts(ctx context.Context, userID uuid.UUID) (int, error)

	// OpenDealTotals returns the number of open deals and their summed value.
	OpenDealTotals(ctx context.Context, userID uuid.UUID) (int, decimal.Decimal, error)

	// PipelineByStage returns one row per stage that has open deals.
	PipelineByStage(ctx context.Context, userID uuid.UUID) ([]models.StageTotal, error)

	// RecentActivities orders by created_at descending.
	RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)

	// DealsClosingBetween returns open deals with from <= expected_close_date <= to,
	// soonest first.
	DealsClosingBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Deal, error)

	// ActivityCountsSince counts activities created at or after since, by type.
	// Types with no rows are absent from the map.
	ActivityCountsSince(ctx context.Context, userID uuid.UUID, since time.Time) (map[models.ActivityType]int, error)
}
