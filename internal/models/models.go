package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the owner of every other record. All CRM data is scoped by
// UserID: a row written by one user is invisible to every other user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Tag is a user-scoped label. (Name, UserID) is unique, and names are
// compared case-sensitively.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Company is the root of the ownership tree. Deleting a company removes
// its contacts, deals and activities at the storage layer.
//
// ContactCount and DealCount are filled by list and detail reads only.
type Company struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"-"`
	Name         string       `json:"name"`
	Industry     *string      `json:"industry"`
	Size         *CompanySize `json:"size"`
	Website      *string      `json:"website"`
	Phone        *string      `json:"phone"`
	Email        *string      `json:"email"`
	Address      *string      `json:"address"`
	Notes        *string      `json:"notes"`
	Tags         []Tag        `json:"tags"`
	ContactCount int          `json:"contact_count"`
	DealCount    int          `json:"deal_count"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Contact always belongs to exactly one company of the same owner.
//
// AuthorityLevel is non-nil only when IsDecisionMaker is true; the
// mutation layer and a table CHECK both enforce it.
type Contact struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"-"`
	CompanyID       uuid.UUID       `json:"company_id"`
	CompanyName     string          `json:"company_name"`
	Name            string          `json:"name"`
	Email           *string         `json:"email"`
	Phone           *string         `json:"phone"`
	JobTitle        *string         `json:"job_title"`
	IsDecisionMaker bool            `json:"is_decision_maker"`
	AuthorityLevel  *AuthorityLevel `json:"authority_level"`
	Notes           *string         `json:"notes"`
	Tags            []Tag           `json:"tags"`
	DealCount       int             `json:"deal_count"`
	ActivityCount   int             `json:"activity_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Deal is one opportunity in the pipeline. Value is an exact decimal
// (NUMERIC(15,2) in Postgres) and serializes to JSON as a string.
type Deal struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"-"`
	CompanyID         uuid.UUID       `json:"company_id"`
	CompanyName       string          `json:"company_name"`
	ContactID         *uuid.UUID      `json:"contact_id"`
	ContactName       *string         `json:"contact_name"`
	Name              string          `json:"name"`
	Value             decimal.Decimal `json:"value"`
	Stage             DealStage       `json:"stage"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	Notes             *string         `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Activity is one entry in the interaction log. Each of the three links
// is independently optional.
type Activity struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"-"`
	Type            ActivityType `json:"type"`
	Subject         string       `json:"subject"`
	Description     *string      `json:"description"`
	Date            time.Time    `json:"date"`
	DurationMinutes *int         `json:"duration_minutes"`
	Outcome         *string      `json:"outcome"`
	NextSteps       *string      `json:"next_steps"`
	CompanyID       *uuid.UUID   `json:"company_id"`
	CompanyName     *string      `json:"company_name"`
	ContactID       *uuid.UUID   `json:"contact_id"`
	ContactName     *string      `json:"contact_name"`
	DealID          *uuid.UUID   `json:"deal_id"`
	DealName        *string      `json:"deal_name"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
