// Package crm holds the ownership-scoped mutation layer for companies,
// contacts, deals and activities.
//
// Every operation runs its checks in a fixed order: identity, field
// validation, ownership of the target record, ownership of every
// referenced record, and only then the write. A failed check returns
// before anything is written.
package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/repository"
)

type Stores struct {
	Companies  repository.CompanyRepository
	Contacts   repository.ContactRepository
	Deals      repository.DealRepository
	Activities repository.ActivityRepository
}

type Service struct {
	companies  repository.CompanyRepository
	contacts   repository.ContactRepository
	deals      repository.DealRepository
	activities repository.ActivityRepository
	now        func() time.Time
}

func NewService(stores Stores) *Service {
	return &Service{
		companies:  stores.Companies,
		contacts:   stores.Contacts,
		deals:      stores.Deals,
		activities: stores.Activities,
		now:        time.Now,
	}
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// ensureOwned turns a failed or negative ownership probe into an error.
func ensureOwned(ctx context.Context, probe func(context.Context, uuid.UUID, uuid.UUID) (bool, error), userID, id uuid.UUID, entity string) error {
	ok, err := probe(ctx, userID, id)
	if err != nil {
		return &OperationError{Op: "look up", Entity: entity, Err: err}
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// clean trims an optional text field; blank becomes nil.
func clean(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
