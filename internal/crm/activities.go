package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

// ActivityInput links are each optional. An omitted link is fine; a
// link that does not resolve to a record of the same user is not.
type ActivityInput struct {
	Type            models.ActivityType
	Subject         string
	Description     *string
	Date            *time.Time
	DurationMinutes *int
	Outcome         *string
	NextSteps       *string
	CompanyID       *uuid.UUID
	ContactID       *uuid.UUID
	DealID          *uuid.UUID
}

func (in ActivityInput) fields(now time.Time) (repository.ActivityFields, error) {
	var v fieldErrors
	v.check(in.Type.Valid(), "type")
	v.required("subject", in.Subject)
	v.check(in.DurationMinutes == nil || *in.DurationMinutes >= 0, "durationMinutes")
	if err := v.err(); err != nil {
		return repository.ActivityFields{}, err
	}

	date := now
	if in.Date != nil {
		date = *in.Date
	}
	return repository.ActivityFields{
		Type:            in.Type,
		Subject:         strings.TrimSpace(in.Subject),
		Description:     clean(in.Description),
		Date:            date,
		DurationMinutes: in.DurationMinutes,
		Outcome:         clean(in.Outcome),
		NextSteps:       clean(in.NextSteps),
		CompanyID:       in.CompanyID,
		ContactID:       in.ContactID,
		DealID:          in.DealID,
	}, nil
}

func (s *Service) checkActivityRefs(ctx context.Context, userID uuid.UUID, f repository.ActivityFields) error {
	if f.CompanyID != nil {
		if err := ensureOwned(ctx, s.companies.Exists, userID, *f.CompanyID, "company"); err != nil {
			return err
		}
	}
	if f.ContactID != nil {
		if err := ensureOwned(ctx, s.contacts.Exists, userID, *f.ContactID, "contact"); err != nil {
			return err
		}
	}
	if f.DealID != nil {
		if err := ensureOwned(ctx, s.deals.Exists, userID, *f.DealID, "deal"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreateActivity(ctx context.Context, userID uuid.UUID, in ActivityInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields(s.now())
	if err != nil {
		return Outcome{}, err
	}
	if err := s.checkActivityRefs(ctx, userID, f); err != nil {
		return Outcome{}, err
	}

	a, err := s.activities.Create(ctx, userID, f)
	if err != nil {
		return Outcome{}, storeErr("create", "activity", err)
	}
	return newAffected().
		list(KindActivity).
		entity(KindActivity, a.ID).
		maybe(KindCompany, a.CompanyID).
		maybe(KindContact, a.ContactID).
		maybe(KindDeal, a.DealID).
		outcome(detailPath(KindActivity, a.ID)), nil
}

func (s *Service) UpdateActivity(ctx context.Context, userID, activityID uuid.UUID, in ActivityInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields(s.now())
	if err != nil {
		return Outcome{}, err
	}
	existing, err := s.lookupActivity(ctx, userID, activityID)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.checkActivityRefs(ctx, userID, f); err != nil {
		return Outcome{}, err
	}

	a, err := s.activities.Update(ctx, userID, activityID, f)
	if err != nil {
		return Outcome{}, storeErr("update", "activity", err)
	}
	if a == nil {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindActivity).
		entity(KindActivity, a.ID).
		maybe(KindCompany, a.CompanyID).
		maybe(KindContact, a.ContactID).
		maybe(KindDeal, a.DealID).
		maybe(KindCompany, existing.CompanyID).
		maybe(KindContact, existing.ContactID).
		maybe(KindDeal, existing.DealID).
		outcome(detailPath(KindActivity, a.ID)), nil
}

func (s *Service) DeleteActivity(ctx context.Context, userID, activityID uuid.UUID) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	existing, err := s.lookupActivity(ctx, userID, activityID)
	if err != nil {
		return Outcome{}, err
	}

	ok, err := s.activities.Delete(ctx, userID, activityID)
	if err != nil {
		return Outcome{}, storeErr("delete", "activity", err)
	}
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindActivity).
		entity(KindActivity, activityID).
		maybe(KindCompany, existing.CompanyID).
		maybe(KindContact, existing.ContactID).
		maybe(KindDeal, existing.DealID).
		outcome(KindActivity.listPath()), nil
}

func (s *Service) lookupActivity(ctx context.Context, userID, activityID uuid.UUID) (*models.Activity, error) {
	a, err := s.activities.GetByID(ctx, userID, activityID)
	if err != nil {
		return nil, &OperationError{Op: "look up", Entity: "activity", Err: err}
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}
