package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
	"github.com/shopspring/decimal"
)

// maxDealValue is the first value that no longer fits NUMERIC(15,2).
var maxDealValue = decimal.New(1, 13)

// DealInput leaves optional fields nil to take their defaults: value 0,
// stage prospecting, probability 0.
type DealInput struct {
	CompanyID         uuid.UUID
	ContactID         *uuid.UUID
	Name              string
	Value             *decimal.Decimal
	Stage             *models.DealStage
	Probability       *int
	ExpectedCloseDate *time.Time
	Notes             *string
}

func (in DealInput) fields() (repository.DealFields, error) {
	f := repository.DealFields{
		CompanyID:         in.CompanyID,
		ContactID:         in.ContactID,
		Name:              strings.TrimSpace(in.Name),
		Value:             decimal.Zero,
		Stage:             models.StageProspecting,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Notes:             clean(in.Notes),
	}
	if in.Value != nil {
		f.Value = in.Value.Round(2)
	}
	if in.Stage != nil {
		f.Stage = *in.Stage
	}
	if in.Probability != nil {
		f.Probability = *in.Probability
	}

	var v fieldErrors
	v.required("name", in.Name)
	v.check(in.CompanyID != uuid.Nil, "companyId")
	v.check(f.Value.Abs().LessThan(maxDealValue), "value")
	v.check(f.Stage.Valid(), "stage")
	v.check(f.Probability >= 0 && f.Probability <= 100, "probability")
	if err := v.err(); err != nil {
		return repository.DealFields{}, err
	}
	return f, nil
}

// checkDealRefs verifies the company and, when given, the contact belong to
// userID.
func (s *Service) checkDealRefs(ctx context.Context, userID uuid.UUID, f repository.DealFields) error {
	if err := ensureOwned(ctx, s.companies.Exists, userID, f.CompanyID, "company"); err != nil {
		return err
	}
	if f.ContactID != nil {
		if err := ensureOwned(ctx, s.contacts.Exists, userID, *f.ContactID, "contact"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreateDeal(ctx context.Context, userID uuid.UUID, in DealInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}
	if err := s.checkDealRefs(ctx, userID, f); err != nil {
		return Outcome{}, err
	}

	d, err := s.deals.Create(ctx, userID, f)
	if err != nil {
		return Outcome{}, storeErr("create", "deal", err)
	}
	return newAffected().
		list(KindDeal).
		entity(KindDeal, d.ID).
		entity(KindCompany, d.CompanyID).
		maybe(KindContact, d.ContactID).
		outcome(detailPath(KindDeal, d.ID)), nil
}

func (s *Service) UpdateDeal(ctx context.Context, userID, dealID uuid.UUID, in DealInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}
	existing, err := s.lookupDeal(ctx, userID, dealID)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.checkDealRefs(ctx, userID, f); err != nil {
		return Outcome{}, err
	}

	d, err := s.deals.Update(ctx, userID, dealID, f)
	if err != nil {
		return Outcome{}, storeErr("update", "deal", err)
	}
	if d == nil {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindDeal).
		entity(KindDeal, d.ID).
		entity(KindCompany, d.CompanyID).
		maybe(KindContact, d.ContactID).
		entity(KindCompany, existing.CompanyID).
		maybe(KindContact, existing.ContactID).
		outcome(detailPath(KindDeal, d.ID)), nil
}

// UpdateDealStage writes only the stage of a deal. The outcome carries no
// navigation target.
func (s *Service) UpdateDealStage(ctx context.Context, userID, dealID uuid.UUID, stage models.DealStage) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	if !stage.Valid() {
		return Outcome{}, &ValidationError{Fields: []string{"stage"}}
	}
	existing, err := s.lookupDeal(ctx, userID, dealID)
	if err != nil {
		return Outcome{}, err
	}

	ok, err := s.deals.UpdateStage(ctx, userID, dealID, stage)
	if err != nil {
		return Outcome{}, storeErr("update", "deal stage", err)
	}
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindDeal).
		entity(KindDeal, dealID).
		entity(KindCompany, existing.CompanyID).
		maybe(KindContact, existing.ContactID).
		outcome(""), nil
}

// DeleteDeal removes the deal. Activities linked to it keep existing with
// the link cleared.
func (s *Service) DeleteDeal(ctx context.Context, userID, dealID uuid.UUID) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	existing, err := s.lookupDeal(ctx, userID, dealID)
	if err != nil {
		return Outcome{}, err
	}

	ok, err := s.deals.Delete(ctx, userID, dealID)
	if err != nil {
		return Outcome{}, storeErr("delete", "deal", err)
	}
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindDeal).
		entity(KindDeal, dealID).
		entity(KindCompany, existing.CompanyID).
		maybe(KindContact, existing.ContactID).
		list(KindActivity).
		outcome(KindDeal.listPath()), nil
}

func (s *Service) lookupDeal(ctx context.Context, userID, dealID uuid.UUID) (*models.Deal, error) {
	d, err := s.deals.GetByID(ctx, userID, dealID)
	if err != nil {
		return nil, &OperationError{Op: "look up", Entity: "deal", Err: err}
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}
