package crm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

type CompanyInput struct {
	Name     string
	Industry *string
	Size     *models.CompanySize
	Website  *string
	Phone    *string
	Email    *string
	Address  *string
	Notes    *string

	// Tags is the raw comma-separated tag list. It replaces the
	// company's whole tag set.
	Tags string
}

func (in CompanyInput) fields() (repository.CompanyFields, error) {
	var v fieldErrors
	v.required("name", in.Name)
	v.check(in.Size == nil || in.Size.Valid(), "size")
	if err := v.err(); err != nil {
		return repository.CompanyFields{}, err
	}
	return repository.CompanyFields{
		Name:     strings.TrimSpace(in.Name),
		Industry: clean(in.Industry),
		Size:     in.Size,
		Website:  clean(in.Website),
		Phone:    clean(in.Phone),
		Email:    clean(in.Email),
		Address:  clean(in.Address),
		Notes:    clean(in.Notes),
	}, nil
}

func (s *Service) CreateCompany(ctx context.Context, userID uuid.UUID, in CompanyInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}

	c, err := s.companies.Create(ctx, userID, f, ParseTagNames(in.Tags))
	if err != nil {
		return Outcome{}, storeErr("create", "company", err)
	}
	return newAffected().
		list(KindCompany).
		entity(KindCompany, c.ID).
		outcome(detailPath(KindCompany, c.ID)), nil
}

func (s *Service) UpdateCompany(ctx context.Context, userID, companyID uuid.UUID, in CompanyInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}
	if err := ensureOwned(ctx, s.companies.Exists, userID, companyID, "company"); err != nil {
		return Outcome{}, err
	}

	c, err := s.companies.Update(ctx, userID, companyID, f, ParseTagNames(in.Tags))
	if err != nil {
		return Outcome{}, storeErr("update", "company", err)
	}
	if c == nil {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindCompany).
		entity(KindCompany, c.ID).
		outcome(detailPath(KindCompany, c.ID)), nil
}

// DeleteCompany removes the company. Its contacts, deals and activities
// go with it, so their list views are affected too.
func (s *Service) DeleteCompany(ctx context.Context, userID, companyID uuid.UUID) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	if err := ensureOwned(ctx, s.companies.Exists, userID, companyID, "company"); err != nil {
		return Outcome{}, err
	}

	ok, err := s.companies.Delete(ctx, userID, companyID)
	if err != nil {
		return Outcome{}, storeErr("delete", "company", err)
	}
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindCompany).
		entity(KindCompany, companyID).
		list(KindContact).
		list(KindDeal).
		list(KindActivity).
		outcome(KindCompany.listPath()), nil
}
