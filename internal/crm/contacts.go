package crm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

type ContactInput struct {
	CompanyID       uuid.UUID
	Name            string
	Email           *string
	Phone           *string
	JobTitle        *string
	IsDecisionMaker bool
	AuthorityLevel  *models.AuthorityLevel
	Notes           *string
	Tags            string
}

// fields validates the input. An authority level is dropped, not
// rejected, when the contact is not a decision maker.
func (in ContactInput) fields() (repository.ContactFields, error) {
	var v fieldErrors
	v.required("name", in.Name)
	v.check(in.CompanyID != uuid.Nil, "companyId")

	level := in.AuthorityLevel
	if !in.IsDecisionMaker {
		level = nil
	}
	v.check(level == nil || level.Valid(), "authorityLevel")
	if err := v.err(); err != nil {
		return repository.ContactFields{}, err
	}

	return repository.ContactFields{
		CompanyID:       in.CompanyID,
		Name:            strings.TrimSpace(in.Name),
		Email:           clean(in.Email),
		Phone:           clean(in.Phone),
		JobTitle:        clean(in.JobTitle),
		IsDecisionMaker: in.IsDecisionMaker,
		AuthorityLevel:  level,
		Notes:           clean(in.Notes),
	}, nil
}

func (s *Service) CreateContact(ctx context.Context, userID uuid.UUID, in ContactInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}
	if err := ensureOwned(ctx, s.companies.Exists, userID, f.CompanyID, "company"); err != nil {
		return Outcome{}, err
	}

	c, err := s.contacts.Create(ctx, userID, f, ParseTagNames(in.Tags))
	if err != nil {
		return Outcome{}, storeErr("create", "contact", err)
	}
	return newAffected().
		list(KindContact).
		entity(KindContact, c.ID).
		entity(KindCompany, c.CompanyID).
		outcome(detailPath(KindContact, c.ID)), nil
}

func (s *Service) UpdateContact(ctx context.Context, userID, contactID uuid.UUID, in ContactInput) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	f, err := in.fields()
	if err != nil {
		return Outcome{}, err
	}

	existing, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return Outcome{}, &OperationError{Op: "look up", Entity: "contact", Err: err}
	}
	if existing == nil {
		return Outcome{}, ErrNotFound
	}
	if err := ensureOwned(ctx, s.companies.Exists, userID, f.CompanyID, "company"); err != nil {
		return Outcome{}, err
	}

	c, err := s.contacts.Update(ctx, userID, contactID, f, ParseTagNames(in.Tags))
	if err != nil {
		return Outcome{}, storeErr("update", "contact", err)
	}
	if c == nil {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindContact).
		entity(KindContact, c.ID).
		entity(KindCompany, c.CompanyID).
		entity(KindCompany, existing.CompanyID).
		outcome(detailPath(KindContact, c.ID)), nil
}

// DeleteContact removes the contact. Deals and activities that pointed
// at it keep existing with the link cleared.
func (s *Service) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) (Outcome, error) {
	if err := requireUser(userID); err != nil {
		return Outcome{}, err
	}
	existing, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return Outcome{}, &OperationError{Op: "look up", Entity: "contact", Err: err}
	}
	if existing == nil {
		return Outcome{}, ErrNotFound
	}

	ok, err := s.contacts.Delete(ctx, userID, contactID)
	if err != nil {
		return Outcome{}, storeErr("delete", "contact", err)
	}
	if !ok {
		return Outcome{}, ErrNotFound
	}
	return newAffected().
		list(KindContact).
		entity(KindContact, contactID).
		entity(KindCompany, existing.CompanyID).
		list(KindDeal).
		list(KindActivity).
		outcome(KindContact.listPath()), nil
}
