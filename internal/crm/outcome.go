package crm

import (
	"github.com/google/uuid"
)

type EntityKind string

const (
	KindCompany  EntityKind = "company"
	KindContact  EntityKind = "contact"
	KindDeal     EntityKind = "deal"
	KindActivity EntityKind = "activity"
)

func (k EntityKind) listPath() string {
	switch k {
	case KindCompany:
		return "/companies"
	case KindContact:
		return "/contacts"
	case KindDeal:
		return "/deals"
	case KindActivity:
		return "/activities"
	}
	return "/"
}

// EntityRef identifies a view that must be refreshed. A nil ID refers to
// the list view of Kind.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   *uuid.UUID `json:"id,omitempty"`
}

// Path is the view path of the reference, e.g. /deals/<id> or /deals.
func (r EntityRef) Path() string {
	if r.ID == nil {
		return r.Kind.listPath()
	}
	return r.Kind.listPath() + "/" + r.ID.String()
}

// Outcome is the result of a successful mutation. NavigateTo is empty for
// operations that should leave the caller where it is.
type Outcome struct {
	NavigateTo string      `json:"redirect,omitempty"`
	Affected   []EntityRef `json:"affected"`
}

// affected builds a de-duplicated reference set in insertion order.
type affected struct {
	refs []EntityRef
	seen map[string]bool
}

func newAffected() *affected {
	return &affected{refs: make([]EntityRef, 0, 6), seen: make(map[string]bool)}
}

func (a *affected) list(kind EntityKind) *affected {
	return a.add(EntityRef{Kind: kind})
}

func (a *affected) entity(kind EntityKind, id uuid.UUID) *affected {
	return a.add(EntityRef{Kind: kind, ID: &id})
}

// maybe adds the entity when id is set.
func (a *affected) maybe(kind EntityKind, id *uuid.UUID) *affected {
	if id == nil {
		return a
	}
	return a.entity(kind, *id)
}

func (a *affected) add(ref EntityRef) *affected {
	key := ref.Path()
	if !a.seen[key] {
		a.seen[key] = true
		a.refs = append(a.refs, ref)
	}
	return a
}

func (a *affected) outcome(navigateTo string) Outcome {
	return Outcome{NavigateTo: navigateTo, Affected: a.refs}
}

func detailPath(kind EntityKind, id uuid.UUID) string {
	return EntityRef{Kind: kind, ID: &id}.Path()
}
