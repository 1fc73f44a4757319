package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
)

// FilterError reports a query parameter whose value is outside its
// allowed domain.
type FilterError struct {
	Param string
	Value string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid value %q for filter %s", e.Value, e.Param)
}

// A nil pointer or empty Query on any filter means no constraint.

type CompanyFilter struct {
	Query    string
	Industry string
	Size     *models.CompanySize
}

type ContactFilter struct {
	Query          string
	CompanyID      *uuid.UUID
	AuthorityLevel *models.AuthorityLevel
	DecisionMaker  *bool
}

type DealFilter struct {
	Query     string
	Stage     *models.DealStage
	CompanyID *uuid.UUID
}

type ActivityFilter struct {
	Query     string
	Type      *models.ActivityType
	CompanyID *uuid.UUID
	ContactID *uuid.UUID
	DealID    *uuid.UUID
}

func ParseCompanyFilter(q url.Values) (CompanyFilter, error) {
	f := CompanyFilter{
		Query:    param(q, "query"),
		Industry: param(q, "industry"),
	}
	if raw := param(q, "size"); raw != "" {
		size := models.CompanySize(raw)
		if !size.Valid() {
			return f, &FilterError{Param: "size", Value: raw}
		}
		f.Size = &size
	}
	return f, nil
}

func ParseContactFilter(q url.Values) (ContactFilter, error) {
	f := ContactFilter{Query: param(q, "query")}

	var err error
	if f.CompanyID, err = uuidParam(q, "company"); err != nil {
		return f, err
	}
	if raw := param(q, "authorityLevel"); raw != "" {
		level := models.AuthorityLevel(raw)
		if !level.Valid() {
			return f, &FilterError{Param: "authorityLevel", Value: raw}
		}
		f.AuthorityLevel = &level
	}
	if raw := param(q, "decisionMaker"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, &FilterError{Param: "decisionMaker", Value: raw}
		}
		f.DecisionMaker = &b
	}
	return f, nil
}

func ParseDealFilter(q url.Values) (DealFilter, error) {
	f := DealFilter{Query: param(q, "query")}

	if raw := param(q, "stage"); raw != "" {
		stage := models.DealStage(raw)
		if !stage.Valid() {
			return f, &FilterError{Param: "stage", Value: raw}
		}
		f.Stage = &stage
	}
	var err error
	if f.CompanyID, err = uuidParam(q, "company"); err != nil {
		return f, err
	}
	return f, nil
}

func ParseActivityFilter(q url.Values) (ActivityFilter, error) {
	f := ActivityFilter{Query: param(q, "query")}

	if raw := param(q, "type"); raw != "" {
		t := models.ActivityType(raw)
		if !t.Valid() {
			return f, &FilterError{Param: "type", Value: raw}
		}
		f.Type = &t
	}
	var err error
	if f.CompanyID, err = uuidParam(q, "company"); err != nil {
		return f, err
	}
	if f.ContactID, err = uuidParam(q, "contact"); err != nil {
		return f, err
	}
	if f.DealID, err = uuidParam(q, "deal"); err != nil {
		return f, err
	}
	return f, nil
}

func param(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}

func uuidParam(q url.Values, key string) (*uuid.UUID, error) {
	raw := param(q, key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &FilterError{Param: key, Value: raw}
	}
	return &id, nil
}
