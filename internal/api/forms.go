package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/shopspring/decimal"
)

// Request bodies carry every scalar as a string so that HTML forms and
// JSON clients share one shape. Blank means absent. Conversion failures
// are reported as validation errors naming the field.

type companyRequest struct {
	Name     string `json:"name" form:"name"`
	Industry string `json:"industry" form:"industry"`
	Size     string `json:"size" form:"size"`
	Website  string `json:"website" form:"website"`
	Phone    string `json:"phone" form:"phone"`
	Email    string `json:"email" form:"email"`
	Address  string `json:"address" form:"address"`
	Notes    string `json:"notes" form:"notes"`
	Tags     string `json:"tags" form:"tags"`
}

func (r companyRequest) input() crm.CompanyInput {
	in := crm.CompanyInput{
		Name:     r.Name,
		Industry: optional(r.Industry),
		Website:  optional(r.Website),
		Phone:    optional(r.Phone),
		Email:    optional(r.Email),
		Address:  optional(r.Address),
		Notes:    optional(r.Notes),
		Tags:     r.Tags,
	}
	if s := strings.TrimSpace(r.Size); s != "" {
		size := models.CompanySize(s)
		in.Size = &size
	}
	return in
}

type contactRequest struct {
	CompanyID       string `json:"companyId" form:"companyId"`
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	JobTitle        string `json:"jobTitle" form:"jobTitle"`
	IsDecisionMaker string `json:"isDecisionMaker" form:"isDecisionMaker"`
	AuthorityLevel  string `json:"authorityLevel" form:"authorityLevel"`
	Notes           string `json:"notes" form:"notes"`
	Tags            string `json:"tags" form:"tags"`
}

func (r contactRequest) input() (crm.ContactInput, error) {
	var p parser
	in := crm.ContactInput{
		CompanyID:       p.requiredUUID("companyId", r.CompanyID),
		Name:            r.Name,
		Email:           optional(r.Email),
		Phone:           optional(r.Phone),
		JobTitle:        optional(r.JobTitle),
		IsDecisionMaker: p.flag("isDecisionMaker", r.IsDecisionMaker),
		Notes:           optional(r.Notes),
		Tags:            r.Tags,
	}
	if s := strings.TrimSpace(r.AuthorityLevel); s != "" {
		level := models.AuthorityLevel(s)
		in.AuthorityLevel = &level
	}
	return in, p.err()
}

type dealRequest struct {
	CompanyID         string `json:"companyId" form:"companyId"`
	ContactID         string `json:"contactId" form:"contactId"`
	Name              string `json:"name" form:"name"`
	Value             string `json:"value" form:"value"`
	Stage             string `json:"stage" form:"stage"`
	Probability       string `json:"probability" form:"probability"`
	ExpectedCloseDate string `json:"expectedCloseDate" form:"expectedCloseDate"`
	Notes             string `json:"notes" form:"notes"`
}

func (r dealRequest) input() (crm.DealInput, error) {
	var p parser
	in := crm.DealInput{
		CompanyID:         p.requiredUUID("companyId", r.CompanyID),
		ContactID:         p.uuid("contactId", r.ContactID),
		Name:              r.Name,
		Value:             p.decimal("value", r.Value),
		Probability:       p.int("probability", r.Probability),
		ExpectedCloseDate: p.date("expectedCloseDate", r.ExpectedCloseDate),
		Notes:             optional(r.Notes),
	}
	if s := strings.TrimSpace(r.Stage); s != "" {
		stage := models.DealStage(s)
		in.Stage = &stage
	}
	return in, p.err()
}

type stageRequest struct {
	Stage string `json:"stage" form:"stage"`
}

type activityRequest struct {
	Type            string `json:"type" form:"type"`
	Subject         string `json:"subject" form:"subject"`
	Description     string `json:"description" form:"description"`
	Date            string `json:"date" form:"date"`
	DurationMinutes string `json:"durationMinutes" form:"durationMinutes"`
	Outcome         string `json:"outcome" form:"outcome"`
	NextSteps       string `json:"nextSteps" form:"nextSteps"`
	CompanyID       string `json:"companyId" form:"companyId"`
	ContactID       string `json:"contactId" form:"contactId"`
	DealID          string `json:"dealId" form:"dealId"`
}

func (r activityRequest) input() (crm.ActivityInput, error) {
	var p parser
	in := crm.ActivityInput{
		Type:            models.ActivityType(strings.TrimSpace(r.Type)),
		Subject:         r.Subject,
		Description:     optional(r.Description),
		Date:            p.date("date", r.Date),
		DurationMinutes: p.int("durationMinutes", r.DurationMinutes),
		Outcome:         optional(r.Outcome),
		NextSteps:       optional(r.NextSteps),
		CompanyID:       p.uuid("companyId", r.CompanyID),
		ContactID:       p.uuid("contactId", r.ContactID),
		DealID:          p.uuid("dealId", r.DealID),
	}
	return in, p.err()
}

// bind decodes a JSON or form body according to Content-Type. A body that
// cannot be decoded at all is a validation error.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil {
		return &crm.ValidationError{Message: "invalid request body"}
	}
	return nil
}

func optional(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}

// dateLayouts are tried in order: full timestamps, the HTML
// datetime-local format, then a bare date at midnight UTC.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parser converts raw strings and remembers which fields failed.
type parser struct {
	fields []string
}

func (p *parser) fail(field string) {
	p.fields = append(p.fields, field)
}

func (p *parser) err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &crm.ValidationError{Fields: p.fields}
}

// requiredUUID leaves a blank value as uuid.Nil for the crm layer to
// report as missing.
func (p *parser) requiredUUID(field, raw string) uuid.UUID {
	if id := p.uuid(field, raw); id != nil {
		return *id
	}
	return uuid.Nil
}

func (p *parser) uuid(field, raw string) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		p.fail(field)
		return nil
	}
	return &id
}

func (p *parser) decimal(field, raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.fail(field)
		return nil
	}
	return &d
}

func (p *parser) int(field, raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(field)
		return nil
	}
	return &n
}

func (p *parser) date(field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	p.fail(field)
	return nil
}

// flag accepts the checkbox value "on" as well as strconv booleans.
func (p *parser) flag(field, raw string) bool {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return false
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(field)
		return false
	}
	return b
}
