package models

// DealStage is a position in the sales pipeline.
type DealStage string

const (
	StageProspecting   DealStage = "prospecting"
	StageQualification DealStage = "qualification"
	StageProposal      DealStage = "proposal"
	StageNegotiation   DealStage = "negotiation"
	StageClosedWon     DealStage = "closed_won"
	StageClosedLost    DealStage = "closed_lost"
)

// DealStages lists every stage in pipeline order.
var DealStages = []DealStage{
	StageProspecting,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// ClosedStages are the stages that take a deal out of the open pipeline.
var ClosedStages = []DealStage{StageClosedWon, StageClosedLost}

func (s DealStage) Valid() bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal,
		StageNegotiation, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

// IsOpen reports whether the stage counts toward the open pipeline.
func (s DealStage) IsOpen() bool {
	switch s {
	case StageClosedWon, StageClosedLost:
		return false
	}
	return s.Valid()
}

func (s DealStage) Label() string {
	switch s {
	case StageProspecting:
		return "Prospecting"
	case StageQualification:
		return "Qualification"
	case StageProposal:
		return "Proposal"
	case StageNegotiation:
		return "Negotiation"
	case StageClosedWon:
		return "Closed Won"
	case StageClosedLost:
		return "Closed Lost"
	}
	return string(s)
}

// ActivityType is the kind of logged interaction.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
)

// ActivityTypes lists every activity type.
var ActivityTypes = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote:
		return true
	}
	return false
}

func (t ActivityType) Label() string {
	switch t {
	case ActivityCall:
		return "Call"
	case ActivityEmail:
		return "Email"
	case ActivityMeeting:
		return "Meeting"
	case ActivityNote:
		return "Note"
	}
	return string(t)
}

// CompanySize is a headcount bracket.
type CompanySize string

const (
	SizeTiny       CompanySize = "tiny_1_10"
	SizeSmall      CompanySize = "small_11_50"
	SizeMedium     CompanySize = "medium_51_200"
	SizeLarge      CompanySize = "large_201_500"
	SizeEnterprise CompanySize = "enterprise_500_plus"
)

func (s CompanySize) Valid() bool {
	switch s {
	case SizeTiny, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise:
		return true
	}
	return false
}

// Label is the long form used on detail views.
func (s CompanySize) Label() string {
	switch s {
	case SizeTiny:
		return "1-10 employees"
	case SizeSmall:
		return "11-50 employees"
	case SizeMedium:
		return "51-200 employees"
	case SizeLarge:
		return "201-500 employees"
	case SizeEnterprise:
		return "500+ employees"
	}
	return string(s)
}

// ShortLabel is the compact form used in tables.
func (s CompanySize) ShortLabel() string {
	switch s {
	case SizeTiny:
		return "1-10"
	case SizeSmall:
		return "11-50"
	case SizeMedium:
		return "51-200"
	case SizeLarge:
		return "201-500"
	case SizeEnterprise:
		return "500+"
	}
	return string(s)
}

// AuthorityLevel describes a decision maker's purchasing influence.
type AuthorityLevel string

const (
	AuthorityPrimary    AuthorityLevel = "primary"
	AuthoritySecondary  AuthorityLevel = "secondary"
	AuthorityInfluencer AuthorityLevel = "influencer"
)

func (a AuthorityLevel) Valid() bool {
	switch a {
	case AuthorityPrimary, AuthoritySecondary, AuthorityInfluencer:
		return true
	}
	return false
}

func (a AuthorityLevel) Label() string {
	switch a {
	case AuthorityPrimary:
		return "Primary"
	case AuthoritySecondary:
		return "Secondary"
	case AuthorityInfluencer:
		return "Influencer"
	}
	return string(a)
}
