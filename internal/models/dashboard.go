package models

import "github.com/shopspring/decimal"

// KeyMetrics are the headline counters on the dashboard. PipelineValue is
// the summed value of open deals and is zero, never absent, when there
// are none.
type KeyMetrics struct {
	Companies     int             `json:"companies"`
	Contacts      int             `json:"contacts"`
	OpenDeals     int             `json:"open_deals"`
	PipelineValue decimal.Decimal `json:"pipeline_value"`
}

// StageTotal is the count and summed value of open deals in one stage.
type StageTotal struct {
	Stage DealStage       `json:"stage"`
	Label string          `json:"label"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// ActivityCounts always carries every ActivityType key.
type ActivityCounts map[ActivityType]int

type ActivitySummary struct {
	ThisWeek  ActivityCounts `json:"this_week"`
	ThisMonth ActivityCounts `json:"this_month"`
}

// BoardColumn is one stage of the pipeline board with all of its deals.
type BoardColumn struct {
	Stage DealStage       `json:"stage"`
	Label string          `json:"label"`
	Deals []Deal          `json:"deals"`
	Total decimal.Decimal `json:"total"`
}
