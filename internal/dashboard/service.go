// Package dashboard computes the per-user aggregate widgets: key
// metrics, pipeline overview, recent activities, deals closing soon and
// the weekly/monthly activity summary.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	weekWindow  = 7 * 24 * time.Hour
	monthWindow = 30 * 24 * time.Hour
)

// Overview is every widget of the dashboard in one payload.
type Overview struct {
	Metrics          models.KeyMetrics      `json:"metrics"`
	Pipeline         []models.StageTotal    `json:"pipeline"`
	RecentActivities []models.Activity      `json:"recent_activities"`
	ClosingSoon      []models.Deal          `json:"closing_soon"`
	ActivitySummary  models.ActivitySummary `json:"activity_summary"`
}

type Service struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

func NewService(repo repository.DashboardRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) KeyMetrics(ctx context.Context, userID uuid.UUID) (models.KeyMetrics, error) {
	var m models.KeyMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountCompanies(gctx, userID)
		m.Companies = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountContacts(gctx, userID)
		m.Contacts = n
		return err
	})
	g.Go(func() error {
		n, total, err := s.repo.OpenDealTotals(gctx, userID)
		m.OpenDeals, m.PipelineValue = n, total
		return err
	})
	if err := g.Wait(); err != nil {
		return models.KeyMetrics{}, fmt.Errorf("key metrics: %w", err)
	}
	return m, nil
}

// PipelineOverview returns open-deal totals in pipeline order. Stages
// with no open deals are left out.
func (s *Service) PipelineOverview(ctx context.Context, userID uuid.UUID) ([]models.StageTotal, error) {
	rows, err := s.repo.PipelineByStage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pipeline overview: %w", err)
	}

	byStage := make(map[models.DealStage]models.StageTotal, len(rows))
	for _, r := range rows {
		byStage[r.Stage] = r
	}

	out := make([]models.StageTotal, 0, len(rows))
	for _, stage := range models.DealStages {
		r, ok := byStage[stage]
		if !ok || !stage.IsOpen() {
			continue
		}
		r.Label = stage.Label()
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		return make([]models.Activity, 0), nil
	}
	activities, err := s.repo.RecentActivities(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	return activities, nil
}

// DealsClosingSoon returns open deals expected to close between now and
// now plus days, both ends inclusive.
func (s *Service) DealsClosingSoon(ctx context.Context, userID uuid.UUID, days int) ([]models.Deal, error) {
	if days < 0 {
		days = 0
	}
	now := s.now()
	deals, err := s.repo.DealsClosingBetween(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("deals closing soon: %w", err)
	}
	return deals, nil
}

// ActivitySummary counts activities created in the trailing 7 and 30
// days. Both windows always carry every activity type.
func (s *Service) ActivitySummary(ctx context.Context, userID uuid.UUID) (models.ActivitySummary, error) {
	now := s.now()
	var week, month map[models.ActivityType]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		week, err = s.repo.ActivityCountsSince(gctx, userID, now.Add(-weekWindow))
		return err
	})
	g.Go(func() error {
		var err error
		month, err = s.repo.ActivityCountsSince(gctx, userID, now.Add(-monthWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ActivitySummary{}, fmt.Errorf("activity summary: %w", err)
	}

	return models.ActivitySummary{
		ThisWeek:  complete(week),
		ThisMonth: complete(month),
	}, nil
}

func complete(counts map[models.ActivityType]int) models.ActivityCounts {
	out := make(models.ActivityCounts, len(models.ActivityTypes))
	for _, t := range models.ActivityTypes {
		out[t] = counts[t]
	}
	return out
}

// Overview computes all five widgets concurrently. The first failure
// cancels the rest.
func (s *Service) Overview(ctx context.Context, userID uuid.UUID, recentLimit, closingDays int) (Overview, error) {
	var o Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Metrics, err = s.KeyMetrics(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		o.Pipeline, err = s.PipelineOverview(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		o.RecentActivities, err = s.RecentActivities(gctx, userID, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		o.ClosingSoon, err = s.DealsClosingSoon(gctx, userID, closingDays)
		return err
	})
	g.Go(func() (err error) {
		o.ActivitySummary, err = s.ActivitySummary(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return o, nil
}
