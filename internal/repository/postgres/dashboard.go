package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/shopspring/decimal"
)

// DashboardStore runs the aggregate reads behind the dashboard. Sums are
// computed in NUMERIC and scanned straight into decimal.Decimal.
type DashboardStore struct {
	pool *pgxpool.Pool
}

func NewDashboardStore(pool *pgxpool.Pool) *DashboardStore {
	return &DashboardStore{pool: pool}
}

func closedStages() []string {
	out := make([]string, len(models.ClosedStages))
	for i, s := range models.ClosedStages {
		out[i] = string(s)
	}
	return out
}

func (s *DashboardStore) CountCompanies(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.count(ctx, "companies", userID)
}

func (s *DashboardStore) CountContacts(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.count(ctx, "contacts", userID)
}

func (s *DashboardStore) count(ctx context.Context, table string, userID uuid.UUID) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM `+table+` WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *DashboardStore) OpenDealTotals(ctx context.Context, userID uuid.UUID) (int, decimal.Decimal, error) {
	query := `
		SELECT count(*), COALESCE(sum(value), 0)
		FROM deals
		WHERE user_id = $1 AND stage <> ALL($2)`

	var n int
	var total decimal.Decimal
	if err := s.pool.QueryRow(ctx, query, userID, closedStages()).Scan(&n, &total); err != nil {
		return 0, decimal.Zero, fmt.Errorf("open deal totals: %w", err)
	}
	return n, total, nil
}

func (s *DashboardStore) PipelineByStage(ctx context.Context, userID uuid.UUID) ([]models.StageTotal, error) {
	query := `
		SELECT stage, count(*), COALESCE(sum(value), 0)
		FROM deals
		WHERE user_id = $1 AND stage <> ALL($2)
		GROUP BY stage`

	rows, err := s.pool.Query(ctx, query, userID, closedStages())
	if err != nil {
		return nil, fmt.Errorf("pipeline by stage: %w", err)
	}
	defer rows.Close()

	totals := make([]models.StageTotal, 0)
	for rows.Next() {
		var t models.StageTotal
		if err := rows.Scan(&t.Stage, &t.Count, &t.Value); err != nil {
			return nil, fmt.Errorf("scan stage total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage totals: %w", err)
	}
	return totals, nil
}

func (s *DashboardStore) RecentActivities(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + activityFrom + `
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2`
	return queryActivities(ctx, s.pool, query, userID, limit)
}

func (s *DashboardStore) DealsClosingBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + dealFrom + `
		WHERE d.user_id = $1
		  AND d.stage <> ALL($2)
		  AND d.expected_close_date >= $3
		  AND d.expected_close_date <= $4
		ORDER BY d.expected_close_date ASC`

	rows, err := s.pool.Query(ctx, query, userID, closedStages(), from, to)
	if err != nil {
		return nil, fmt.Errorf("deals closing soon: %w", err)
	}
	defer rows.Close()

	deals := make([]models.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return deals, nil
}

func (s *DashboardStore) ActivityCountsSince(ctx context.Context, userID uuid.UUID, since time.Time) (map[models.ActivityType]int, error) {
	query := `
		SELECT type, count(*)
		FROM activities
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY type`

	rows, err := s.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("activity counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ActivityType]int)
	for rows.Next() {
		var t models.ActivityType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan activity count: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity counts: %w", err)
	}
	return counts, nil
}
