package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

const activityColumns = `a.id, a.user_id, a.type, a.subject, a.description, a.date, a.duration_minutes,
	a.outcome, a.next_steps, a.company_id, co.name, a.contact_id, ct.name, a.deal_id, d.name,
	a.created_at, a.updated_at`

const activityFrom = `
	FROM activities a
	LEFT JOIN companies co ON co.id = a.company_id
	LEFT JOIN contacts ct ON ct.id = a.contact_id
	LEFT JOIN deals d ON d.id = a.deal_id`

type ActivityStore struct {
	pool *pgxpool.Pool
}

func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

func (s *ActivityStore) Create(ctx context.Context, userID uuid.UUID, f repository.ActivityFields) (*models.Activity, error) {
	insert := `
		INSERT INTO activities (id, user_id, type, subject, description, date, duration_minutes,
		                        outcome, next_steps, company_id, contact_id, deal_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`

	id := uuid.New()
	var activity *models.Activity
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insert, id, userID, f.Type, f.Subject, f.Description, f.Date,
			f.DurationMinutes, f.Outcome, f.NextSteps, f.CompanyID, f.ContactID, f.DealID)
		if err != nil {
			return writeErr("insert activity", err)
		}
		if activity, err = s.get(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("read back activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ActivityStore) Update(ctx context.Context, userID, activityID uuid.UUID, f repository.ActivityFields) (*models.Activity, error) {
	update := `
		UPDATE activities
		SET type = $3, subject = $4, description = $5, date = $6, duration_minutes = $7,
		    outcome = $8, next_steps = $9, company_id = $10, contact_id = $11, deal_id = $12,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2`

	var activity *models.Activity
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update, activityID, userID, f.Type, f.Subject, f.Description, f.Date,
			f.DurationMinutes, f.Outcome, f.NextSteps, f.CompanyID, f.ContactID, f.DealID)
		if err != nil {
			return writeErr("update activity", err)
		}
		if tag.RowsAffected() == 0 {
			return errNoRow
		}
		if activity, err = s.get(ctx, tx, userID, activityID); err != nil {
			return fmt.Errorf("read back activity: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoRow) {
			return nil, nil
		}
		return nil, err
	}
	return activity, nil
}

func (s *ActivityStore) Delete(ctx context.Context, userID, activityID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND user_id = $2`, activityID, userID)
	if err != nil {
		return false, fmt.Errorf("delete activity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ActivityStore) GetByID(ctx context.Context, userID, activityID uuid.UUID) (*models.Activity, error) {
	a, err := s.get(ctx, s.pool, userID, activityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (s *ActivityStore) get(ctx context.Context, q dbtx, userID, activityID uuid.UUID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + activityFrom + `
		WHERE a.id = $1 AND a.user_id = $2`
	return scanActivity(q.QueryRow(ctx, query, activityID, userID))
}

func (s *ActivityStore) List(ctx context.Context, userID uuid.UUID, f listing.ActivityFilter, page int) (listing.Page[models.Activity], error) {
	w := newWhere("a.user_id", userID)
	w.search(f.Query, "a.subject", "a.description", "a.outcome")
	if f.Type != nil {
		w.add("a.type = ?", *f.Type)
	}
	if f.CompanyID != nil {
		w.add("a.company_id = ?", *f.CompanyID)
	}
	if f.ContactID != nil {
		w.add("a.contact_id = ?", *f.ContactID)
	}
	if f.DealID != nil {
		w.add("a.deal_id = ?", *f.DealID)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM activities a `+w.String(), w.args...).Scan(&total); err != nil {
		return listing.Page[models.Activity]{}, fmt.Errorf("count activities: %w", err)
	}

	limit, args := w.page(listing.PageSize, listing.Offset(page))
	query := `SELECT ` + activityColumns + activityFrom + ` ` + w.String() + `
		ORDER BY a.created_at DESC` + limit

	activities, err := queryActivities(ctx, s.pool, query, args...)
	if err != nil {
		return listing.Page[models.Activity]{}, err
	}
	return listing.NewPage(activities, total, page), nil
}

func queryActivities(ctx context.Context, q dbtx, query string, args ...any) ([]models.Activity, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	err := row.Scan(
		&a.ID, &a.UserID, &a.Type, &a.Subject, &a.Description, &a.Date, &a.DurationMinutes,
		&a.Outcome, &a.NextSteps, &a.CompanyID, &a.CompanyName, &a.ContactID, &a.ContactName,
		&a.DealID, &a.DealName, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
