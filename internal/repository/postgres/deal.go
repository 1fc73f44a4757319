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

const dealColumns = `d.id, d.user_id, d.company_id, co.name, d.contact_id, ct.name, d.name,
	d.value, d.stage, d.probability, d.expected_close_date, d.notes, d.created_at, d.updated_at`

const dealFrom = `
	FROM deals d
	JOIN companies co ON co.id = d.company_id
	LEFT JOIN contacts ct ON ct.id = d.contact_id`

type DealStore struct {
	pool *pgxpool.Pool
}

func NewDealStore(pool *pgxpool.Pool) *DealStore {
	return &DealStore{pool: pool}
}

func (s *DealStore) Create(ctx context.Context, userID uuid.UUID, f repository.DealFields) (*models.Deal, error) {
	insert := `
		INSERT INTO deals (id, user_id, company_id, contact_id, name, value, stage, probability,
		                   expected_close_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

	id := uuid.New()
	var deal *models.Deal
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insert, id, userID, f.CompanyID, f.ContactID, f.Name, f.Value,
			f.Stage, f.Probability, f.ExpectedCloseDate, f.Notes)
		if err != nil {
			return writeErr("insert deal", err)
		}
		if deal, err = s.get(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("read back deal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deal, nil
}

func (s *DealStore) Update(ctx context.Context, userID, dealID uuid.UUID, f repository.DealFields) (*models.Deal, error) {
	update := `
		UPDATE deals
		SET company_id = $3, contact_id = $4, name = $5, value = $6, stage = $7,
		    probability = $8, expected_close_date = $9, notes = $10, updated_at = now()
		WHERE id = $1 AND user_id = $2`

	var deal *models.Deal
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update, dealID, userID, f.CompanyID, f.ContactID, f.Name, f.Value,
			f.Stage, f.Probability, f.ExpectedCloseDate, f.Notes)
		if err != nil {
			return writeErr("update deal", err)
		}
		if tag.RowsAffected() == 0 {
			return errNoRow
		}
		if deal, err = s.get(ctx, tx, userID, dealID); err != nil {
			return fmt.Errorf("read back deal: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoRow) {
			return nil, nil
		}
		return nil, err
	}
	return deal, nil
}

func (s *DealStore) UpdateStage(ctx context.Context, userID, dealID uuid.UUID, stage models.DealStage) (bool, error) {
	query := `
		UPDATE deals
		SET stage = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, dealID, userID, stage)
	if err != nil {
		return false, fmt.Errorf("update deal stage: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *DealStore) Delete(ctx context.Context, userID, dealID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM deals WHERE id = $1 AND user_id = $2`, dealID, userID)
	if err != nil {
		return false, fmt.Errorf("delete deal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *DealStore) GetByID(ctx context.Context, userID, dealID uuid.UUID) (*models.Deal, error) {
	d, err := s.get(ctx, s.pool, userID, dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

func (s *DealStore) get(ctx context.Context, q dbtx, userID, dealID uuid.UUID) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + dealFrom + `
		WHERE d.id = $1 AND d.user_id = $2`
	return scanDeal(q.QueryRow(ctx, query, dealID, userID))
}

func (s *DealStore) Exists(ctx context.Context, userID, dealID uuid.UUID) (bool, error) {
	return exists(ctx, s.pool, "deals", userID, dealID)
}

func (s *DealStore) List(ctx context.Context, userID uuid.UUID, f listing.DealFilter, page int) (listing.Page[models.Deal], error) {
	w := newWhere("d.user_id", userID)
	w.search(f.Query, "d.name")
	if f.Stage != nil {
		w.add("d.stage = ?", *f.Stage)
	}
	if f.CompanyID != nil {
		w.add("d.company_id = ?", *f.CompanyID)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM deals d `+w.String(), w.args...).Scan(&total); err != nil {
		return listing.Page[models.Deal]{}, fmt.Errorf("count deals: %w", err)
	}

	limit, args := w.page(listing.PageSize, listing.Offset(page))
	query := `SELECT ` + dealColumns + dealFrom + ` ` + w.String() + `
		ORDER BY d.created_at DESC` + limit

	deals, err := s.query(ctx, query, args...)
	if err != nil {
		return listing.Page[models.Deal]{}, err
	}
	return listing.NewPage(deals, total, page), nil
}

func (s *DealStore) ListBoard(ctx context.Context, userID uuid.UUID) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + dealFrom + `
		WHERE d.user_id = $1
		ORDER BY d.updated_at DESC`
	return s.query(ctx, query, userID)
}

func (s *DealStore) query(ctx context.Context, query string, args ...any) ([]models.Deal, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
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

func scanDeal(row pgx.Row) (*models.Deal, error) {
	var d models.Deal
	err := row.Scan(
		&d.ID, &d.UserID, &d.CompanyID, &d.CompanyName, &d.ContactID, &d.ContactName, &d.Name,
		&d.Value, &d.Stage, &d.Probability, &d.ExpectedCloseDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
