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

// errNoRow aborts a transaction whose scoped write matched nothing.
var errNoRow = errors.New("no owned row")

const companyColumns = `c.id, c.user_id, c.name, c.industry, c.size, c.website, c.phone,
	c.email, c.address, c.notes, c.created_at, c.updated_at`

const companyCounts = `
	(SELECT count(*) FROM contacts ct WHERE ct.company_id = c.id),
	(SELECT count(*) FROM deals d WHERE d.company_id = c.id)`

type CompanyStore struct {
	pool *pgxpool.Pool
}

func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

func (s *CompanyStore) Create(ctx context.Context, userID uuid.UUID, f repository.CompanyFields, tagNames []string) (*models.Company, error) {
	query := `
		INSERT INTO companies AS c (id, user_id, name, industry, size, website, phone, email, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING ` + companyColumns

	var company *models.Company
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, uuid.New(), userID, f.Name, f.Industry, f.Size,
			f.Website, f.Phone, f.Email, f.Address, f.Notes)
		c, err := scanCompany(row, false)
		if err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		if c.Tags, err = syncTags(ctx, tx, companyTags, userID, c.ID, tagNames); err != nil {
			return err
		}
		company = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyStore) Update(ctx context.Context, userID, companyID uuid.UUID, f repository.CompanyFields, tagNames []string) (*models.Company, error) {
	query := `
		UPDATE companies AS c
		SET name = $3, industry = $4, size = $5, website = $6, phone = $7,
		    email = $8, address = $9, notes = $10, updated_at = now()
		WHERE c.id = $1 AND c.user_id = $2
		RETURNING ` + companyColumns

	var company *models.Company
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, companyID, userID, f.Name, f.Industry, f.Size,
			f.Website, f.Phone, f.Email, f.Address, f.Notes)
		c, err := scanCompany(row, false)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errNoRow
			}
			return fmt.Errorf("update company: %w", err)
		}
		if c.Tags, err = syncTags(ctx, tx, companyTags, userID, c.ID, tagNames); err != nil {
			return err
		}
		company = c
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoRow) {
			return nil, nil
		}
		return nil, err
	}
	return company, nil
}

func (s *CompanyStore) Delete(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1 AND user_id = $2`, companyID, userID)
	if err != nil {
		return false, fmt.Errorf("delete company: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *CompanyStore) GetByID(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, error) {
	query := `SELECT ` + companyColumns + `,` + companyCounts + `
		FROM companies c
		WHERE c.id = $1 AND c.user_id = $2`

	c, err := scanCompany(s.pool.QueryRow(ctx, query, companyID, userID), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}

	tags, err := companyTags.load(ctx, s.pool, []uuid.UUID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Tags = tagsOrEmpty(tags[c.ID])
	return c, nil
}

func (s *CompanyStore) Exists(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	return exists(ctx, s.pool, "companies", userID, companyID)
}

func (s *CompanyStore) List(ctx context.Context, userID uuid.UUID, f listing.CompanyFilter, page int) (listing.Page[models.Company], error) {
	w := newWhere("c.user_id", userID)
	w.search(f.Query, "c.name")
	if f.Industry != "" {
		w.add("c.industry = ?", f.Industry)
	}
	if f.Size != nil {
		w.add("c.size = ?", *f.Size)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM companies c `+w.String(), w.args...).Scan(&total); err != nil {
		return listing.Page[models.Company]{}, fmt.Errorf("count companies: %w", err)
	}

	limit, args := w.page(listing.PageSize, listing.Offset(page))
	query := `SELECT ` + companyColumns + `,` + companyCounts + `
		FROM companies c ` + w.String() + `
		ORDER BY c.created_at DESC` + limit

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return listing.Page[models.Company]{}, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		c, err := scanCompany(rows, true)
		if err != nil {
			return listing.Page[models.Company]{}, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[models.Company]{}, fmt.Errorf("iterate companies: %w", err)
	}

	tags, err := companyTags.load(ctx, s.pool, ids)
	if err != nil {
		return listing.Page[models.Company]{}, err
	}
	for i := range companies {
		companies[i].Tags = tagsOrEmpty(tags[companies[i].ID])
	}
	return listing.NewPage(companies, total, page), nil
}

func scanCompany(row pgx.Row, withCounts bool) (*models.Company, error) {
	var c models.Company
	dest := []any{
		&c.ID, &c.UserID, &c.Name, &c.Industry, &c.Size, &c.Website, &c.Phone,
		&c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	}
	if withCounts {
		dest = append(dest, &c.ContactCount, &c.DealCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Tags = make([]models.Tag, 0)
	return &c, nil
}

// syncTags resolves tagNames and makes them the complete tag set of the
// entity, inside the caller's transaction.
func syncTags(ctx context.Context, tx pgx.Tx, link tagLink, userID, entityID uuid.UUID, tagNames []string) ([]models.Tag, error) {
	tags, err := upsertTags(ctx, tx, userID, tagNames)
	if err != nil {
		return nil, err
	}
	if err := link.replace(ctx, tx, entityID, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// exists is the ownership probe shared by every store. table is always a
// package constant.
func exists(ctx context.Context, q dbtx, table string, userID, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1 AND user_id = $2)`

	var found bool
	if err := q.QueryRow(ctx, query, id, userID).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s ownership: %w", table, err)
	}
	return found, nil
}
