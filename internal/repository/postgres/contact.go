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

const contactColumns = `ct.id, ct.user_id, ct.company_id, co.name, ct.name, ct.email, ct.phone,
	ct.job_title, ct.is_decision_maker, ct.authority_level, ct.notes, ct.created_at, ct.updated_at`

const contactCounts = `
	(SELECT count(*) FROM deals d WHERE d.contact_id = ct.id),
	(SELECT count(*) FROM activities a WHERE a.contact_id = ct.id)`

type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

// Create inserts the contact, then reads it back joined to its company.
// The composite foreign key rejects a company owned by another user.
func (s *ContactStore) Create(ctx context.Context, userID uuid.UUID, f repository.ContactFields, tagNames []string) (*models.Contact, error) {
	insert := `
		INSERT INTO contacts (id, user_id, company_id, name, email, phone, job_title,
		                      is_decision_maker, authority_level, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

	id := uuid.New()
	var contact *models.Contact
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insert, id, userID, f.CompanyID, f.Name, f.Email, f.Phone,
			f.JobTitle, f.IsDecisionMaker, f.AuthorityLevel, f.Notes)
		if err != nil {
			return writeErr("insert contact", err)
		}
		c, err := s.get(ctx, tx, userID, id, false)
		if err != nil {
			return fmt.Errorf("read back contact: %w", err)
		}
		if c.Tags, err = syncTags(ctx, tx, contactTags, userID, id, tagNames); err != nil {
			return err
		}
		contact = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactStore) Update(ctx context.Context, userID, contactID uuid.UUID, f repository.ContactFields, tagNames []string) (*models.Contact, error) {
	update := `
		UPDATE contacts
		SET company_id = $3, name = $4, email = $5, phone = $6, job_title = $7,
		    is_decision_maker = $8, authority_level = $9, notes = $10, updated_at = now()
		WHERE id = $1 AND user_id = $2`

	var contact *models.Contact
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update, contactID, userID, f.CompanyID, f.Name, f.Email, f.Phone,
			f.JobTitle, f.IsDecisionMaker, f.AuthorityLevel, f.Notes)
		if err != nil {
			return writeErr("update contact", err)
		}
		if tag.RowsAffected() == 0 {
			return errNoRow
		}
		c, err := s.get(ctx, tx, userID, contactID, false)
		if err != nil {
			return fmt.Errorf("read back contact: %w", err)
		}
		if c.Tags, err = syncTags(ctx, tx, contactTags, userID, contactID, tagNames); err != nil {
			return err
		}
		contact = c
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoRow) {
			return nil, nil
		}
		return nil, err
	}
	return contact, nil
}

func (s *ContactStore) Delete(ctx context.Context, userID, contactID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ContactStore) GetByID(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error) {
	c, err := s.get(ctx, s.pool, userID, contactID, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}

	tags, err := contactTags.load(ctx, s.pool, []uuid.UUID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Tags = tagsOrEmpty(tags[c.ID])
	return c, nil
}

func (s *ContactStore) get(ctx context.Context, q dbtx, userID, contactID uuid.UUID, withCounts bool) (*models.Contact, error) {
	cols := contactColumns
	if withCounts {
		cols += "," + contactCounts
	}
	query := `SELECT ` + cols + `
		FROM contacts ct
		JOIN companies co ON co.id = ct.company_id
		WHERE ct.id = $1 AND ct.user_id = $2`

	return scanContact(q.QueryRow(ctx, query, contactID, userID), withCounts)
}

func (s *ContactStore) Exists(ctx context.Context, userID, contactID uuid.UUID) (bool, error) {
	return exists(ctx, s.pool, "contacts", userID, contactID)
}

func (s *ContactStore) List(ctx context.Context, userID uuid.UUID, f listing.ContactFilter, page int) (listing.Page[models.Contact], error) {
	w := newWhere("ct.user_id", userID)
	w.search(f.Query, "ct.name", "ct.email", "ct.phone", "ct.job_title")
	if f.CompanyID != nil {
		w.add("ct.company_id = ?", *f.CompanyID)
	}
	if f.AuthorityLevel != nil {
		w.add("ct.authority_level = ?", *f.AuthorityLevel)
	}
	if f.DecisionMaker != nil {
		w.add("ct.is_decision_maker = ?", *f.DecisionMaker)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM contacts ct `+w.String(), w.args...).Scan(&total); err != nil {
		return listing.Page[models.Contact]{}, fmt.Errorf("count contacts: %w", err)
	}

	limit, args := w.page(listing.PageSize, listing.Offset(page))
	query := `SELECT ` + contactColumns + `,` + contactCounts + `
		FROM contacts ct
		JOIN companies co ON co.id = ct.company_id ` + w.String() + `
		ORDER BY ct.created_at DESC` + limit

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return listing.Page[models.Contact]{}, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		c, err := scanContact(rows, true)
		if err != nil {
			return listing.Page[models.Contact]{}, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[models.Contact]{}, fmt.Errorf("iterate contacts: %w", err)
	}

	tags, err := contactTags.load(ctx, s.pool, ids)
	if err != nil {
		return listing.Page[models.Contact]{}, err
	}
	for i := range contacts {
		contacts[i].Tags = tagsOrEmpty(tags[contacts[i].ID])
	}
	return listing.NewPage(contacts, total, page), nil
}

func scanContact(row pgx.Row, withCounts bool) (*models.Contact, error) {
	var c models.Contact
	dest := []any{
		&c.ID, &c.UserID, &c.CompanyID, &c.CompanyName, &c.Name, &c.Email, &c.Phone,
		&c.JobTitle, &c.IsDecisionMaker, &c.AuthorityLevel, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	}
	if withCounts {
		dest = append(dest, &c.DealCount, &c.ActivityCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Tags = make([]models.Tag, 0)
	return &c, nil
}
