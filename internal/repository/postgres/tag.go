package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/minicrm/internal/models"
	"github.com/lalith-99/minicrm/internal/repository"
)

// DefaultTagColor is given to tags created implicitly from a tag list.
const DefaultTagColor = "#6B7280"

type TagStore struct {
	pool *pgxpool.Pool
}

func NewTagStore(pool *pgxpool.Pool) *TagStore {
	return &TagStore{pool: pool}
}

func (s *TagStore) Upsert(ctx context.Context, userID uuid.UUID, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		tags, err = upsertTags(ctx, tx, userID, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *TagStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE user_id = $1
		ORDER BY name`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// upsertTags resolves each distinct name to a tag row, in input order.
//
// ON CONFLICT DO UPDATE (rather than DO NOTHING) makes RETURNING yield
// the existing row, and a concurrent insert of the same name blocks on
// the unique index until the winner commits, then reuses its row. Rows
// are written in name order so two saves of the same names lock them
// in the same order.
func upsertTags(ctx context.Context, q dbtx, userID uuid.UUID, names []string) ([]models.Tag, error) {
	query := `
		INSERT INTO tags (id, user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name, user_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, user_id, name, color, created_at`

	distinct := make([]string, 0, len(names))
	byName := make(map[string]models.Tag, len(names))
	for _, name := range names {
		if _, ok := byName[name]; ok {
			continue
		}
		byName[name] = models.Tag{}
		distinct = append(distinct, name)
	}

	sorted := slices.Clone(distinct)
	slices.Sort(sorted)
	for _, name := range sorted {
		var t models.Tag
		err := q.QueryRow(ctx, query, uuid.New(), userID, name, DefaultTagColor).Scan(
			&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: upsert tag %q: %w", repository.ErrTags, name, err)
		}
		byName[name] = t
	}

	tags := make([]models.Tag, 0, len(distinct))
	for _, name := range distinct {
		tags = append(tags, byName[name])
	}
	return tags, nil
}

// tagLink names a join table and the column pointing at the tagged entity.
type tagLink struct {
	table  string
	column string
}

var (
	companyTags = tagLink{table: "company_tags", column: "company_id"}
	contactTags = tagLink{table: "contact_tags", column: "contact_id"}
)

// replace drops every existing link of entityID and links tags instead.
func (l tagLink) replace(ctx context.Context, q dbtx, entityID uuid.UUID, tags []models.Tag) error {
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, l.table, l.column), entityID); err != nil {
		return fmt.Errorf("%w: clear %s: %w", repository.ErrTags, l.table, err)
	}
	if len(tags) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, tag_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`, l.table, l.column)
	if _, err := q.Exec(ctx, query, entityID, ids); err != nil {
		return fmt.Errorf("%w: link %s: %w", repository.ErrTags, l.table, err)
	}
	return nil
}

// load returns the tags of each entity in ids, sorted by name.
func (l tagLink) load(ctx context.Context, q dbtx, ids []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT j.%s, t.id, t.user_id, t.name, t.color, t.created_at
		FROM %s j
		JOIN tags t ON t.id = j.tag_id
		WHERE j.%s = ANY($1)
		ORDER BY t.name`, l.column, l.table, l.column)

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner uuid.UUID
		var t models.Tag
		if err := rows.Scan(&owner, &t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", l.table, err)
		}
		out[owner] = append(out[owner], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", l.table, err)
	}
	return out, nil
}

// tagsOrEmpty keeps JSON output as [] for untagged rows.
func tagsOrEmpty(tags []models.Tag) []models.Tag {
	if tags == nil {
		return make([]models.Tag, 0)
	}
	return tags
}
