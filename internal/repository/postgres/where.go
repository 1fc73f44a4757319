package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/minicrm/internal/repository"
)

const pgForeignKeyViolation = "23503"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so helpers can run
// inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// where accumulates AND-ed conditions and their positional arguments.
// The first condition is always the owner filter.
type where struct {
	conds []string
	args  []any
}

func newWhere(ownerColumn string, userID any) *where {
	w := &where{}
	w.add(ownerColumn+" = ?", userID)
	return w
}

// add appends cond, replacing each ? with the next $n placeholder.
func (w *where) add(cond string, args ...any) {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			i++
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
}

// search ORs a case-insensitive substring match across columns. A blank
// term adds nothing.
func (w *where) search(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	w.args = append(w.args, "%"+escapeLike(term)+"%")
	placeholder := "$" + strconv.Itoa(len(w.args))

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE " + placeholder
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) String() string {
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause with the
// full argument list.
func (w *where) page(limit, offset int) (string, []any) {
	args := append(append([]any(nil), w.args...), limit, offset)
	n := len(w.args)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// writeErr wraps a failed insert or update. A foreign key violation means
// a referenced row vanished or belongs to another owner.
func writeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%s: %w", op, repository.ErrReference)
	}
	return fmt.Errorf("%s: %w", op, err)
}
