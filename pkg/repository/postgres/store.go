// Package postgres implements repository.Store on PostgreSQL with lib/pq and squirrel.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgreSQL error codes mapped to repository sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store runs queries directly on the pool; WithinTx switches to a *sql.Tx.
type Store struct {
	*queries
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{queries: &queries{db: db}, db: db}
}

// WithinTx implements repository.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on error by default

	if err := fn(ctx, &queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements repository.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// queries is shared by the pool and by transactions; *sql.DB and *sql.Tx both satisfy StdSqlCtx.
type queries struct {
	db squirrel.StdSqlCtx
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

// expectOne turns a zero-row write into ErrNotFound.
func expectOne(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	if rowsAffected != 1 {
		return fmt.Errorf("write affected %d rows, but expected exactly 1", rowsAffected)
	}
	return nil
}

// idEq binds ids as text; squirrel would expand a bare uuid.UUID array into an IN list.
func idEq(column string, id uuid.UUID) squirrel.Eq {
	return squirrel.Eq{column: id.String()}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// orderBy resolves s against the column whitelist; tie is appended so pages are stable.
func orderBy(columns map[string]string, s models.Sort, tie string) []string {
	col, ok := columns[s.Field]
	if !ok {
		col = columns[models.SortCreatedAt]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return []string{col + " " + dir, tie + " " + dir}
}

func paged(b squirrel.SelectBuilder, p models.Page) squirrel.SelectBuilder {
	if p.Size <= 0 {
		return b
	}
	return b.Limit(uint64(p.Size)).Offset(uint64(p.Offset()))
}
