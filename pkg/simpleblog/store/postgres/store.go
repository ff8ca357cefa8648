// Package postgres provides a Store backed by a PostgreSQL jsonb document
// table, one table per entity type.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslab/simple-blog/pkg/simpleblog"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements simpleblog.Store over a `(id text, doc jsonb)` table.
type Store[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	db    DBTX
	table string
}

// NewStore creates a PostgreSQL store over the given table.
func NewStore[T any, PT interface {
	*T
	simpleblog.Entity
}](db DBTX, table string) simpleblog.Store[PT] {
	return &Store[T, PT]{db: db, table: table}
}

// NewStoreWithPool creates a PostgreSQL store with a connection pool.
func NewStoreWithPool[T any, PT interface {
	*T
	simpleblog.Entity
}](pool *pgxpool.Pool, table string) simpleblog.Store[PT] {
	return &Store[T, PT]{db: pool, table: table}
}

// EnsureTable creates the document table if it does not exist.
func EnsureTable(ctx context.Context, db DBTX, table string) error {
	if err := checkIdentifier(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id   text PRIMARY KEY,
			doc  jsonb NOT NULL
		)`, table)
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", table, err)
	}
	return nil
}

// Error handling helper
func (s *Store[T, PT]) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate id in %s", s.table)
		case "42P01": // undefined_table
			return fmt.Errorf("table %s does not exist - call EnsureTable first", s.table)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store[T, PT]) Insert(ctx context.Context, entity PT) (PT, error) {
	entity.SetEntityID(uuid.NewString())
	doc, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, s.table)
	if _, err := s.db.Exec(ctx, query, entity.EntityID(), doc); err != nil {
		return nil, s.handlePostgresError("insert", err)
	}
	return entity, nil
}

func (s *Store[T, PT]) Replace(ctx context.Context, id string, entity PT) (bool, error) {
	entity.SetEntityID(id)
	doc, err := json.Marshal(entity)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`UPDATE %s SET doc = $2 WHERE id = $1`, s.table)
	tag, err := s.db.Exec(ctx, query, id, doc)
	if err != nil {
		return false, s.handlePostgresError("replace", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store[T, PT]) FindByID(ctx context.Context, id string) (PT, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, s.table)

	var doc []byte
	err := s.db.QueryRow(ctx, query, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrNotFound
		}
		return nil, s.handlePostgresError("find", err)
	}

	entity := PT(new(T))
	if err := json.Unmarshal(doc, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// FindAll opens a server-side read; rows are fetched as the returned cursor
// is pulled, so a slow consumer throttles the query.
func (s *Store[T, PT]) FindAll(ctx context.Context, opts ...simpleblog.ListOption) (simpleblog.Cursor[PT], error) {
	options := simpleblog.NewListOptions(opts...)

	query := fmt.Sprintf(`SELECT doc FROM %s`, s.table)
	if options.SortField != "" {
		if err := checkIdentifier(options.SortField); err != nil {
			return nil, err
		}
		direction := "ASC"
		if options.Descending {
			direction = "DESC"
		}
		query += fmt.Sprintf(` ORDER BY doc->>'%s' %s`, options.SortField, direction)
	}

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, s.handlePostgresError("list", err)
	}
	return &rowsCursor[T, PT]{rows: rows}, nil
}

func (s *Store[T, PT]) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return s.handlePostgresError("delete", err)
	}
	return nil
}

func (s *Store[T, PT]) DeleteAll(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s`, s.table)
	if _, err := s.db.Exec(ctx, query); err != nil {
		return s.handlePostgresError("delete all", err)
	}
	return nil
}

// checkIdentifier rejects anything that cannot be spliced into a query as a
// table or jsonb field name.
func checkIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is required")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// rowsCursor adapts pgx.Rows to the Cursor interface.
type rowsCursor[T any, PT interface {
	*T
	simpleblog.Entity
}] struct {
	rows    pgx.Rows
	current PT
	err     error
}

func (c *rowsCursor[T, PT]) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}

	var doc []byte
	if err := c.rows.Scan(&doc); err != nil {
		c.err = err
		return false
	}
	entity := PT(new(T))
	if err := json.Unmarshal(doc, entity); err != nil {
		c.err = err
		return false
	}
	c.current = entity
	return true
}

func (c *rowsCursor[T, PT]) Value() PT { return c.current }

func (c *rowsCursor[T, PT]) Err() error { return c.err }

func (c *rowsCursor[T, PT]) Close() error {
	c.rows.Close()
	return nil
}
