// Package entitystore persists parent records together with their dependent
// string values (subjects, domains) as one atomic unit, and reads them back.
//
// A Store is parameterized over the parent type and driven by a Mapping that
// names the tables and columns involved, so every entity shares the same
// insert-parent / insert-children / commit-or-rollback protocol.
//
// # Usage
//
//	store, err := entitystore.New(sqlDB, entitystore.SQLite, announcementMapping)
//	id, err := store.Create(ctx, &announcement, []string{"Fashion", "Tech"})
//	a, found, err := store.GetOne(ctx, id)
package entitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Writer persists a parent and its children atomically.
type Writer[P any] interface {
	Create(ctx context.Context, parent *P, children []string) (uint, error)
}

// Reader reconstructs a parent and its children by id.
type Reader[P any] interface {
	GetOne(ctx context.Context, id uint) (*P, bool, error)
}

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Mapping describes how a parent type maps onto its table, its child table
// and the select used to read it back.
type Mapping[P any] struct {
	// Table is the parent table. It must have an integer identity column "id".
	Table string
	// Columns are the scalar columns written on insert, in the order
	// Values returns them.
	Columns []string
	Values  func(p *P) []any
	SetID   func(p *P, id uint)

	// SelectOne selects one parent row by id, written with '?' placeholders.
	// It may join other tables for derived fields.
	SelectOne string
	Scan      func(row RowScanner, p *P) error

	// ChildTable holds one row per child value: (ChildKey, ChildColumn).
	ChildTable  string
	ChildKey    string
	ChildColumn string
	SetChildren func(p *P, children []string)
}

func (m Mapping[P]) validate() error {
	switch {
	case m.Table == "":
		return errors.New("mapping: table is required")
	case len(m.Columns) == 0:
		return fmt.Errorf("mapping %s: no columns", m.Table)
	case m.Values == nil || m.SetID == nil:
		return fmt.Errorf("mapping %s: Values and SetID are required", m.Table)
	case m.SelectOne == "" || m.Scan == nil:
		return fmt.Errorf("mapping %s: SelectOne and Scan are required", m.Table)
	case m.ChildTable == "" || m.ChildKey == "" || m.ChildColumn == "":
		return fmt.Errorf("mapping %s: child table, key and column are required", m.Table)
	case m.SetChildren == nil:
		return fmt.Errorf("mapping %s: SetChildren is required", m.Table)
	}
	return nil
}

// Store implements Writer and Reader for one parent type.
// It holds no mutable state and is safe for concurrent use.
type Store[P any] struct {
	db      *sql.DB
	dialect Dialect
	mapping Mapping[P]

	insertParent   string
	insertChild    string
	selectParent   string
	selectChildren string
}

var (
	_ Writer[struct{}] = (*Store[struct{}])(nil)
	_ Reader[struct{}] = (*Store[struct{}])(nil)
)

// New prepares the statements for a mapping. It does not touch the database.
func New[P any](db *sql.DB, dialect Dialect, mapping Mapping[P]) (*Store[P], error) {
	if db == nil {
		return nil, errors.New("entitystore: nil database")
	}
	if dialect == nil {
		return nil, errors.New("entitystore: nil dialect")
	}
	if err := mapping.validate(); err != nil {
		return nil, err
	}

	return &Store[P]{
		db:           db,
		dialect:      dialect,
		mapping:      mapping,
		insertParent: dialect.InsertReturningID(mapping.Table, mapping.Columns),
		insertChild: dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)",
			mapping.ChildTable, mapping.ChildKey, mapping.ChildColumn)),
		selectParent: dialect.Rebind(mapping.SelectOne),
		selectChildren: dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY id",
			mapping.ChildColumn, mapping.ChildTable, mapping.ChildKey)),
	}, nil
}

// Create inserts the parent row and one row per child value inside a single
// transaction and returns the generated id, which is also set on parent.
// Any failure rolls the whole write back and returns an error wrapping
// ErrTransactionAborted and the cause; parent's id is left at zero.
func (s *Store[P]) Create(ctx context.Context, parent *P, children []string) (id uint, err error) {
	if parent == nil {
		return 0, aborted(errors.New("nil parent"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, aborted(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		s.mapping.SetID(parent, 0)
	}()

	var generated int64
	if err = tx.QueryRowContext(ctx, s.insertParent, s.mapping.Values(parent)...).Scan(&generated); err != nil {
		return 0, aborted(fmt.Errorf("insert %s: %w", s.mapping.Table, err))
	}
	if generated <= 0 {
		err = aborted(fmt.Errorf("insert %s: store generated invalid id %d", s.mapping.Table, generated))
		return 0, err
	}
	s.mapping.SetID(parent, uint(generated))

	for _, child := range children {
		if _, err = tx.ExecContext(ctx, s.insertChild, generated, child); err != nil {
			return 0, aborted(fmt.Errorf("insert %s %q: %w", s.mapping.ChildTable, child, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, aborted(fmt.Errorf("commit: %w", err))
	}
	return uint(generated), nil
}

// GetOne reads the parent with the given id and its children.
// An unknown id yields (nil, false, nil); other failures wrap ErrRetrievalFailed.
func (s *Store[P]) GetOne(ctx context.Context, id uint) (*P, bool, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, false, retrievalFailed(fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	var parent P
	if err := s.mapping.Scan(conn.QueryRowContext(ctx, s.selectParent, id), &parent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, retrievalFailed(fmt.Errorf("select %s %d: %w", s.mapping.Table, id, err))
	}

	children, err := s.children(ctx, conn, id)
	if err != nil {
		return nil, false, retrievalFailed(err)
	}
	s.mapping.SetChildren(&parent, children)

	return &parent, true, nil
}

func (s *Store[P]) children(ctx context.Context, conn *sql.Conn, id uint) ([]string, error) {
	rows, err := conn.QueryContext(ctx, s.selectChildren, id)
	if err != nil {
		return nil, fmt.Errorf("select %s for %d: %w", s.mapping.ChildTable, id, err)
	}
	defer rows.Close()

	children := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.mapping.ChildTable, err)
		}
		children = append(children, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.mapping.ChildTable, err)
	}
	return children, nil
}

// Dialect returns the dialect the store's statements were built for.
func (s *Store[P]) Dialect() Dialect {
	return s.dialect
}
