// Package datastore implements a generic CRUD engine over a single SQL
// database. Queries are composed from caller-supplied table and column
// names; only values are bound as parameters. Identifiers are trusted
// literally, so the store must only be fed table and column names the
// deployment controls.
package datastore

import (
	"context"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Record maps column names to the values written by Insert and Update.
type Record map[string]any

// Conditions maps column names to the values a row must equal to match.
// Conditions combine with AND; equality is the only comparison.
type Conditions map[string]any

// Row is one result row in column order.
type Row []any

// Store executes generic CRUD statements against one database handle.
// The exported methods never surface engine errors: reads collapse to an
// empty result and writes to false, with the underlying error logged.
// Callers cannot distinguish "no matching rows" from "query failed".
type Store struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// New wraps an open database handle. The handle's driver determines
// placeholder style via sqlx rebinding.
func New(db *sqlx.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log}
}

// Open connects with the given driver and DSN and verifies the
// connection.
func Open(driver, dsn string, log *logrus.Logger) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, log), nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SelectAll returns every row of table. Any engine error is logged and
// reported as an empty result.
func (s *Store) SelectAll(ctx context.Context, table string) []Row {
	rows, err := s.selectRows(ctx, table, nil)
	if err != nil {
		s.log.WithError(err).WithField("table", table).Error("選択エラー")
		return []Row{}
	}
	return rows
}

// Select returns the rows of table matching every condition. An empty
// condition set selects all rows (no WHERE clause is emitted). Any
// engine error is logged and reported as an empty result.
func (s *Store) Select(ctx context.Context, table string, conds Conditions) []Row {
	rows, err := s.selectRows(ctx, table, conds)
	if err != nil {
		s.log.WithError(err).WithField("table", table).Error("選択エラー")
		return []Row{}
	}
	return rows
}

// Insert writes one new row. Reports false on any engine error (unknown
// column, constraint violation, connectivity), true otherwise.
func (s *Store) Insert(ctx context.Context, table string, rec Record) bool {
	if err := s.insertRow(ctx, table, rec); err != nil {
		s.log.WithError(err).WithField("table", table).Error("挿入エラー")
		return false
	}
	return true
}

// Update sets the record's columns on every row matching conds. An empty
// condition set updates all rows of the table.
func (s *Store) Update(ctx context.Context, table string, rec Record, conds Conditions) bool {
	if err := s.updateRows(ctx, table, rec, conds); err != nil {
		s.log.WithError(err).WithField("table", table).Error("更新エラー")
		return false
	}
	return true
}

// Delete removes every row matching conds. An empty condition set
// deletes all rows of the table.
func (s *Store) Delete(ctx context.Context, table string, conds Conditions) bool {
	if err := s.deleteRows(ctx, table, conds); err != nil {
		s.log.WithError(err).WithField("table", table).Error("削除エラー")
		return false
	}
	return true
}

func (s *Store) selectRows(ctx context.Context, table string, conds Conditions) ([]Row, error) {
	query := "SELECT * FROM " + table
	var args []any
	if len(conds) > 0 {
		where, vals := whereClause(conds)
		query += " WHERE " + where
		args = vals
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		result = append(result, Row(vals))
	}
	return result, rows.Err()
}

func (s *Store) insertRow(ctx context.Context, table string, rec Record) error {
	cols := sortedColumns(rec)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args[i] = rec[col]
	}

	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

func (s *Store) updateRows(ctx context.Context, table string, rec Record, conds Conditions) error {
	cols := sortedColumns(rec)
	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(conds))
	for i, col := range cols {
		assignments[i] = col + " = ?"
		args = append(args, rec[col])
	}

	query := "UPDATE " + table + " SET " + strings.Join(assignments, ", ")
	if len(conds) > 0 {
		where, vals := whereClause(conds)
		query += " WHERE " + where
		args = append(args, vals...)
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

func (s *Store) deleteRows(ctx context.Context, table string, conds Conditions) error {
	query := "DELETE FROM " + table
	var args []any
	if len(conds) > 0 {
		where, vals := whereClause(conds)
		query += " WHERE " + where
		args = vals
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

// whereClause builds "col1 = ? AND col2 = ?" plus the matching values.
// Columns are applied in sorted order so statement text is deterministic.
func whereClause(conds Conditions) (string, []any) {
	cols := sortedColumns(conds)
	predicates := make([]string, len(cols))
	vals := make([]any, len(cols))
	for i, col := range cols {
		predicates[i] = col + " = ?"
		vals[i] = conds[col]
	}
	return strings.Join(predicates, " AND "), vals
}

func sortedColumns[M ~map[string]any](m M) []string {
	cols := make([]string, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
