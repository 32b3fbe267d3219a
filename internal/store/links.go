package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/packc/internal/linker"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Build identifies one recorded compilation.
type Build struct {
	ID             string
	Seq            int64
	Namespace      string
	RecursionLimit int
	Fingerprint    string
}

// VariableRow is one recorded variable location.
type VariableRow struct {
	Function     string
	Name         string
	Kind         string
	Holder       string
	LocationKind string
}

// WriteLinks records the link table of a build in one transaction.
// Writing the same build ID again replaces its rows.
func (s *Store) WriteLinks(ctx context.Context, id, fingerprint string, lk *linker.Linker) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write links: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("write links: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, seq, namespace, recursion_limit, fingerprint)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM builds), ?, ?, ?)
	`, id, lk.Namespace(), lk.Limit(), fingerprint)
	if err != nil {
		return fmt.Errorf("write build: %w", err)
	}

	for _, e := range lk.Functions() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO functions (build_id, function_id, depth, path) VALUES (?, ?, ?, ?)
		`, id, e.Function, e.Depth, e.Path)
		if err != nil {
			return fmt.Errorf("write function %s: %w", e.Function, err)
		}
	}
	for i, v := range lk.Variables() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variables (build_id, seq, function_id, name, kind, holder, location_kind)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, i, v.Function, v.Name, v.Kind, v.Location.Holder, v.Location.Kind.String())
		if err != nil {
			return fmt.Errorf("write variable %s: %w", v.Name, err)
		}
	}
	for _, c := range lk.Constants() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO constants (build_id, holder, value) VALUES (?, ?, ?)
		`, id, lk.Constant(c).Holder, c.Int)
		if err != nil {
			return fmt.Errorf("write constant: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write links: %w", err)
	}
	return nil
}

// LatestBuild returns the most recently written build.
func (s *Store) LatestBuild(ctx context.Context) (Build, error) {
	var b Build
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, namespace, recursion_limit, fingerprint
		FROM builds
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&b.ID, &b.Seq, &b.Namespace, &b.RecursionLimit, &b.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, fmt.Errorf("latest build: %w", ErrNotFound)
	}
	if err != nil {
		return Build{}, fmt.Errorf("latest build: %w", err)
	}
	return b, nil
}

// Functions returns the function table of a build, synthetic functions
// first, then by function and depth.
func (s *Store) Functions(ctx context.Context, buildID string) ([]linker.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT function_id, depth, path
		FROM functions
		WHERE build_id = ?
		ORDER BY depth < 0 DESC, function_id COLLATE BINARY ASC, depth ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer rows.Close()

	entries := []linker.Entry{}
	for rows.Next() {
		var e linker.Entry
		if err := rows.Scan(&e.Function, &e.Depth, &e.Path); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return entries, nil
}

// Variables returns the variable table of a build in link order.
func (s *Store) Variables(ctx context.Context, buildID string) ([]VariableRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT function_id, name, kind, holder, location_kind
		FROM variables
		WHERE build_id = ?
		ORDER BY seq ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}
	defer rows.Close()

	vars := []VariableRow{}
	for rows.Next() {
		var v VariableRow
		if err := rows.Scan(&v.Function, &v.Name, &v.Kind, &v.Holder, &v.LocationKind); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		vars = append(vars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variables: %w", err)
	}
	return vars, nil
}

// LookupPath maps a function resource location back to its function and
// depth.
func (s *Store) LookupPath(ctx context.Context, buildID, path string) (linker.Entry, error) {
	e := linker.Entry{Path: path}
	err := s.db.QueryRowContext(ctx, `
		SELECT function_id, depth FROM functions WHERE build_id = ? AND path = ?
	`, buildID, path).Scan(&e.Function, &e.Depth)
	if errors.Is(err, sql.ErrNoRows) {
		return linker.Entry{}, fmt.Errorf("lookup %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return linker.Entry{}, fmt.Errorf("lookup %s: %w", path, err)
	}
	return e, nil
}

// LookupHolder maps a score holder back to its variable.
func (s *Store) LookupHolder(ctx context.Context, buildID, holder string) (VariableRow, error) {
	var v VariableRow
	err := s.db.QueryRowContext(ctx, `
		SELECT function_id, name, kind, holder, location_kind
		FROM variables
		WHERE build_id = ? AND holder = ?
		ORDER BY seq ASC
		LIMIT 1
	`, buildID, holder).Scan(&v.Function, &v.Name, &v.Kind, &v.Holder, &v.LocationKind)
	if errors.Is(err, sql.ErrNoRows) {
		return VariableRow{}, fmt.Errorf("lookup %s: %w", holder, ErrNotFound)
	}
	if err != nil {
		return VariableRow{}, fmt.Errorf("lookup %s: %w", holder, err)
	}
	return v, nil
}
