// Package store persists draws tables as named datasets in a SQLite file.
//
// Each dataset gets a row in the datasets table, one row per column in
// dataset_columns, and a generated table holding its rows. Missing float
// values are stored as NULL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/sqlite"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
	"github.com/FocuswithJustin/tidydraws/internal/validation"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	num_rows    INTEGER NOT NULL,
	num_cols    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name);
CREATE TABLE IF NOT EXISTS dataset_columns (
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	PRIMARY KEY (dataset_id, position)
);
`

// Dataset describes a stored table.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	Rows        int       `json:"rows"`
	Cols        int       `json:"cols"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a dataset store backed by one SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}
	db, err := sqlite.OpenFile(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// rowsTable is the generated table holding a dataset's rows.
func rowsTable(id string) string {
	return quoteIdent("rows_" + strings.ReplaceAll(id, "-", ""))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(k draws.Kind) string {
	switch k {
	case draws.Int:
		return "INTEGER"
	case draws.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Save stores t under name and returns the new dataset.
func (s *Store) Save(ctx context.Context, name string, t *draws.Table) (*Dataset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidation("name", "dataset name must not be empty")
	}
	ds := &Dataset{
		ID:          uuid.New().String(),
		Name:        name,
		Fingerprint: t.Fingerprint(),
		Rows:        t.NumRows(),
		Cols:        t.NumCols(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewIO("begin", s.path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (id, name, fingerprint, num_rows, num_cols, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.Fingerprint, ds.Rows, ds.Cols, ds.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, errors.NewIO("insert dataset", s.path, err)
	}

	cols := t.Columns()
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, "row_num INTEGER PRIMARY KEY")
	for i, c := range cols {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dataset_columns (dataset_id, position, name, kind) VALUES (?, ?, ?, ?)`,
			ds.ID, i, c.Name(), c.Kind().String(),
		); err != nil {
			return nil, errors.NewIO("insert column", s.path, err)
		}
		defs = append(defs, fmt.Sprintf("c%d %s", i, sqlType(c.Kind())))
	}

	table := rowsTable(ds.ID)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return nil, errors.NewIO("create rows table", s.path, err)
	}
	if err := insertRows(ctx, tx, table, t); err != nil {
		return nil, errors.NewIO("insert rows", s.path, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewIO("commit", s.path, err)
	}

	logging.DatasetEvent(ctx, "save", ds.ID, "name", ds.Name, "rows", ds.Rows, "cols", ds.Cols)
	return ds, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, t *draws.Table) error {
	cols := t.Columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols)+1)
	for r := 0; r < t.NumRows(); r++ {
		args[0] = r
		for i, c := range cols {
			switch c.Kind() {
			case draws.Int:
				args[i+1] = c.Int(r)
			case draws.Float:
				if f := c.Float(r); math.IsNaN(f) {
					args[i+1] = nil
				} else {
					args[i+1] = f
				}
			default:
				args[i+1] = c.Strings()[r]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the dataset with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, fingerprint, num_rows, num_cols, created_at FROM datasets WHERE id = ?`, id)
	ds, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("dataset", id)
	}
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	return ds, nil
}

// Resolve finds a dataset by id, or by name when no id matches. A name
// shared by several datasets resolves to the newest.
func (s *Store) Resolve(ctx context.Context, ref string) (*Dataset, error) {
	ds, err := s.Get(ctx, ref)
	if err == nil || !errors.Is(err, errors.ErrNotFound) {
		return ds, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, fingerprint, num_rows, num_cols, created_at FROM datasets
		 WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, ref)
	ds, err = scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("dataset", ref)
	}
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	return ds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (*Dataset, error) {
	var ds Dataset
	var created string
	if err := row.Scan(&ds.ID, &ds.Name, &ds.Fingerprint, &ds.Rows, &ds.Cols, &created); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: bad created_at %q: %w", ds.ID, created, err)
	}
	ds.CreatedAt = ts
	return &ds, nil
}

// Load reads the table of the dataset with the given id or name.
func (s *Store) Load(ctx context.Context, ref string) (*draws.Table, error) {
	ds, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, kind FROM dataset_columns WHERE dataset_id = ? ORDER BY position`, ds.ID)
	if err != nil {
		return nil, errors.NewIO("query columns", s.path, err)
	}
	var builders []*draws.Builder
	for rows.Next() {
		var name, kindName string
		if err := rows.Scan(&name, &kindName); err != nil {
			rows.Close()
			return nil, errors.NewIO("scan column", s.path, err)
		}
		kind, ok := draws.ParseKind(kindName)
		if !ok {
			rows.Close()
			return nil, &errors.ParseError{Format: "store", Path: s.path, Message: fmt.Sprintf("column %q has unknown kind %q", name, kindName)}
		}
		builders = append(builders, draws.NewBuilder(name, kind, ds.Rows))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query columns", s.path, err)
	}

	if err := s.loadRows(ctx, ds.ID, builders); err != nil {
		return nil, err
	}
	cols := make([]*draws.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.Column()
	}
	t, err := draws.New(cols...)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", ds.ID)
	}
	if fp := t.Fingerprint(); fp != ds.Fingerprint {
		return nil, &errors.ValidationError{Field: "fingerprint", Value: ds.ID, Message: "stored rows do not match the saved fingerprint"}
	}
	logging.DatasetEvent(ctx, "load", ds.ID, "name", ds.Name, "rows", t.NumRows())
	return t, nil
}

func (s *Store) loadRows(ctx context.Context, id string, builders []*draws.Builder) error {
	names := make([]string, len(builders))
	for i := range builders {
		names[i] = fmt.Sprintf("c%d", i)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY row_num", strings.Join(names, ", "), rowsTable(id))
	if len(builders) == 0 {
		query = fmt.Sprintf("SELECT row_num FROM %s ORDER BY row_num", rowsTable(id))
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return errors.NewIO("query rows", s.path, err)
	}
	defer rows.Close()

	cells := make([]any, max(len(builders), 1))
	for rows.Next() {
		for i := range cells {
			cells[i] = new(any)
		}
		if err := rows.Scan(cells...); err != nil {
			return errors.NewIO("scan row", s.path, err)
		}
		for i, b := range builders {
			if err := appendCell(b, *(cells[i].(*any))); err != nil {
				return &errors.ParseError{Format: "store", Path: s.path, Message: err.Error(), Err: err}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewIO("query rows", s.path, err)
	}
	return nil
}

func appendCell(b *draws.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.AppendMissing()
	case int64:
		b.AppendInt(int(x))
	case float64:
		b.AppendFloat(x)
	case string:
		b.AppendString(x)
	case []byte:
		b.AppendString(string(x))
	default:
		return fmt.Errorf("unexpected cell type %T", v)
	}
	return nil
}

// List returns all datasets, newest first.
func (s *Store) List(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, fingerprint, num_rows, num_cols, created_at FROM datasets ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, errors.NewIO("scan", s.path, err)
		}
		out = append(out, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	return out, nil
}

// FindByFingerprint returns the datasets whose content matches fp.
func (s *Store) FindByFingerprint(ctx context.Context, fp string) ([]Dataset, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Dataset
	for _, ds := range all {
		if ds.Fingerprint == fp {
			out = append(out, ds)
		}
	}
	return out, nil
}

// Delete removes a dataset and its rows.
func (s *Store) Delete(ctx context.Context, ref string) error {
	ds, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", s.path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+rowsTable(ds.ID)); err != nil {
		return errors.NewIO("drop rows table", s.path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, ds.ID); err != nil {
		return errors.NewIO("delete dataset", s.path, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", s.path, err)
	}
	logging.DatasetEvent(ctx, "delete", ds.ID, "name", ds.Name)
	return nil
}
