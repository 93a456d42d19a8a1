package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB is a scripted db.Querier. Statements are matched by SQL fragment;
// the first registered fragment contained in the statement wins.
type fakeDB struct {
	mu        sync.Mutex
	results   []fakeResult
	queries   []string
	execs     []fakeExec
	begun     int
	committed int
}

type fakeResult struct {
	fragment string
	rows     [][]any
	err      error
}

type fakeExec struct {
	sql  string
	args []any
}

func newFakeDB() *fakeDB {
	return &fakeDB{}
}

func (f *fakeDB) on(fragment string, rows ...[]any) *fakeDB {
	f.results = append(f.results, fakeResult{fragment: fragment, rows: rows})
	return f
}

func (f *fakeDB) fail(fragment string, err error) *fakeDB {
	f.results = append(f.results, fakeResult{fragment: fragment, err: err})
	return f
}

func (f *fakeDB) lookup(sql string) fakeResult {
	for _, r := range f.results {
		if strings.Contains(sql, r.fragment) {
			return r
		}
	}
	return fakeResult{}
}

func (f *fakeDB) execsMatching(fragment string) []fakeExec {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeExec
	for _, e := range f.execs {
		if strings.Contains(e.sql, fragment) {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, fakeExec{sql: sql, args: args})
	return pgconn.CommandTag{}, f.lookup(sql).err
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sql)
	r := f.lookup(sql)
	if r.err != nil {
		return nil, r.err
	}
	return &fakeRows{rows: r.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sql)
	r := f.lookup(sql)
	switch {
	case r.err != nil:
		return fakeRow{err: r.err}
	case len(r.rows) == 0:
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{vals: r.rows[0]}
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun++
	return &fakeTx{db: f}, nil
}

// fakeTx forwards statements to its fakeDB. Methods the services never call
// are left to the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Commit(context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.committed++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	return nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.vals, dest)
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanValues(r.rows[r.idx], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx], nil
}

func scanValues(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(vals), len(dest))
	}
	for i := range dest {
		if err := assign(dest[i], vals[i]); err != nil {
			return fmt.Errorf("scan column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	target := dv.Elem()
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	sv := reflect.ValueOf(v)
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case sv.Kind() == target.Kind() && sv.Type().ConvertibleTo(target.Type()):
		target.Set(sv.Convert(target.Type()))
	case target.Kind() == reflect.Ptr && sv.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(sv)
		target.Set(p)
	default:
		return fmt.Errorf("cannot scan %T into %T", v, dest)
	}
	return nil
}
