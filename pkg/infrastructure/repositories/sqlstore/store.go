// Package sqlstore persists allocation runs to SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/repositories"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var sqlOpen = sql.Open

// Store is a RunRepository backed by database/sql
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	driver  string
}

var _ repositories.RunRepository = (*Store)(nil)

// Open connects to the database, checks the connection and creates the
// schema if needed
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var placeholder sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s store requires a DSN", driver)
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection keeps writes serialized
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		driver:  driver,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes the run, its result tables and its inputs in one transaction
func (s *Store) SaveRun(ctx context.Context, run *entities.Run) (retErr error) {
	if run.ID == uuid.Nil {
		return fmt.Errorf("run %q has no ID", run.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	id := run.ID.String()
	if err := s.exec(ctx, tx, s.builder.Insert("runs").
		Columns("id", "name", "created_at_ns", "policy", "allocation_count", "gap_mass").
		Values(id, run.Name, run.CreatedAt.UnixNano(), run.Policy, len(run.Allocations), run.GapMass())); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err := s.insertAllocations(ctx, tx, id, kindFinal, run.Allocations); err != nil {
		return err
	}
	if err := s.insertAllocations(ctx, tx, id, kindRaw, run.RawAllocations); err != nil {
		return err
	}
	if err := s.insertUtilization(ctx, tx, id, run.Utilization); err != nil {
		return err
	}
	if err := s.insertGaps(ctx, tx, id, run.Gaps); err != nil {
		return err
	}
	if err := s.insertInputs(ctx, tx, id, run.Inputs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) insertAllocations(ctx context.Context, tx *sql.Tx, runID, kind string, rows []entities.Allocation) error {
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		stmt := s.builder.Insert("run_allocations").
			Columns("run_id", "kind", "period", "category", "line", "product", "hours", "mass")
		for _, a := range rows[start:end] {
			stmt = stmt.Values(runID, kind, string(a.Period), string(a.Category), string(a.Line), string(a.Product), a.Hours, a.Mass)
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert %s allocations: %w", kind, err)
		}
	}
	return nil
}

func (s *Store) insertUtilization(ctx context.Context, tx *sql.Tx, runID string, rows []entities.UtilizationRatio) error {
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		stmt := s.builder.Insert("run_utilization").
			Columns("run_id", "period", "category", "line", "capacity", "realized_hours", "ratio")
		for _, u := range rows[start:end] {
			ratio := sql.NullFloat64{Float64: u.Ratio, Valid: u.Defined()}
			stmt = stmt.Values(runID, string(u.Period), string(u.Category), string(u.Line), u.Capacity, u.RealizedHours, ratio)
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert utilization: %w", err)
		}
	}
	return nil
}

func (s *Store) insertGaps(ctx context.Context, tx *sql.Tx, runID string, rows []entities.RedistributionGap) error {
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		stmt := s.builder.Insert("run_gaps").
			Columns("run_id", "period", "category", "product", "mass", "eligible_lines")
		for _, g := range rows[start:end] {
			stmt = stmt.Values(runID, string(g.Period), string(g.Category), string(g.Product), g.Mass, g.EligibleLines)
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert gaps: %w", err)
		}
	}
	return nil
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, stmt sq.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetRun loads a run and all its tables
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*entities.Run, error) {
	query, args, err := s.builder.
		Select("name", "created_at_ns", "policy").
		From("runs").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	run := &entities.Run{ID: id}
	var createdNS int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&run.Name, &createdNS, &run.Policy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdNS).UTC()

	if run.Allocations, err = s.selectAllocations(ctx, id, kindFinal); err != nil {
		return nil, err
	}
	if run.RawAllocations, err = s.selectAllocations(ctx, id, kindRaw); err != nil {
		return nil, err
	}
	if run.Utilization, err = s.selectUtilization(ctx, id); err != nil {
		return nil, err
	}
	if run.Gaps, err = s.selectGaps(ctx, id); err != nil {
		return nil, err
	}
	if run.Inputs, err = s.selectInputs(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) selectAllocations(ctx context.Context, id uuid.UUID, kind string) ([]entities.Allocation, error) {
	query, args, err := s.builder.
		Select("period", "category", "line", "product", "hours", "mass").
		From("run_allocations").
		Where(sq.Eq{"run_id": id.String(), "kind": kind}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s allocations: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entities.Allocation
	for rows.Next() {
		var a entities.Allocation
		if err := rows.Scan(&a.Period, &a.Category, &a.Line, &a.Product, &a.Hours, &a.Mass); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	entities.SortAllocations(out)
	return out, nil
}

func (s *Store) selectUtilization(ctx context.Context, id uuid.UUID) ([]entities.UtilizationRatio, error) {
	query, args, err := s.builder.
		Select("period", "category", "line", "capacity", "realized_hours", "ratio").
		From("run_utilization").
		Where(sq.Eq{"run_id": id.String()}).
		OrderBy("period", "category", "line").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select utilization: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entities.UtilizationRatio
	for rows.Next() {
		var u entities.UtilizationRatio
		var ratio sql.NullFloat64
		if err := rows.Scan(&u.Period, &u.Category, &u.Line, &u.Capacity, &u.RealizedHours, &ratio); err != nil {
			return nil, fmt.Errorf("scan utilization: %w", err)
		}
		u.Ratio = math.NaN()
		if ratio.Valid {
			u.Ratio = ratio.Float64
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) selectGaps(ctx context.Context, id uuid.UUID) ([]entities.RedistributionGap, error) {
	query, args, err := s.builder.
		Select("period", "category", "product", "mass", "eligible_lines").
		From("run_gaps").
		Where(sq.Eq{"run_id": id.String()}).
		OrderBy("period", "category", "product").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select gaps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entities.RedistributionGap
	for rows.Next() {
		var g entities.RedistributionGap
		if err := rows.Scan(&g.Period, &g.Category, &g.Product, &g.Mass, &g.EligibleLines); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListRuns returns run summaries, newest first
func (s *Store) ListRuns(ctx context.Context) ([]entities.RunSummary, error) {
	query, args, err := s.builder.
		Select("id", "name", "created_at_ns", "policy", "allocation_count", "gap_mass").
		From("runs").
		OrderBy("created_at_ns DESC", "name", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]entities.RunSummary, 0)
	for rows.Next() {
		var (
			summary   entities.RunSummary
			id        string
			createdNS int64
		)
		if err := rows.Scan(&id, &summary.Name, &createdNS, &summary.Policy, &summary.Allocations, &summary.GapMass); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if summary.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		summary.CreatedAt = time.Unix(0, createdNS).UTC()
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
