package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

func (s *Store) insertInputs(ctx context.Context, tx *sql.Tx, runID string, in entities.RunInputs) error {
	demand := in.Demand.Keys()
	for start := 0; start < len(demand); start += insertBatch {
		end := min(start+insertBatch, len(demand))
		stmt := s.builder.Insert("run_demand").
			Columns("run_id", "period", "category", "product", "demand_kg")
		for _, k := range demand[start:end] {
			stmt = stmt.Values(runID, string(k.Period), string(k.Category), string(k.Product), in.Demand[k])
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert demand: %w", err)
		}
	}

	capacity := in.Capacity.Keys()
	for start := 0; start < len(capacity); start += insertBatch {
		end := min(start+insertBatch, len(capacity))
		stmt := s.builder.Insert("run_capacity").
			Columns("run_id", "period", "category", "line", "available_hours")
		for _, k := range capacity[start:end] {
			hours := in.Capacity[k]
			if math.IsInf(hours, 0) || math.IsNaN(hours) {
				return fmt.Errorf("capacity %s/%s/%s is not finite", k.Period, k.Category, k.Line)
			}
			stmt = stmt.Values(runID, string(k.Period), string(k.Category), string(k.Line), hours)
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert capacity: %w", err)
		}
	}

	rates := in.Rates.Keys()
	for start := 0; start < len(rates); start += insertBatch {
		end := min(start+insertBatch, len(rates))
		stmt := s.builder.Insert("run_rates").
			Columns("run_id", "period", "category", "line", "product", "kg_per_hour")
		for _, k := range rates[start:end] {
			stmt = stmt.Values(runID, string(k.Period), string(k.Category), string(k.Line), string(k.Product), in.Rates[k])
		}
		if err := s.exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("insert rates: %w", err)
		}
	}
	return nil
}

func (s *Store) selectInputs(ctx context.Context, id uuid.UUID) (entities.RunInputs, error) {
	in := entities.RunInputs{
		Demand:   make(entities.DemandTable),
		Capacity: make(entities.CapacityTable),
		Rates:    make(entities.RateTable),
	}
	where := sq.Eq{"run_id": id.String()}

	err := s.query(ctx, s.builder.Select("period", "category", "product", "demand_kg").From("run_demand").Where(where),
		func(rows *sql.Rows) error {
			var k entities.DemandKey
			var v float64
			if err := rows.Scan(&k.Period, &k.Category, &k.Product, &v); err != nil {
				return fmt.Errorf("scan demand: %w", err)
			}
			in.Demand[k] = v
			return nil
		})
	if err != nil {
		return in, err
	}

	err = s.query(ctx, s.builder.Select("period", "category", "line", "available_hours").From("run_capacity").Where(where),
		func(rows *sql.Rows) error {
			var k entities.CapacityKey
			var v float64
			if err := rows.Scan(&k.Period, &k.Category, &k.Line, &v); err != nil {
				return fmt.Errorf("scan capacity: %w", err)
			}
			in.Capacity[k] = v
			return nil
		})
	if err != nil {
		return in, err
	}

	err = s.query(ctx, s.builder.Select("period", "category", "line", "product", "kg_per_hour").From("run_rates").Where(where),
		func(rows *sql.Rows) error {
			var k entities.RateKey
			var v float64
			if err := rows.Scan(&k.Period, &k.Category, &k.Line, &k.Product, &v); err != nil {
				return fmt.Errorf("scan rate: %w", err)
			}
			in.Rates[k] = v
			return nil
		})
	return in, err
}

// query runs a select and hands each row to scan
func (s *Store) query(ctx context.Context, stmt sq.SelectBuilder, scan func(*sql.Rows) error) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
