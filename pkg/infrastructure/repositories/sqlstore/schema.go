package sqlstore

// Column types are chosen to mean the same thing in SQLite and Postgres
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		created_at_ns    BIGINT NOT NULL,
		policy           TEXT NOT NULL,
		allocation_count INTEGER NOT NULL,
		gap_mass         DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS runs_created_idx ON runs (created_at_ns)`,
	`CREATE TABLE IF NOT EXISTS run_allocations (
		run_id   TEXT NOT NULL,
		kind     TEXT NOT NULL,
		period   TEXT NOT NULL,
		category TEXT NOT NULL,
		line     TEXT NOT NULL,
		product  TEXT NOT NULL,
		hours    DOUBLE PRECISION NOT NULL,
		mass     DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_allocations_run_idx ON run_allocations (run_id, kind)`,
	`CREATE TABLE IF NOT EXISTS run_utilization (
		run_id         TEXT NOT NULL,
		period         TEXT NOT NULL,
		category       TEXT NOT NULL,
		line           TEXT NOT NULL,
		capacity       DOUBLE PRECISION NOT NULL,
		realized_hours DOUBLE PRECISION NOT NULL,
		ratio          DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS run_utilization_run_idx ON run_utilization (run_id)`,
	`CREATE TABLE IF NOT EXISTS run_gaps (
		run_id         TEXT NOT NULL,
		period         TEXT NOT NULL,
		category       TEXT NOT NULL,
		product        TEXT NOT NULL,
		mass           DOUBLE PRECISION NOT NULL,
		eligible_lines INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_gaps_run_idx ON run_gaps (run_id)`,
	`CREATE TABLE IF NOT EXISTS run_demand (
		run_id    TEXT NOT NULL,
		period    TEXT NOT NULL,
		category  TEXT NOT NULL,
		product   TEXT NOT NULL,
		demand_kg DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_demand_run_idx ON run_demand (run_id)`,
	`CREATE TABLE IF NOT EXISTS run_capacity (
		run_id          TEXT NOT NULL,
		period          TEXT NOT NULL,
		category        TEXT NOT NULL,
		line            TEXT NOT NULL,
		available_hours DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_capacity_run_idx ON run_capacity (run_id)`,
	`CREATE TABLE IF NOT EXISTS run_rates (
		run_id      TEXT NOT NULL,
		period      TEXT NOT NULL,
		category    TEXT NOT NULL,
		line        TEXT NOT NULL,
		product     TEXT NOT NULL,
		kg_per_hour DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS run_rates_run_idx ON run_rates (run_id)`,
}

const (
	kindFinal = "final"
	kindRaw   = "raw"
)

// insertBatch bounds the rows per INSERT statement
const insertBatch = 250
