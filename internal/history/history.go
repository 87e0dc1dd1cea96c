// Package history persists a record of each decoding run in PostgreSQL.
//
// History is opt-in: it exists only when a database URL is configured, and
// it never stores order contents, only counts and file names.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Origin of a run.
const (
	OriginWeb = "web"
	OriginCLI = "cli"
)

// Run is one exported decoding result.
type Run struct {
	ID                uuid.UUID `json:"id"`
	CreatedAt         time.Time `json:"createdAt"`
	Origin            string    `json:"origin"`
	MasterFile        string    `json:"masterFile,omitempty"`
	OrderFiles        []string  `json:"orderFiles"`
	InputLines        int       `json:"inputLines"`
	OutputLines       int       `json:"outputLines"`
	AddedLines        int       `json:"addedLines"`
	UniqueOrders      int       `json:"uniqueOrders"`
	BundlesExpanded   int       `json:"bundlesExpanded"`
	AdditionsApplied  int       `json:"additionsApplied"`
	GeneratedSKUs     []string  `json:"generatedSkus"`
	EmptyBundlePolicy string    `json:"emptyBundlePolicy"`
}

// Recorder stores runs. The workspace calls it after every export.
type Recorder interface {
	Record(ctx context.Context, run Run) (Run, error)
}

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads and writes runs in the decode_runs table.
type Store struct {
	db  DBTX
	now func() time.Time
}

// NewStore returns a Store backed by db.
func NewStore(db DBTX) *Store {
	return &Store{db: db, now: time.Now}
}

const insertRun = `
INSERT INTO decode_runs (
    id, created_at, origin, master_file, order_files,
    input_lines, output_lines, added_lines, unique_orders,
    bundles_expanded, additions_applied, generated_skus, empty_bundle_policy
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const selectRuns = `
SELECT id, created_at, origin, master_file, order_files,
       input_lines, output_lines, added_lines, unique_orders,
       bundles_expanded, additions_applied, generated_skus, empty_bundle_policy
FROM decode_runs`

// Record assigns an id and timestamp when missing and inserts the run.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	if run.OrderFiles == nil {
		run.OrderFiles = []string{}
	}
	if run.GeneratedSKUs == nil {
		run.GeneratedSKUs = []string{}
	}

	_, err := s.db.Exec(ctx, insertRun,
		toPgUUID(run.ID),
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
		run.Origin,
		toPgText(run.MasterFile),
		run.OrderFiles,
		int32(run.InputLines),
		int32(run.OutputLines),
		int32(run.AddedLines),
		int32(run.UniqueOrders),
		int32(run.BundlesExpanded),
		int32(run.AdditionsApplied),
		run.GeneratedSKUs,
		run.EmptyBundlePolicy,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, selectRuns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	run, err := scanRun(s.db.QueryRow(ctx, selectRuns+` WHERE id = $1`, toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Purge deletes runs created before cutoff and returns how many were removed.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM decode_runs WHERE created_at < $1`,
		pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		id         pgtype.UUID
		createdAt  pgtype.Timestamptz
		masterFile pgtype.Text
		counts     [6]int32
		run        Run
	)
	err := row.Scan(
		&id, &createdAt, &run.Origin, &masterFile, &run.OrderFiles,
		&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5],
		&run.GeneratedSKUs, &run.EmptyBundlePolicy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.ID = uuid.UUID(id.Bytes)
	run.CreatedAt = createdAt.Time
	run.MasterFile = masterFile.String
	run.InputLines = int(counts[0])
	run.OutputLines = int(counts[1])
	run.AddedLines = int(counts[2])
	run.UniqueOrders = int(counts[3])
	run.BundlesExpanded = int(counts[4])
	run.AdditionsApplied = int(counts[5])
	return run, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
