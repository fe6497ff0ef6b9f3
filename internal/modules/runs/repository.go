// Package runs persists simulation runs in the SQLite run store.
package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundsim/internal/database"
	"github.com/aristath/fundsim/internal/domain"
)

// recordBatchSize is how many investor rows go into one transaction.
const recordBatchSize = 50000

// SegmentRun is a segment's inputs, derived parameters and resulting statistics.
type SegmentRun struct {
	Segment domain.Segment
	Params  domain.LognormalParams
	Report  domain.StatisticsReport
}

// Run is everything stored about one run except the investor rows.
type Run struct {
	Meta        domain.RunMetadata
	Overall     domain.StatisticsReport
	Segments    []SegmentRun
	Percentiles []domain.Percentile
}

// Repository reads and writes runs.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a run repository over an already migrated database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "runs").Logger(),
	}
}

// Save writes run metadata, segments and percentiles in one transaction.
func (r *Repository) Save(ctx context.Context, run Run) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		o := run.Overall
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, scenario, started_at, finished_at, investors, mean, median, stddev, variance, min, max, total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.Meta.ID, run.Meta.Scenario,
			run.Meta.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Meta.FinishedAt.UTC().Format(time.RFC3339Nano),
			o.Count, nullable(o.Mean), nullable(o.Median), nullable(o.StdDev), nullable(o.Variance),
			nullable(o.Min), nullable(o.Max), nullable(o.Sum),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for i, s := range run.Segments {
			rep := s.Report
			_, err := tx.ExecContext(ctx, `
				INSERT INTO run_segments (run_id, position, label, population, target_mean, target_variance, seed, mu, sigma,
					investors, mean, median, stddev, variance, min, max, total)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.Meta.ID, i, s.Segment.Label, s.Segment.Population, s.Segment.Mean, s.Segment.Variance, s.Segment.Seed,
				s.Params.Mu, s.Params.Sigma,
				rep.Count, nullable(rep.Mean), nullable(rep.Median), nullable(rep.StdDev), nullable(rep.Variance),
				nullable(rep.Min), nullable(rep.Max), nullable(rep.Sum),
			)
			if err != nil {
				return fmt.Errorf("failed to insert segment %q: %w", s.Segment.Label, err)
			}
		}

		for _, p := range run.Percentiles {
			if _, err := tx.ExecContext(ctx, `INSERT INTO run_percentiles (run_id, p, value) VALUES (?, ?, ?)`,
				run.Meta.ID, p.P, p.Value); err != nil {
				return fmt.Errorf("failed to insert percentile %v: %w", p.P, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Str("run_id", run.Meta.ID).Int("segments", len(run.Segments)).Msg("Saved run")
	return nil
}

// SaveRecords inserts investor rows in batches of recordBatchSize, one
// transaction per batch.
func (r *Repository) SaveRecords(ctx context.Context, runID string, records []domain.InvestorRecord) error {
	for start := 0; start < len(records); start += recordBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+recordBatchSize, len(records))

		err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO investors (run_id, investor_id, segment, holding) VALUES (?, ?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("failed to prepare investor insert: %w", err)
			}
			defer stmt.Close()

			for _, rec := range records[start:end] {
				if _, err := stmt.ExecContext(ctx, runID, rec.ID, rec.Segment, rec.Holding); err != nil {
					return fmt.Errorf("failed to insert investor %d: %w", rec.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	r.log.Debug().Str("run_id", runID).Int("records", len(records)).Msg("Saved investor records")
	return nil
}

// Get loads one run with its segments and percentiles.
func (r *Repository) Get(ctx context.Context, id string) (Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, scenario, started_at, finished_at, investors, mean, median, stddev, variance, min, max, total
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	segRows, err := r.db.QueryContext(ctx, `
		SELECT label, population, target_mean, target_variance, seed, mu, sigma,
			investors, mean, median, stddev, variance, min, max, total
		FROM run_segments WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to query segments: %w", err)
	}
	defer segRows.Close()

	for segRows.Next() {
		var s SegmentRun
		var stats nullStats
		if err := segRows.Scan(
			&s.Segment.Label, &s.Segment.Population, &s.Segment.Mean, &s.Segment.Variance, &s.Segment.Seed,
			&s.Params.Mu, &s.Params.Sigma,
			&s.Report.Count, &stats.mean, &stats.median, &stats.stddev, &stats.variance, &stats.min, &stats.max, &stats.total,
		); err != nil {
			return Run{}, fmt.Errorf("failed to scan segment: %w", err)
		}
		stats.apply(&s.Report)
		run.Segments = append(run.Segments, s)
	}
	if err := segRows.Err(); err != nil {
		return Run{}, fmt.Errorf("failed to iterate segments: %w", err)
	}

	pRows, err := r.db.QueryContext(ctx, `SELECT p, value FROM run_percentiles WHERE run_id = ? ORDER BY p`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to query percentiles: %w", err)
	}
	defer pRows.Close()

	for pRows.Next() {
		var p domain.Percentile
		if err := pRows.Scan(&p.P, &p.Value); err != nil {
			return Run{}, fmt.Errorf("failed to scan percentile: %w", err)
		}
		run.Percentiles = append(run.Percentiles, p)
	}
	if err := pRows.Err(); err != nil {
		return Run{}, fmt.Errorf("failed to iterate percentiles: %w", err)
	}

	return run, nil
}

// List returns the most recent runs (metadata and overall statistics only).
func (r *Repository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scenario, started_at, finished_at, investors, mean, median, stddev, variance, min, max, total
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// CountRecords returns how many investor rows were stored for a run.
func (r *Repository) CountRecords(ctx context.Context, runID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM investors WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count investors: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var started, finished string
	var stats nullStats

	err := row.Scan(
		&run.Meta.ID, &run.Meta.Scenario, &started, &finished, &run.Overall.Count,
		&stats.mean, &stats.median, &stats.stddev, &stats.variance, &stats.min, &stats.max, &stats.total,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	stats.apply(&run.Overall)

	if run.Meta.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("invalid started_at %q: %w", started, err)
	}
	if run.Meta.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("invalid finished_at %q: %w", finished, err)
	}
	return run, nil
}

// nullStats scans nullable statistic columns; NULL reads back as NaN.
type nullStats struct {
	mean, median, stddev, variance, min, max, total sql.NullFloat64
}

func (n nullStats) apply(r *domain.StatisticsReport) {
	r.Mean = orNaN(n.mean)
	r.Median = orNaN(n.median)
	r.StdDev = orNaN(n.stddev)
	r.Variance = orNaN(n.variance)
	r.Min = orNaN(n.min)
	r.Max = orNaN(n.max)
	r.Sum = orNaN(n.total)
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
