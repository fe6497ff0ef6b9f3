// Package simulation runs a scenario end to end: generation, statistics,
// exports and the optional run store, metrics and publishing steps.
package simulation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/export"
	"github.com/aristath/fundsim/internal/metrics"
	"github.com/aristath/fundsim/internal/modules/charts"
	"github.com/aristath/fundsim/internal/modules/generator"
	"github.com/aristath/fundsim/internal/modules/runs"
	"github.com/aristath/fundsim/internal/modules/statistics"
	"github.com/aristath/fundsim/internal/publish"
	"github.com/aristath/fundsim/internal/scenario"
)

// Output file names within a run directory.
const (
	DatasetFile  = "investor_data.csv"
	SummaryFile  = "summary_statistics.csv"
	SnapshotFile = "snapshot.msgpack"
	ChartsDir    = "charts"
)

// Config controls one service instance.
type Config struct {
	OutputDir    string
	Workers      int       // 0 runs every segment concurrently
	Percentiles  []float64 // nil uses statistics.DefaultPercentiles
	StoreRecords bool      // also persist investor rows when a run store is set
	SkipSnapshot bool
}

// Dependencies are the optional collaborators. Nil members are skipped.
type Dependencies struct {
	Runs      *runs.Repository
	Charts    *charts.Service
	Publisher *publish.Publisher
	Metrics   *metrics.Metrics
	Memory    MemoryProbe
}

// Result is everything produced by one run.
type Result struct {
	Meta        domain.RunMetadata
	Scenario    scenario.Scenario
	Dataset     domain.Dataset
	Overall     domain.StatisticsReport
	Segments    []runs.SegmentRun
	Percentiles []domain.Percentile
	Memory      MemoryEstimate
	Dir         string   // run output directory
	Files       []string // every file written under Dir
	Manifest    *publish.Manifest
}

// SegmentReports returns the per-segment statistics in declaration order.
func (r Result) SegmentReports() []domain.SegmentReport {
	out := make([]domain.SegmentReport, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = domain.SegmentReport{Label: s.Segment.Label, Report: s.Report}
	}
	return out
}

// Service orchestrates simulation runs
type Service struct {
	cfg  Config
	deps Dependencies
	log  zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a new simulation service
func NewService(cfg Config, deps Dependencies, log zerolog.Logger) *Service {
	if cfg.Percentiles == nil {
		cfg.Percentiles = statistics.DefaultPercentiles
	}
	return &Service{
		cfg:   cfg,
		deps:  deps,
		log:   log.With().Str("service", "simulation").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run executes sc. Nothing is written unless generation and statistics
// succeed; exports are staged and moved into place together.
func (s *Service) Run(ctx context.Context, sc scenario.Scenario) (Result, error) {
	res, err := s.run(ctx, sc)
	if err != nil && s.deps.Metrics != nil {
		s.deps.Metrics.IncrementRunsFailed()
	}
	return res, err
}

func (s *Service) run(ctx context.Context, sc scenario.Scenario) (Result, error) {
	if err := scenario.Validate(sc); err != nil {
		return Result{}, err
	}
	if err := statistics.ValidatePercentiles(s.cfg.Percentiles); err != nil {
		return Result{}, err
	}

	res := Result{
		Meta: domain.RunMetadata{
			ID:        s.newID(),
			Scenario:  sc.Name,
			StartedAt: s.now().UTC(),
		},
		Scenario: sc,
	}
	log := s.log.With().Str("run_id", res.Meta.ID).Logger()
	log.Info().
		Str("scenario", sc.Name).
		Int("segments", len(sc.Segments)).
		Int("investors", sc.Population()).
		Msg("Starting simulation run")

	res.Memory = EstimateMemory(sc.Population(), s.deps.Memory, log)

	if err := s.generate(ctx, &res, log); err != nil {
		return Result{}, err
	}
	if err := s.summarize(&res); err != nil {
		return Result{}, err
	}
	res.Meta.FinishedAt = s.now().UTC()

	if err := s.export(&res, log); err != nil {
		return Result{}, err
	}

	if s.deps.Runs != nil {
		if err := s.store(ctx, res, log); err != nil {
			return Result{}, err
		}
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRun(res.Meta.FinishedAt.Sub(res.Meta.StartedAt), res.Meta.FinishedAt)
		path := filepath.Join(s.cfg.OutputDir, metrics.FileName)
		if err := s.deps.Metrics.WriteTextfile(path); err != nil {
			return Result{}, err
		}
	}

	if s.deps.Publisher != nil {
		manifest, err := s.deps.Publisher.Publish(ctx, res.Meta.ID, res.Files)
		if err != nil {
			return Result{}, fmt.Errorf("failed to publish run: %w", err)
		}
		res.Manifest = &manifest
	}

	log.Info().
		Int("investors", res.Dataset.Len()).
		Dur("duration_ms", res.Meta.FinishedAt.Sub(res.Meta.StartedAt)).
		Str("dir", res.Dir).
		Msg("Simulation run completed")

	return res, nil
}

func (s *Service) generate(ctx context.Context, res *Result, log zerolog.Logger) error {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = len(res.Scenario.Segments)
	}
	opts := generator.Options{
		Workers: workers,
		OnSegmentDone: func(seg domain.Segment, took time.Duration) {
			log.Debug().
				Str("segment", seg.Label).
				Int("population", seg.Population).
				Dur("duration_ms", took).
				Msg("Segment generated")
			if s.deps.Metrics != nil {
				s.deps.Metrics.ObserveSegment(seg.Label, seg.Population, took)
			}
		},
	}

	ds, err := generator.GenerateSegments(ctx, res.Scenario.Segments, opts)
	if err != nil {
		return fmt.Errorf("failed to generate dataset: %w", err)
	}
	res.Dataset = ds
	return nil
}

func (s *Service) summarize(res *Result) error {
	overall, err := statistics.ComputeDataset(res.Dataset)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	res.Overall = overall

	bySegment, err := statistics.ComputeBySegment(res.Dataset)
	if err != nil {
		return fmt.Errorf("failed to compute segment statistics: %w", err)
	}

	reports := make(map[string]domain.StatisticsReport, len(bySegment))
	for _, r := range bySegment {
		reports[r.Label] = r.Report
	}

	res.Segments = make([]runs.SegmentRun, len(res.Scenario.Segments))
	for i, seg := range res.Scenario.Segments {
		params, err := generator.DeriveParams(seg.Mean, seg.Variance)
		if err != nil {
			return err
		}
		res.Segments[i] = runs.SegmentRun{Segment: seg, Params: params, Report: reports[seg.Label]}
	}

	res.Percentiles, err = statistics.Percentiles(res.Dataset.Holdings(), s.cfg.Percentiles)
	if err != nil {
		return fmt.Errorf("failed to compute percentiles: %w", err)
	}
	return nil
}

// export writes every artifact into a staging directory, then renames it to
// <output dir>/<run id>.
func (s *Service) export(res *Result, log zerolog.Logger) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	staging, err := os.MkdirTemp(s.cfg.OutputDir, ".staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging) // no-op once renamed

	names := []string{DatasetFile, SummaryFile}
	if err := writeFile(filepath.Join(staging, DatasetFile), func(f *os.File) error {
		return export.WriteDatasetCSV(f, res.Dataset)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(staging, SummaryFile), func(f *os.File) error {
		return export.WriteSummaryCSV(f, res.Overall, res.SegmentReports(), res.Percentiles)
	}); err != nil {
		return err
	}

	if !s.cfg.SkipSnapshot {
		snap := export.Snapshot{
			Run:         res.Meta,
			Scenario:    res.Scenario,
			Dataset:     res.Dataset,
			Overall:     res.Overall,
			Segments:    res.SegmentReports(),
			Percentiles: res.Percentiles,
		}
		if err := writeFile(filepath.Join(staging, SnapshotFile), func(f *os.File) error {
			return export.WriteSnapshot(f, snap)
		}); err != nil {
			return err
		}
		names = append(names, SnapshotFile)
	}

	if s.deps.Charts != nil {
		set, err := s.deps.Charts.Build(res.Scenario.Name, res.Dataset, res.Scenario.FundCategories)
		if err != nil {
			return fmt.Errorf("failed to build charts: %w", err)
		}
		written, err := s.deps.Charts.Render(set, filepath.Join(staging, ChartsDir))
		if err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}
		for _, p := range written {
			rel, err := filepath.Rel(staging, p)
			if err != nil {
				return err
			}
			names = append(names, rel)
		}
	}

	dir := filepath.Join(s.cfg.OutputDir, res.Meta.ID)
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("failed to move run output into place: %w", err)
	}

	res.Dir = dir
	res.Files = make([]string, len(names))
	for i, name := range names {
		res.Files[i] = filepath.Join(dir, name)
	}

	log.Info().Str("dir", dir).Int("files", len(res.Files)).Msg("Exported run")
	return nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", filepath.Base(path), cerr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Service) store(ctx context.Context, res Result, log zerolog.Logger) error {
	run := runs.Run{
		Meta:        res.Meta,
		Overall:     res.Overall,
		Segments:    res.Segments,
		Percentiles: res.Percentiles,
	}
	if err := s.deps.Runs.Save(ctx, run); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	if s.cfg.StoreRecords {
		if err := s.deps.Runs.SaveRecords(ctx, res.Meta.ID, res.Dataset.Records); err != nil {
			return fmt.Errorf("failed to store investor records: %w", err)
		}
	}
	log.Debug().Bool("records", s.cfg.StoreRecords).Msg("Stored run")
	return nil
}
