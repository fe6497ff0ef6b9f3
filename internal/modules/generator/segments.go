package generator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/fundsim/internal/domain"
)

// Options tunes GenerateSegments.
type Options struct {
	// Workers bounds concurrent segment generations. Values below 1 mean 1.
	Workers int
	// OnSegmentDone, when set, is called after each segment finishes. It may
	// be called from several goroutines.
	OnSegmentDone func(seg domain.Segment, elapsed time.Duration)
}

// GenerateSegments generates every segment and merges them in declaration
// order. Concurrency never changes the result: each segment owns its seed
// and its output slot.
func GenerateSegments(ctx context.Context, segments []domain.Segment, opts Options) (domain.Dataset, error) {
	if err := ValidateSegments(segments); err != nil {
		return domain.Dataset{}, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	outputs := make([][]domain.InvestorRecord, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, seg := range segments {
		g.Go(func() error {
			start := time.Now()
			records, err := GenerateContext(gctx, seg.Population, seg.Mean, seg.Variance, seg.Label, seg.Seed)
			if err != nil {
				return fmt.Errorf("failed to generate segment %q: %w", seg.Label, err)
			}
			outputs[i] = records
			if opts.OnSegmentDone != nil {
				opts.OnSegmentDone(seg, time.Since(start))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}

	return Merge(outputs...), nil
}

// ValidateSegments checks every segment before any sampling starts.
// Labels must be non-empty and unique.
func ValidateSegments(segments []domain.Segment) error {
	if len(segments) == 0 {
		return domain.InvalidParameter("at least one segment is required")
	}

	seen := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if seg.Label == "" {
			return domain.InvalidParameter("segment label must not be empty")
		}
		if _, dup := seen[seg.Label]; dup {
			return domain.InvalidParameter("duplicate segment label %q", seg.Label)
		}
		seen[seg.Label] = struct{}{}

		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %q: %w", seg.Label, err)
		}
	}
	return nil
}
