package generator

import "github.com/aristath/fundsim/internal/domain"

// Merge concatenates per-segment sequences in argument order and reassigns
// IDs as a dense 1..N sequence. Segment labels are kept; the Dataset's
// segment list follows first appearance.
func Merge(sequences ...[]domain.InvestorRecord) domain.Dataset {
	total := 0
	for _, seq := range sequences {
		total += len(seq)
	}

	ds := domain.Dataset{
		Records:  make([]domain.InvestorRecord, 0, total),
		Segments: make([]string, 0, len(sequences)),
	}
	seen := make(map[string]struct{}, len(sequences))

	for _, seq := range sequences {
		for _, r := range seq {
			if _, ok := seen[r.Segment]; !ok {
				seen[r.Segment] = struct{}{}
				ds.Segments = append(ds.Segments, r.Segment)
			}
			ds.Records = append(ds.Records, domain.InvestorRecord{
				ID:      len(ds.Records) + 1,
				Segment: r.Segment,
				Holding: r.Holding,
			})
		}
	}

	return ds
}
