// Package export serializes datasets and statistics for downstream tools.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aristath/fundsim/internal/domain"
)

// DatasetHeader is the column layout of a dataset CSV.
var DatasetHeader = []string{"investor_id", "investor_type", "holding_amount"}

// WriteDatasetCSV writes one row per record in dataset order. Holdings use
// the shortest representation that round-trips exactly.
func WriteDatasetCSV(w io.Writer, ds domain.Dataset) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	cw := csv.NewWriter(bw)

	if err := cw.Write(DatasetHeader); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	row := make([]string, 3)
	for _, r := range ds.Records {
		row[0] = strconv.Itoa(r.ID)
		row[1] = r.Segment
		row[2] = strconv.FormatFloat(r.Holding, 'f', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset csv: %w", err)
	}
	return bw.Flush()
}

// ReadDatasetCSV parses a file written by WriteDatasetCSV. Segment order
// follows first appearance.
func ReadDatasetCSV(r io.Reader) (domain.Dataset, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.FieldsPerRecord = len(DatasetHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to read dataset header: %w", err)
	}
	for i, col := range DatasetHeader {
		if header[i] != col {
			return domain.Dataset{}, fmt.Errorf("unexpected dataset column %d: got %q, want %q", i+1, header[i], col)
		}
	}

	var ds domain.Dataset
	seen := make(map[string]struct{})
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}

		id, err := strconv.Atoi(row[0])
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("line %d: invalid investor_id %q: %w", line, row[0], err)
		}
		holding, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("line %d: invalid holding_amount %q: %w", line, row[2], err)
		}

		label := row[1]
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			ds.Segments = append(ds.Segments, label)
		}
		ds.Records = append(ds.Records, domain.InvestorRecord{ID: id, Segment: label, Holding: holding})
	}

	return ds, nil
}
