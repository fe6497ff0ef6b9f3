package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/scenario"
)

// SnapshotVersion is bumped whenever the Snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the complete, self-describing binary record of one run.
type Snapshot struct {
	Version     int                     `msgpack:"version"`
	Run         domain.RunMetadata      `msgpack:"run"`
	Scenario    scenario.Scenario       `msgpack:"scenario"`
	Dataset     domain.Dataset          `msgpack:"dataset"`
	Overall     domain.StatisticsReport `msgpack:"overall"`
	Segments    []domain.SegmentReport  `msgpack:"segments"`
	Percentiles []domain.Percentile     `msgpack:"percentiles"`
}

// WriteSnapshot encodes snap as msgpack.
func WriteSnapshot(w io.Writer, snap Snapshot) error {
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	if err := msgpack.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return bw.Flush()
}

// ReadSnapshot decodes a snapshot and rejects unknown versions.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(bufio.NewReader(r)).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
