package simulation

import (
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fundsim/internal/domain"
)

// bytesPerRecord approximates the peak heap cost of one investor: the record
// itself plus the holding copies made by statistics and percentiles.
var bytesPerRecord = uint64(unsafe.Sizeof(domain.InvestorRecord{})) + 3*8

// MemoryProbe reports the bytes of memory currently available.
type MemoryProbe func() (uint64, error)

// VirtualMemoryProbe reads available memory from the operating system.
func VirtualMemoryProbe() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// MemoryEstimate is the outcome of a preflight check.
type MemoryEstimate struct {
	Records   int
	Required  uint64
	Available uint64 // zero when the probe failed
	Fits      bool
}

// EstimateMemory compares the expected footprint of records investors
// against what probe reports. It never fails the run; an unavailable probe
// yields Fits = true.
func EstimateMemory(records int, probe MemoryProbe, log zerolog.Logger) MemoryEstimate {
	est := MemoryEstimate{
		Records:  records,
		Required: uint64(records) * bytesPerRecord,
		Fits:     true,
	}
	if probe == nil {
		return est
	}

	available, err := probe()
	if err != nil {
		log.Debug().Err(err).Msg("Memory probe unavailable, skipping preflight")
		return est
	}
	est.Available = available
	est.Fits = est.Required <= available

	event := log.Debug()
	if !est.Fits {
		event = log.Warn()
	}
	event.
		Int("records", records).
		Str("required", humanize.IBytes(est.Required)).
		Str("available", humanize.IBytes(available)).
		Bool("fits", est.Fits).
		Msg("Memory preflight")

	return est
}
