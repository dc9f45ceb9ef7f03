// Package engine chains the host/device transfers and the systolic
// pipeline into a single computation: copy operands in, run the fabric,
// read the accumulated output back.
package engine

import (
	"time"

	"github.com/samcharles93/lattice/internal/device"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/systolic"
	"github.com/samcharles93/lattice/internal/tensor"
)

// Stats describes one completed run.
type Stats struct {
	Config  systolic.Config
	Elapsed time.Duration

	MACs      int64 // scalar multiply-accumulates performed
	StreamedA int64 // scalars pushed into the row-broadcast channel
	StreamedB int64 // lanes pushed into the column-broadcast channel
	Collected int64 // lanes folded into C

	Transfers     int64
	BytesToDevice int64
	BytesToHost   int64
}

// GFLOPS reports the effective throughput, counting a multiply-accumulate
// as two floating point operations.
func (s Stats) GFLOPS() float64 {
	sec := s.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(2*s.MACs) / sec / 1e9
}

// Run computes c = a·b + c through the systolic fabric. a is the plain
// N×K matrix; b and c are lane-packed. c is updated in place; the device
// copies never escape.
func Run(cfg systolic.Config, a *tensor.Mat, b, c *tensor.Packed, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.Default()
	}

	pipe, err := systolic.New(cfg)
	if err != nil {
		return Stats{}, err
	}

	var mem device.Memory
	log.Debug("copying operands to device", "geometry", cfg.String())
	devA := mem.CopyMat(a)
	devB := mem.CopyPacked(b)
	devC := mem.CopyPacked(c)

	start := time.Now()
	if err := pipe.Run(&devA, &devB, &devC); err != nil {
		return Stats{}, err
	}
	elapsed := time.Since(start)

	log.Debug("reading result back", "elapsed", elapsed)
	mem.ReadBack(c, &devC)

	streamedA, streamedB, collected := pipe.Counters()
	transfers, toDevice, toHost := mem.Totals()
	stats := Stats{
		Config:        cfg,
		Elapsed:       elapsed,
		MACs:          cfg.MACs(),
		StreamedA:     streamedA,
		StreamedB:     streamedB,
		Collected:     collected,
		Transfers:     transfers,
		BytesToDevice: toDevice,
		BytesToHost:   toHost,
	}
	log.Debug("run complete",
		"macs", stats.MACs,
		"streamed_a", stats.StreamedA,
		"streamed_b", stats.StreamedB,
		"collected", stats.Collected,
		"gflops", stats.GFLOPS())
	return stats, nil
}
