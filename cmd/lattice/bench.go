package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/engine"
	"github.com/samcharles93/lattice/internal/tensor"
)

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
	)

	flags := append(geometryFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of measured runs",
			Value:       3,
			Destination: &benchRuns,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Measure fabric throughput for one geometry",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fileCfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("reading config file: %w", err)
			}
			applyConfig(cmd, fileCfg)

			log := newLogger()
			cfg := gridConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			a := tensor.NewMat(cfg.N, cfg.K)
			b := tensor.NewMat(cfg.K, cfg.M)
			tensor.FillRand(&a, seed)
			tensor.FillRand(&b, seed+1)
			bp := tensor.Pack(&b, cfg.Width)

			fmt.Printf("host:     %s\n", hostInfo())
			fmt.Printf("geometry: %s\n", cfg.String())

			for i := int64(0); i < warmupRuns; i++ {
				c0 := tensor.NewMat(cfg.N, cfg.M)
				cp := tensor.Pack(&c0, cfg.Width)
				if _, err := engine.Run(cfg, &a, &bp, &cp, log); err != nil {
					return err
				}
			}

			var (
				total time.Duration
				best  time.Duration
			)
			for i := int64(0); i < benchRuns; i++ {
				c0 := tensor.NewMat(cfg.N, cfg.M)
				cp := tensor.Pack(&c0, cfg.Width)
				stats, err := engine.Run(cfg, &a, &bp, &cp, log)
				if err != nil {
					return err
				}
				total += stats.Elapsed
				if best == 0 || stats.Elapsed < best {
					best = stats.Elapsed
				}
				fmt.Printf("run %d:    %v (%.2f GFLOP/s)\n", i+1, stats.Elapsed, stats.GFLOPS())
			}

			if benchRuns > 0 {
				mean := total / time.Duration(benchRuns)
				flops := float64(2 * cfg.MACs())
				fmt.Printf("best:     %v (%.2f GFLOP/s)\n", best, flops/best.Seconds()/1e9)
				fmt.Printf("mean:     %v (%.2f GFLOP/s)\n", mean, flops/mean.Seconds()/1e9)
			}
			return nil
		},
	}
}
