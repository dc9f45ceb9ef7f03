package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/engine"
	"github.com/samcharles93/lattice/internal/tensor"
)

// Verification threshold matching the classic norm/(M·K) check.
const verifyTolerance = 1e-6

type runReport struct {
	Geometry  string  `json:"geometry"`
	ElapsedMS float64 `json:"elapsed_ms"`
	GFLOPS    float64 `json:"gflops"`
	MACs      int64   `json:"macs"`

	StreamedA int64 `json:"streamed_a"`
	StreamedB int64 `json:"streamed_b"`
	Collected int64 `json:"collected"`

	BytesToDevice int64 `json:"bytes_to_device"`
	BytesToHost   int64 `json:"bytes_to_host"`

	Verified *bool    `json:"verified,omitempty"`
	Diff     *float64 `json:"diff,omitempty"`
}

func runCmd() *cli.Command {
	var (
		verify     bool
		jsonOutput bool
	)

	flags := append(geometryFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "check the result against a dense reference multiply",
			Value:       true,
			Destination: &verify,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit the run report as JSON",
			Destination: &jsonOutput,
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Run one randomized C = A·B + C computation",
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
			c0 := tensor.NewMat(cfg.N, cfg.M)
			tensor.FillRand(&a, seed)
			tensor.FillRand(&b, seed+1)
			tensor.FillRand(&c0, seed+2)

			bp := tensor.Pack(&b, cfg.Width)
			cp := tensor.Pack(&c0, cfg.Width)
			stats, err := engine.Run(cfg, &a, &bp, &cp, log)
			if err != nil {
				return err
			}

			report := runReport{
				Geometry:      cfg.String(),
				ElapsedMS:     float64(stats.Elapsed.Microseconds()) / 1e3,
				GFLOPS:        stats.GFLOPS(),
				MACs:          stats.MACs,
				StreamedA:     stats.StreamedA,
				StreamedB:     stats.StreamedB,
				Collected:     stats.Collected,
				BytesToDevice: stats.BytesToDevice,
				BytesToHost:   stats.BytesToHost,
			}

			if verify {
				want := c0.Clone()
				tensor.MatMulAdd(&want, &a, &b)
				got := cp.Unpack()
				diff := tensor.DiffNorm(&got, &want) / float64(cfg.M*cfg.K)
				ok := diff < verifyTolerance
				report.Diff = &diff
				report.Verified = &ok
				if !ok {
					log.Error("verification failed", "diff", diff)
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Printf("geometry:   %s\n", report.Geometry)
				fmt.Printf("elapsed:    %.3f ms\n", report.ElapsedMS)
				fmt.Printf("throughput: %.2f GFLOP/s\n", report.GFLOPS)
				fmt.Printf("streams:    %d A scalars, %d B lanes, %d C lanes\n",
					report.StreamedA, report.StreamedB, report.Collected)
				fmt.Printf("transfers:  %d B in, %d B out\n",
					report.BytesToDevice, report.BytesToHost)
				if report.Verified != nil {
					if *report.Verified {
						fmt.Printf("verified:   ok (diff %.3g)\n", *report.Diff)
					} else {
						fmt.Printf("verified:   FAILED (diff %.3g)\n", *report.Diff)
					}
				}
			}

			if report.Verified != nil && !*report.Verified {
				return fmt.Errorf("verification failed: diff %g above %g", *report.Diff, verifyTolerance)
			}
			return nil
		},
	}
}
