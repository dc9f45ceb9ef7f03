package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/systolic"
)

var (
	dimN      int64
	dimK      int64
	dimM      int64
	gridRows  int64
	gridCols  int64
	vecWidth  int64
	tileWidth int64
	seed      int64
	logLevel  string
	logFormat string
	debug     bool
)

func geometryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "n",
			Usage:       "output rows (N)",
			Value:       128,
			Destination: &dimN,
		},
		&cli.Int64Flag{
			Name:        "k",
			Usage:       "reduction depth (K)",
			Value:       128,
			Destination: &dimK,
		},
		&cli.Int64Flag{
			Name:        "m",
			Usage:       "output columns (M)",
			Value:       128,
			Destination: &dimM,
		},
		&cli.Int64Flag{
			Name:        "rows",
			Aliases:     []string{"r"},
			Usage:       "PE grid height",
			Value:       4,
			Destination: &gridRows,
		},
		&cli.Int64Flag{
			Name:        "cols",
			Aliases:     []string{"c"},
			Usage:       "PE grid width",
			Value:       1,
			Destination: &gridCols,
		},
		&cli.Int64Flag{
			Name:        "width",
			Aliases:     []string{"w"},
			Usage:       "vector lanes per channel transfer",
			Value:       4,
			Destination: &vecWidth,
		},
		&cli.Int64Flag{
			Name:        "tile",
			Aliases:     []string{"t"},
			Usage:       "output columns per tile",
			Value:       64,
			Destination: &tileWidth,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for operand randomization",
			Value:       1,
			Destination: &seed,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func newLogger() logger.Logger {
	level := logLevel
	if debug {
		level = "debug"
	}
	return logger.FromFlags(os.Stderr, level, logFormat)
}

func gridConfig() systolic.Config {
	return systolic.Config{
		N:     int(dimN),
		K:     int(dimK),
		M:     int(dimM),
		Rows:  int(gridRows),
		Cols:  int(gridCols),
		Width: int(vecWidth),
		Tile:  int(tileWidth),
	}
}
