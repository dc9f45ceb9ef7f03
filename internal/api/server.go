// Package api exposes the systolic engine over a small REST surface so
// parameter sweeps can be driven remotely.
package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/lattice/internal/engine"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/systolic"
	"github.com/samcharles93/lattice/internal/tensor"
)

// Tolerance for the randomized-job verification check: the Frobenius norm
// of the difference divided by M·K must stay below this.
const verifyTolerance = 1e-6

type Server struct {
	log logger.Logger
}

func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealthz)
	e.POST("/v1/gemm", s.handleGemm)
}

func (s *Server) handleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGemm(c *echo.Context) error {
	req, err := decodeJSON[GemmRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "malformed request body: "+err.Error())
	}

	cfg := systolic.Config{
		N: req.N, K: req.K, M: req.M,
		Rows: req.Rows, Cols: req.Cols,
		Width: req.Width, Tile: req.Tile,
	}
	if err := cfg.Validate(); err != nil {
		return writeBadRequest(c, err.Error())
	}

	id := "gemm_" + uuid.NewString()
	log := s.log.With("job", id)
	log.Info("running job", "geometry", cfg.String(), "seed", req.Seed)

	a := tensor.NewMat(cfg.N, cfg.K)
	b := tensor.NewMat(cfg.K, cfg.M)
	c0 := tensor.NewMat(cfg.N, cfg.M)
	tensor.FillRand(&a, req.Seed)
	tensor.FillRand(&b, req.Seed+1)
	tensor.FillRand(&c0, req.Seed+2)

	bp := tensor.Pack(&b, cfg.Width)
	cp := tensor.Pack(&c0, cfg.Width)
	stats, err := engine.Run(cfg, &a, &bp, &cp, log)
	if err != nil {
		log.Error("job failed", "error", err)
		return writeError(c, http.StatusInternalServerError, "engine_error", err.Error())
	}

	resp := GemmResponse{
		ID:            id,
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

	if req.Verify == nil || *req.Verify {
		want := c0.Clone()
		tensor.MatMulAdd(&want, &a, &b)
		got := cp.Unpack()
		diff := tensor.DiffNorm(&got, &want) / float64(cfg.M*cfg.K)
		verified := diff < verifyTolerance
		resp.Diff = &diff
		resp.Verified = &verified
		if !verified {
			log.Warn("verification failed", "diff", diff)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, newInvalidRequest(err.Error())
	}
	return v, nil
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, ErrorResponse{Error: ErrorBody{Message: msg, Type: errType}})
}
