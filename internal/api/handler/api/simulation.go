package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/tradesim/internal/api/job"
	"github.com/newthinker/tradesim/internal/api/response"
	"github.com/newthinker/tradesim/internal/app"
	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/ingest"
	"github.com/newthinker/tradesim/internal/metrics"
	"github.com/newthinker/tradesim/internal/simulation"
	"go.uber.org/zap"
)

const (
	simulationTimeout = 5 * time.Minute
	jobType           = "simulation"
)

// Runner executes simulation requests.
type Runner interface {
	Simulate(ctx context.Context, req app.Request) (*app.Run, error)
}

// SimulationRequest is the request body for starting a simulation. Without
// lines the configured dataset is simulated.
type SimulationRequest struct {
	Lines []string `json:"lines,omitempty"`
	// Symbol tags lines whose format has no symbol column.
	Symbol               string  `json:"symbol,omitempty"`
	TradingWindow        int     `json:"trading_window,omitempty"`
	DailyInvestmentLimit float64 `json:"daily_investment_limit,omitempty"`
	ZeroOpenPolicy       string  `json:"zero_open_policy,omitempty"`
}

func (r SimulationRequest) validate() error {
	if r.TradingWindow < 0 {
		return fmt.Errorf("trading_window must not be negative, got %d", r.TradingWindow)
	}
	if r.DailyInvestmentLimit < 0 {
		return fmt.Errorf("daily_investment_limit must not be negative, got %f", r.DailyInvestmentLimit)
	}
	if _, err := simulation.ParseZeroOpenPolicy(r.ZeroOpenPolicy); err != nil {
		return err
	}
	return nil
}

func (r SimulationRequest) toAppRequest() app.Request {
	var lines []ingest.Line
	if len(r.Lines) > 0 {
		lines = make([]ingest.Line, len(r.Lines))
		for i, text := range r.Lines {
			lines[i] = ingest.Line{Text: text, Symbol: r.Symbol}
		}
	}
	return app.Request{
		Lines:                lines,
		TradingWindow:        r.TradingWindow,
		DailyInvestmentLimit: r.DailyInvestmentLimit,
		ZeroOpenPolicy:       r.ZeroOpenPolicy,
	}
}

// SimulationHandler handles simulation API requests.
type SimulationHandler struct {
	jobs    *job.Store
	runner  Runner
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewSimulationHandler creates a new simulation handler. reg may be nil.
func NewSimulationHandler(jobs *job.Store, runner Runner, reg *metrics.Registry, logger *zap.Logger) *SimulationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulationHandler{jobs: jobs, runner: runner, metrics: reg, logger: logger}
}

// Create starts a new simulation job.
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	j := h.jobs.Create(jobType)
	h.reportActive()

	go h.run(j.ID, req.toAppRequest())

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// run executes the simulation and records the outcome on the job.
func (h *SimulationHandler) run(jobID string, req app.Request) {
	defer h.reportActive()

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), simulationTimeout)
	defer cancel()
	run, err := h.runner.Simulate(ctx, req)

	if err != nil {
		h.logger.Warn("simulation job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = run
	})
}

// Get returns the status of a simulation job, and its run once complete.
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}
	if j.Status == job.StatusComplete {
		resp["run"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *SimulationHandler) reportActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(jobType, h.jobs.Active(jobType))
	}
}

// asCoreError keeps coded errors as they are and wraps the rest.
func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrSimulationFailed, err)
}
