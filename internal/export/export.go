// Package export writes simulation results to archive storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/gocarina/gocsv"
	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/simulation"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"go.uber.org/zap"
)

// Object names written under each run directory.
const (
	ResultFile       = "result.json"
	InstructionsFile = "instructions.csv"
	DaysFile         = "days.csv"
)

type instructionRow struct {
	DecisionDate string  `csv:"decision_date"`
	TargetDate   string  `csv:"target_date"`
	Symbol       string  `csv:"symbol"`
	Amount       float64 `csv:"amount"`
}

type dayRow struct {
	TargetDate   string  `csv:"target_date"`
	DecisionDate string  `csv:"decision_date"`
	Invested     float64 `csv:"invested"`
	Value        float64 `csv:"value"`
	Return       float64 `csv:"return"`
	Matched      int     `csv:"matched"`
	Unmatched    int     `csv:"unmatched"`
	SkippedZero  int     `csv:"skipped_zero_open"`
}

// Exporter persists results as one JSON document plus two CSV tables.
type Exporter struct {
	store  archive.Storage
	logger *zap.Logger
}

// New creates an Exporter writing to store.
func New(store archive.Storage, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{store: store, logger: logger}
}

// Export writes res under runID/ and returns the paths written.
func (e *Exporter) Export(ctx context.Context, runID string, res *simulation.Result) ([]string, error) {
	if runID == "" {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("run id required"))
	}

	doc, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("encoding result: %w", err))
	}
	instructions, err := gocsv.MarshalBytes(instructionRows(res.Instructions))
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("encoding instructions: %w", err))
	}
	days, err := gocsv.MarshalBytes(dayRows(res.Days))
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("encoding days: %w", err))
	}

	objects := []struct {
		name string
		data []byte
	}{
		{ResultFile, doc},
		{InstructionsFile, instructions},
		{DaysFile, days},
	}

	written := make([]string, 0, len(objects))
	for _, obj := range objects {
		p := path.Join(runID, obj.name)
		if err := e.store.Write(ctx, p, obj.data); err != nil {
			return written, core.WrapError(core.ErrExportFailed, fmt.Errorf("writing %s: %w", p, err))
		}
		written = append(written, p)
	}

	e.logger.Info("exported simulation",
		zap.String("run_id", runID),
		zap.Strings("paths", written),
	)
	return written, nil
}

// Load reads back the result document of a previous run.
func Load(ctx context.Context, store archive.Storage, runID string) (*simulation.Result, error) {
	data, err := store.Read(ctx, path.Join(runID, ResultFile))
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	var res simulation.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return &res, nil
}

// instructionRows flattens instructions into CSV rows.
func instructionRows(in []core.InvestmentInstruction) []*instructionRow {
	rows := make([]*instructionRow, len(in))
	for i, inst := range in {
		rows[i] = &instructionRow{
			DecisionDate: inst.DecisionDate.Format(core.DateLayout),
			TargetDate:   inst.TargetDate.Format(core.DateLayout),
			Symbol:       inst.Symbol,
			Amount:       inst.Amount,
		}
	}
	return rows
}

// dayRows flattens per-day results into CSV rows.
func dayRows(in []simulation.DayResult) []*dayRow {
	rows := make([]*dayRow, len(in))
	for i, d := range in {
		rows[i] = &dayRow{
			TargetDate:   d.TargetDate.Format(core.DateLayout),
			DecisionDate: d.DecisionDate.Format(core.DateLayout),
			Invested:     d.Invested,
			Value:        d.Value,
			Return:       d.Return(),
			Matched:      d.Matched,
			Unmatched:    d.Unmatched,
			SkippedZero:  d.SkippedZero,
		}
	}
	return rows
}
