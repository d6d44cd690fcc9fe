package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/newthinker/tradesim/internal/core"
	"github.com/newthinker/tradesim/internal/storage/archive"
	"go.uber.org/zap"
)

// Loader reads raw price lines from dataset storage.
type Loader struct {
	store  archive.Storage
	logger *zap.Logger
}

// NewLoader creates a loader over the given storage
func NewLoader(store archive.Storage, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, logger: logger}
}

// Load reads every object under prefix. Each line is tagged with the
// object's base name (without extension) as its fallback symbol.
func (l *Loader) Load(ctx context.Context, prefix string) ([]Line, error) {
	paths, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, core.WrapError(core.ErrInputFailed, fmt.Errorf("listing %q: %w", prefix, err))
	}
	if len(paths) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no objects under %q", prefix))
	}

	var lines []Line
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := l.store.Read(ctx, p)
		if err != nil {
			return nil, core.WrapError(core.ErrInputFailed, fmt.Errorf("reading %q: %w", p, err))
		}

		fileLines, err := ReadLines(bytes.NewReader(data), SymbolFromPath(p))
		if err != nil {
			return nil, core.WrapError(core.ErrInputFailed, fmt.Errorf("scanning %q: %w", p, err))
		}

		l.logger.Debug("loaded dataset object",
			zap.String("path", p),
			zap.Int("lines", len(fileLines)),
		)
		lines = append(lines, fileLines...)
	}

	return lines, nil
}

// ReadLines splits r into lines, all tagged with symbol.
func ReadLines(r io.Reader, symbol string) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, Line{Text: scanner.Text(), Symbol: symbol})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// SymbolFromPath derives a ticker from a dataset object name,
// e.g. "prices/nyse/AAPL.csv" -> "AAPL".
func SymbolFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
