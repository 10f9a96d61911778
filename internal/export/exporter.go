// Package export writes the content store to portable files and loads
// prompts back from csv.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	dbTypes "github.com/robalyx/todbot/internal/database/types"
	"github.com/robalyx/todbot/internal/export/csv"
	"github.com/robalyx/todbot/internal/export/sqlite"
	"github.com/robalyx/todbot/internal/export/types"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

const (
	// EngineVersion represents the version of the export engine.
	// This should be updated when making breaking changes to the export format.
	EngineVersion = "1.0.0"

	// ManifestFileName is the JSON summary written next to the exports.
	ManifestFileName = "export_manifest.json"
)

// PromptSource lists every stored prompt.
type PromptSource interface {
	All(ctx context.Context) ([]*dbTypes.Prompt, error)
}

// Manifest describes one export run.
type Manifest struct {
	EngineVersion string    `json:"engineVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	Prompts       int       `json:"prompts"`
	Formats       []Format  `json:"formats"`
}

// Exporter handles exporting the content store.
type Exporter struct {
	source  PromptSource
	outDir  string
	formats []Format
	logger  *zap.Logger
}

// New creates a new exporter instance. All formats are written when none are given.
func New(source PromptSource, outDir string, logger *zap.Logger, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatSQLite, FormatCSV}
	}

	return &Exporter{
		source:  source,
		outDir:  outDir,
		formats: formats,
		logger:  logger.Named("export"),
	}
}

// ExportAll writes every prompt in each configured format plus a manifest.
func (e *Exporter) ExportAll(ctx context.Context) (*Manifest, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	prompts, err := e.source.All(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*types.Record, len(prompts))
	for i, prompt := range prompts {
		records[i] = types.FromPrompt(prompt)
	}

	for _, format := range e.formats {
		if err := e.export(format, records); err != nil {
			return nil, fmt.Errorf("failed to export %s format: %w", format, err)
		}
		e.logger.Info("Wrote export", zap.String("format", string(format)), zap.Int("prompts", len(records)))
	}

	manifest := &Manifest{
		EngineVersion: EngineVersion,
		ExportedAt:    time.Now().UTC(),
		Prompts:       len(records),
		Formats:       e.formats,
	}

	data, err := sonic.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(e.outDir, ManifestFileName), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export manifest: %w", err)
	}

	return manifest, nil
}

// export handles exporting data in the specified format.
func (e *Exporter) export(format Format, records []*types.Record) error {
	var exporter interface {
		Export(records []*types.Record) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(records)
}
