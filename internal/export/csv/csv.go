package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robalyx/todbot/internal/export/types"
)

// FileName is the csv file written to the output directory.
const FileName = "prompts.csv"

// ErrMissingColumn is returned when a csv header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Header lists the columns written by the exporter.
var Header = []string{"id", "category", "text", "nsfw", "author"} //nolint:gochecknoglobals // -

// Exporter handles exporting prompts to csv files.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes the records to prompts.csv, replacing any earlier export.
func (e *Exporter) Export(records []*types.Record) error {
	file, err := os.Create(filepath.Join(e.outDir, FileName))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	return Write(file, records)
}

// Write encodes records as csv with a header row.
func Write(w io.Writer, records []*types.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write([]string{
			strconv.FormatInt(record.ID, 10),
			record.Category,
			record.Text,
			strconv.FormatBool(record.NSFW),
			record.Author,
		}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Read decodes csv rows into records. The header must name at least the
// category and text columns; id, nsfw and author are optional. Rows whose
// nsfw value cannot be parsed are returned as errors by line number and skipped.
func Read(r io.Reader) ([]*types.Record, map[int]error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"category", "text"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		records []*types.Record
		skipped = make(map[int]error)
	)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		record := &types.Record{
			Category: strings.ToLower(field(row, "category")),
			Text:     field(row, "text"),
			Author:   field(row, "author"),
		}

		if value := field(row, "nsfw"); value != "" {
			nsfw, err := strconv.ParseBool(value)
			if err != nil {
				skipped[line] = fmt.Errorf("invalid nsfw value %q", value)
				continue
			}
			record.NSFW = nsfw
		}

		if value := field(row, "id"); value != "" {
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				skipped[line] = fmt.Errorf("invalid id %q", value)
				continue
			}
			record.ID = id
		}

		records = append(records, record)
	}

	return records, skipped, nil
}
