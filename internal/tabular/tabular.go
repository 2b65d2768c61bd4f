// Package tabular reads CSV and XLSX work-item sheets into a types.Batch.
//
// Structural problems (unreadable file, missing header, missing required
// columns) are reported as row-0 findings instead of errors so callers can
// render them alongside per-row findings.
package tabular

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/steveyegge/ghimport/internal/types"
	"github.com/steveyegge/ghimport/internal/validation"
)

// Format identifies an input encoding.
type Format string

// Supported formats
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension. Anything that is not
// .xlsx is read as CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ParseFile opens and parses path.
func ParseFile(path string) (*types.Batch, []types.Finding) {
	f, err := os.Open(path) // #nosec G304 - path is the user-supplied input file
	if err != nil {
		return &types.Batch{}, []types.Finding{readFailure(err)}
	}
	defer func() { _ = f.Close() }()

	return Parse(f, FormatFromPath(path))
}

// Parse reads r in the given format.
func Parse(r io.Reader, format Format) (*types.Batch, []types.Finding) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		rows, err = readCSV(r)
	}
	if err != nil {
		return &types.Batch{}, []types.Finding{readFailure(err)}
	}
	return buildBatch(rows)
}

func readFailure(err error) types.Finding {
	return types.Errorf(0, validation.FieldFile, "Failed to read file: %v", err)
}

// buildBatch turns raw rows (header first) into records. Blank rows are
// skipped without renumbering the rows that follow them.
func buildBatch(rows [][]string) (*types.Batch, []types.Finding) {
	if len(rows) == 0 {
		return &types.Batch{}, validation.CheckHeaders(nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if isBlank(headers) {
		return &types.Batch{}, validation.CheckHeaders(nil)
	}

	batch := &types.Batch{Headers: headers, Records: []types.Record{}}
	if findings := validation.CheckHeaders(headers); len(findings) > 0 {
		return batch, findings
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		fields := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(row) {
				fields[h] = row[j]
			} else {
				fields[h] = ""
			}
		}
		batch.Records = append(batch.Records, types.Record{
			Row:    i + types.FirstDataRow,
			Fields: fields,
		})
	}

	return batch, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
