// Package validation implements the local, network-free checks run on a
// parsed batch before anything touches the remote tracker.
package validation

import (
	"strings"

	"github.com/steveyegge/ghimport/internal/types"
)

// Row-0 field names used for structural findings.
const (
	FieldHeaders = "headers"
	FieldFile    = "file"
)

// MissingColumns returns the required fields absent from headers, in
// types.RequiredFields order.
func MissingColumns(headers []string) []string {
	declared := make(map[string]bool, len(headers))
	for _, h := range headers {
		declared[h] = true
	}
	var missing []string
	for _, req := range types.RequiredFields {
		if !declared[req] {
			missing = append(missing, req)
		}
	}
	return missing
}

// CheckHeaders returns a single row-0 error when the header row lacks any
// required column, or nil when the header set is complete.
func CheckHeaders(headers []string) []types.Finding {
	if len(headers) == 0 {
		return []types.Finding{types.Errorf(0, FieldHeaders, "No columns found")}
	}
	missing := MissingColumns(headers)
	if len(missing) == 0 {
		return nil
	}
	return []types.Finding{
		types.Errorf(0, FieldHeaders, "Missing required columns: %s", strings.Join(missing, ", ")),
	}
}

// ValidateFormat checks required-field correctness of every record.
// All rows are scanned; every violation is reported.
func ValidateFormat(batch *types.Batch) []types.Finding {
	var findings []types.Finding
	if batch == nil {
		return findings
	}
	for _, rec := range batch.Records {
		findings = append(findings, ValidateRecord(rec)...)
	}
	return findings
}

// ValidateRecord checks a single record.
func ValidateRecord(rec types.Record) []types.Finding {
	var findings []types.Finding

	if rec.Trimmed(types.FieldTitle) == "" {
		findings = append(findings, types.Errorf(rec.Row, types.FieldTitle, "Title is required"))
	}

	if itemType := rec.Get(types.FieldType); !types.ItemType(itemType).IsValid() {
		findings = append(findings, types.Errorf(rec.Row, types.FieldType,
			"Type must be 'Epic' or 'Task', got '%s'", itemType))
	}

	return findings
}
