// Package types defines the core data structures shared by every ghimport stage.
package types

import "strings"

// Column names understood by the importer.
const (
	FieldTitle       = "Title"
	FieldDescription = "Description"
	FieldType        = "Type"
	FieldLabels      = "Labels"
	FieldAssignee    = "Assignee"
	FieldMilestone   = "Milestone"

	// FieldRepository is optional. When set it overrides repository_rules.default.
	FieldRepository = "Repository"
)

// RequiredFields lists the columns every input file must declare, in the
// order they are reported when missing.
var RequiredFields = []string{
	FieldTitle,
	FieldDescription,
	FieldType,
	FieldLabels,
	FieldAssignee,
	FieldMilestone,
}

// FirstDataRow is the row number of the first record. Row 1 is the header.
const FirstDataRow = 2

// ItemType is the kind of work item a row describes.
type ItemType string

// Item type constants
const (
	TypeEpic ItemType = "Epic"
	TypeTask ItemType = "Task"
)

// IsValid checks if the item type value is supported. Matching is exact.
func (t ItemType) IsValid() bool {
	switch t {
	case TypeEpic, TypeTask:
		return true
	}
	return false
}

// Record is one parsed input row. Fields is keyed by column name; the
// declared column order lives on the enclosing Batch.
type Record struct {
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// Get returns the raw value of a column, or "" if the column is absent.
func (r Record) Get(field string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}

// Trimmed returns the value of a column with surrounding whitespace removed.
func (r Record) Trimmed(field string) string {
	return strings.TrimSpace(r.Get(field))
}

// Batch is an ordered sequence of records plus the header row they came from.
type Batch struct {
	Headers []string `json:"headers,omitempty"`
	Records []Record `json:"records"`
}

// Len returns the number of records in the batch. A nil batch is empty.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// SplitLabels splits a semicolon-separated label cell, trimming each entry
// and dropping empties. The result keeps input order and may contain
// duplicates.
func SplitLabels(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var labels []string
	for _, l := range strings.Split(cell, ";") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
