package types

import "fmt"

// Severity classifies a Finding. Only SeverityError blocks a stage.
type Severity string

// Severity constants
const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// Blocking reports whether findings of this severity stop stage progression.
func (s Severity) Blocking() bool {
	return s == SeverityError
}

// Finding is a structured validation or reconciliation observation.
// Row 0 denotes a batch-level (header or file) issue.
type Finding struct {
	Row      int      `json:"row" yaml:"row"`
	Field    string   `json:"field" yaml:"field"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// String renders the finding as a single log-friendly line.
func (f Finding) String() string {
	if f.Row == 0 {
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Field, f.Message)
	}
	return fmt.Sprintf("[%s] row %d %s: %s", f.Severity, f.Row, f.Field, f.Message)
}

// Errorf builds an error-severity finding.
func Errorf(row int, field, format string, args ...interface{}) Finding {
	return Finding{Row: row, Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// Warnf builds a warn-severity finding.
func Warnf(row int, field, format string, args ...interface{}) Finding {
	return Finding{Row: row, Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarn}
}

// Infof builds an info-severity finding.
func Infof(row int, field, format string, args ...interface{}) Finding {
	return Finding{Row: row, Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityInfo}
}

// HasErrors reports whether any finding blocks progression.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity.Blocking() {
			return true
		}
	}
	return false
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Stage names
const (
	StageValidate = "validate"
	StageEnrich   = "enrich"
)

// StageResult is the summary a stage hands to the next one.
//
// Valid always equals !HasErrors(Findings). Data is carried only while the
// result is valid; AddFindings drops it the moment an error is recorded.
type StageResult struct {
	Stage    string    `json:"stage" yaml:"stage"`
	Valid    bool      `json:"valid" yaml:"valid"`
	RowCount int       `json:"rows_count" yaml:"rows_count"`
	Findings []Finding `json:"findings" yaml:"findings"`
	Data     *Batch    `json:"-" yaml:"-"`
}

// NewStageResult creates a stage result carrying batch and any findings
// already produced for it.
func NewStageResult(stage string, batch *Batch, findings ...Finding) *StageResult {
	r := &StageResult{
		Stage:    stage,
		Valid:    true,
		RowCount: batch.Len(),
		Findings: []Finding{},
		Data:     batch,
	}
	r.AddFindings(findings...)
	return r
}

// AddFindings appends findings and re-establishes the Valid/Data invariant.
func (r *StageResult) AddFindings(findings ...Finding) {
	r.Findings = append(r.Findings, findings...)
	r.Valid = !HasErrors(r.Findings)
	if !r.Valid {
		r.Data = nil
	}
}

// Errors returns the blocking findings.
func (r *StageResult) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns the non-blocking findings (warn and info).
func (r *StageResult) Warnings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Severity.Blocking() {
			out = append(out, f)
		}
	}
	return out
}

func (r *StageResult) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// Advance copies the result into a new stage, keeping findings and data.
// The receiver is left untouched.
func (r *StageResult) Advance(stage string) *StageResult {
	next := &StageResult{
		Stage:    stage,
		Valid:    r.Valid,
		RowCount: r.RowCount,
		Findings: append([]Finding{}, r.Findings...),
		Data:     r.Data,
	}
	return next
}
