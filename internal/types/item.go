package types

// OutboundItem is the fully-resolved payload for one remote issue.
//
// It is built once per valid record by the mapper, its labels are confirmed
// once by the enricher, and it is consumed exactly once by the commit stage.
// Empty Assignee or Milestone means absent.
type OutboundItem struct {
	Row              int      `json:"row" yaml:"row"`
	Title            string   `json:"title" yaml:"title"`
	Body             string   `json:"body" yaml:"body"`
	Labels           []string `json:"labels" yaml:"labels"`
	Assignee         string   `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Milestone        string   `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	Type             ItemType `json:"type" yaml:"type"`
	TargetRepository string   `json:"repository" yaml:"repository"`
}

// HasLabel reports whether the item carries the given label.
func (i *OutboundItem) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// CreatedItem identifies an issue the commit stage created.
type CreatedItem struct {
	ItemID string `json:"item_id" yaml:"item_id"` // owner/repo#number
	Number int    `json:"number" yaml:"number"`
	URL    string `json:"url" yaml:"url"`
}

// Outcome is the per-row result of the commit stage: either Created is set,
// or Message explains why the row failed.
type Outcome struct {
	Row     int          `json:"row" yaml:"row"`
	Title   string       `json:"row_title" yaml:"row_title"`
	Created *CreatedItem `json:"created,omitempty" yaml:"created,omitempty"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// OK reports whether the row produced a remote item.
func (o Outcome) OK() bool {
	return o.Created != nil
}

// Created builds a successful outcome.
func Created(row int, title string, item CreatedItem) Outcome {
	return Outcome{Row: row, Title: title, Created: &item}
}

// Failed builds a failed outcome.
func Failed(row int, title, message string) Outcome {
	return Outcome{Row: row, Title: title, Message: message}
}

// Report aggregates the commit stage outcomes in input order.
type Report struct {
	Success  bool      `json:"valid" yaml:"valid"`
	Total    int       `json:"total" yaml:"total"`
	Created  int       `json:"total_created" yaml:"total_created"`
	Failed   int       `json:"total_failed" yaml:"total_failed"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// NewReport creates an empty report for a batch of total rows.
func NewReport(total int) *Report {
	return &Report{Success: true, Total: total, Outcomes: make([]Outcome, 0, total)}
}

// Add records an outcome.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.OK() {
		r.Created++
	} else {
		r.Failed++
	}
	r.Success = r.Failed == 0
}

// Failures returns the failed outcomes.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Anomalous reports a non-empty batch for which nothing was created and
// nothing was reported as failed. Callers should flag it.
func (r *Report) Anomalous() bool {
	return r.Total > 0 && r.Created == 0 && r.Failed == 0
}
