// Package mapper turns validated records into outbound items and makes sure
// their labels exist on the remote before commit.
package mapper

import (
	"github.com/steveyegge/ghimport/internal/config"
	"github.com/steveyegge/ghimport/internal/types"
)

// Mapper converts records into outbound items. It is pure: the same record
// and repository always map to the same item.
type Mapper struct {
	// ProjectLabel is appended to every item's labels. Empty disables it.
	ProjectLabel string
}

// New returns a Mapper tagging items with projectLabel.
func New(projectLabel string) Mapper {
	return Mapper{ProjectLabel: projectLabel}
}

// Map builds the outbound item for rec in repo.
func (m Mapper) Map(rec types.Record, repo string) types.OutboundItem {
	return types.OutboundItem{
		Row:              rec.Row,
		Title:            rec.Trimmed(types.FieldTitle),
		Body:             rec.Trimmed(types.FieldDescription),
		Labels:           m.labels(rec.Get(types.FieldLabels)),
		Assignee:         rec.Trimmed(types.FieldAssignee),
		Milestone:        rec.Trimmed(types.FieldMilestone),
		Type:             types.ItemType(rec.Trimmed(types.FieldType)),
		TargetRepository: repo,
	}
}

// labels splits the cell, drops duplicates keeping first occurrence, and
// appends the project label if it is not already present.
func (m Mapper) labels(cell string) []string {
	raw := types.SplitLabels(cell)
	out := make([]string, 0, len(raw)+1)
	seen := make(map[string]bool, len(raw)+1)
	for _, l := range raw {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	if m.ProjectLabel != "" && !seen[m.ProjectLabel] {
		out = append(out, m.ProjectLabel)
	}
	return out
}

// ResolveRepository returns the row's Repository column when set, otherwise
// the configured default. Empty means the row has nowhere to go.
func ResolveRepository(rec types.Record, rules config.RepositoryRules) string {
	return rules.Resolve(rec.Get(types.FieldRepository))
}
