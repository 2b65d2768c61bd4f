package pipeline

import (
	"fmt"
	"strings"

	"github.com/steveyegge/ghimport/internal/mapper"
	"github.com/steveyegge/ghimport/internal/types"
)

// Placeholders shown for empty preview fields.
const (
	Unassigned = "Unassigned"
	NoneValue  = "None"
)

// PreviewItem is one row as it will be imported.
type PreviewItem struct {
	Row        int    `json:"row" yaml:"row"`
	Type       string `json:"type" yaml:"type"`
	Title      string `json:"title" yaml:"title"`
	Repository string `json:"repository" yaml:"repository"`
	Assignee   string `json:"assignee" yaml:"assignee"`
	Labels     string `json:"labels" yaml:"labels"`
}

// Preview lists what Commit would create for a valid result. It makes no
// remote calls. An invalid result previews nothing.
func (p *Pipeline) Preview(in *types.StageResult) []PreviewItem {
	if in == nil || !in.Valid || in.Data == nil {
		p.logger.Error("cannot preview: validation failed")
		return nil
	}

	items := make([]PreviewItem, 0, in.Data.Len())
	for _, rec := range in.Data.Records {
		items = append(items, PreviewItem{
			Row:        rec.Row,
			Type:       rec.Trimmed(types.FieldType),
			Title:      rec.Trimmed(types.FieldTitle),
			Repository: orDefault(mapper.ResolveRepository(rec, p.cfg.Rules), NoneValue),
			Assignee:   orDefault(rec.Trimmed(types.FieldAssignee), Unassigned),
			Labels:     orDefault(rec.Trimmed(types.FieldLabels), NoneValue),
		})
	}
	return items
}

// RenderPreview formats items as the human-readable import listing.
func RenderPreview(items []PreviewItem) string {
	var b strings.Builder
	b.WriteString("=== Import Preview ===\n")
	fmt.Fprintf(&b, "Total items to import: %d\n\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "[%s] %s\n", it.Type, it.Title)
		fmt.Fprintf(&b, "  Repository: %s\n", it.Repository)
		fmt.Fprintf(&b, "  Assignee: %s\n", it.Assignee)
		fmt.Fprintf(&b, "  Labels: %s\n", it.Labels)
		b.WriteString("\n")
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
