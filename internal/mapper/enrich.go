package mapper

import (
	"context"
	"log/slog"

	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/types"
)

// Enricher ensures every label on an item exists in the item's repository.
//
// Label creation is best effort: two importers racing on the same label may
// both try to create it, and the loser's conflict is treated as success.
type Enricher struct {
	remote   tracker.Remote
	defaults tracker.LabelSpec
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. defaults supplies the color and
// description for created labels; a nil logger discards output.
func NewEnricher(remote tracker.Remote, defaults tracker.LabelSpec, logger *slog.Logger) *Enricher {
	if defaults.Color == "" {
		defaults.Color = tracker.DefaultLabelColor
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{remote: remote, defaults: defaults, logger: logger}
}

// Enrich looks up each label of item and creates the missing ones. Lookup
// and creation failures are logged and the label is kept. The returned item
// always carries the same labels as the input. The only error is a
// cancelled context.
func (e *Enricher) Enrich(ctx context.Context, item types.OutboundItem) (types.OutboundItem, error) {
	repo := item.TargetRepository
	for _, name := range item.Labels {
		if err := ctx.Err(); err != nil {
			return item, err
		}

		_, err := e.remote.GetLabel(ctx, repo, name)
		switch {
		case err == nil:
			continue
		case !tracker.IsNotFound(err):
			if ctx.Err() != nil {
				return item, ctx.Err()
			}
			e.logger.Warn("label lookup failed", "repo", repo, "label", name, "row", item.Row, "error", err)
			continue
		}

		e.logger.Info("creating label", "repo", repo, "label", name, "row", item.Row)
		spec := e.defaults
		spec.Name = name
		_, err = e.remote.CreateLabel(ctx, repo, spec)
		switch {
		case err == nil:
		case tracker.IsAlreadyExists(err):
			e.logger.Debug("label already exists", "repo", repo, "label", name)
		default:
			if ctx.Err() != nil {
				return item, ctx.Err()
			}
			e.logger.Warn("label creation failed", "repo", repo, "label", name, "row", item.Row, "error", err)
		}
	}
	return item, nil
}
