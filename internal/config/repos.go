package config

import "strings"

// RepositoryRules selects the repositories rows are imported into and
// checked against. Values are repository names under github.owner, or
// "owner/name" for another owner.
type RepositoryRules struct {
	Primary   string `mapstructure:"primary" yaml:"primary,omitempty"`
	Secondary string `mapstructure:"secondary" yaml:"secondary,omitempty"`
	Default   string `mapstructure:"default" yaml:"default,omitempty"`
}

// ReconcileRepos returns the configured primary and secondary repositories,
// trimmed, deduplicated and without empties.
func (r RepositoryRules) ReconcileRepos() []string {
	var repos []string
	for _, repo := range []string{r.Primary, r.Secondary} {
		repo = strings.TrimSpace(repo)
		if repo == "" {
			continue
		}
		dup := false
		for _, have := range repos {
			if have == repo {
				dup = true
				break
			}
		}
		if !dup {
			repos = append(repos, repo)
		}
	}
	return repos
}

// Resolve returns override when set, otherwise the default repository.
// An empty result means the row has no target.
func (r RepositoryRules) Resolve(override string) string {
	if repo := strings.TrimSpace(override); repo != "" {
		return repo
	}
	return strings.TrimSpace(r.Default)
}
