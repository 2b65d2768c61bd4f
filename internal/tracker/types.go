package tracker

// DefaultLabelColor is used when the enricher creates a label without a
// configured color.
const DefaultLabelColor = "cccccc"

// UserRef identifies a remote user.
type UserRef struct {
	ID    int64
	Login string
	URL   string
}

// LabelRef identifies a remote label.
type LabelRef struct {
	ID    int64
	Name  string
	Color string
}

// LabelSpec describes a label to create.
type LabelSpec struct {
	Name        string
	Color       string // hex without '#'
	Description string
}

// IssueRequest is the payload for CreateIssue. Empty Assignee and Milestone
// are omitted from the request.
type IssueRequest struct {
	Title     string
	Body      string
	Labels    []string
	Assignee  string
	Milestone string // milestone number or title
}

// IssueRef identifies a created issue.
type IssueRef struct {
	ID     string // tracker-wide identifier, e.g. "owner/repo#12"
	Number int    // repository-scoped number
	URL    string
}
