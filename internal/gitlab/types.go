package gitlab

import "time"

// Project identifies a single GitLab project.
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// Commit is a single commit as returned by the repository commits API.
type Commit struct {
	ID             string    `json:"id"`
	ShortID        string    `json:"short_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	AuthorName     string    `json:"author_name"`
	AuthorEmail    string    `json:"author_email"`
	AuthoredDate   time.Time `json:"authored_date"`
	CommitterName  string    `json:"committer_name"`
	CommitterEmail string    `json:"committer_email"`
	CommittedDate  time.Time `json:"committed_date"`
	ParentIDs      []string  `json:"parent_ids"`
	WebURL         string    `json:"web_url"`
}

// CommitStub is the abbreviated commit embedded in tag and branch responses.
type CommitStub struct {
	ID string `json:"id"`
}

// Tag is a repository tag.
type Tag struct {
	Name   string     `json:"name"`
	Commit CommitStub `json:"commit"`
}

// Branch is a repository branch.
type Branch struct {
	Name   string     `json:"name"`
	Commit CommitStub `json:"commit"`
}

// CommitRef names a branch or tag that contains a commit.
type CommitRef struct {
	Type string `json:"type"` // "branch" or "tag"
	Name string `json:"name"`
}

// User is the abbreviated user record embedded in merge request responses.
type User struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// MergeRequest is a single merge request as returned by the project merge
// requests API. IID is the visible number (!123); ID is instance-global.
type MergeRequest struct {
	ID             int        `json:"id"`
	IID            int        `json:"iid"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	State          string     `json:"state"` // "merged", "opened", "closed"
	SourceBranch   string     `json:"source_branch"`
	TargetBranch   string     `json:"target_branch"`
	Author         User       `json:"author"`
	MergedBy       *User      `json:"merged_by,omitempty"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	WebURL         string     `json:"web_url"`
	MergeCommitSHA string     `json:"merge_commit_sha,omitempty"`
	Labels         []string   `json:"labels,omitempty"`
}
