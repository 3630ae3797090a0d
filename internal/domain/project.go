package domain

import "time"

// Platform identifies an external content platform (e.g., "devto", "mastodon").
type Platform string

type Project struct {
	ID           string
	OwnerID      string
	FolderID     *string
	Title        string
	Body         string // markdown
	Tags         []string
	CanonicalURL *string
	Targets      []Platform
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasTarget reports whether the project lists platform as a publish target.
func (p *Project) HasTarget(platform Platform) bool {
	for _, t := range p.Targets {
		if t == platform {
			return true
		}
	}
	return false
}
