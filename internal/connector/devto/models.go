package devto

// ArticleRequest is the body of create and update calls.
type ArticleRequest struct {
	Article Article `json:"article"`
}

type Article struct {
	Title          string   `json:"title"`
	BodyMarkdown   string   `json:"body_markdown"`
	Published      bool     `json:"published"`
	Tags           []string `json:"tags,omitempty"`
	CanonicalURL   string   `json:"canonical_url,omitempty"`
	Series         string   `json:"series,omitempty"`
	Description    string   `json:"description,omitempty"`
	OrganizationID *int64   `json:"organization_id,omitempty"`
}

// ArticleResponse is the subset of the API response the connector reads.
type ArticleResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}
