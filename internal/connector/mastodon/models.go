package mastodon

type StatusRequest struct {
	Status     string `json:"status"`
	Visibility string `json:"visibility,omitempty"`
	Language   string `json:"language,omitempty"`
}

type StatusResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
