// Package mastodon publishes projects as statuses on a Mastodon instance.
package mastodon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"crosspost/internal/connector"
	"crosspost/internal/content"
	"crosspost/internal/domain"
)

const (
	Platform = domain.Platform("mastodon")

	DefaultCharLimit = 500

	SettingInstanceURL = "instance_url"
	SettingVisibility  = "visibility"
	SettingLanguage    = "language"
)

var visibilities = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
	"direct":   true,
}

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	CharLimit     int
}

type Connector struct {
	client    *connector.Client
	baseURL   string
	charLimit int
	logger    *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Connector {
	limit := cfg.CharLimit
	if limit <= 0 {
		limit = DefaultCharLimit
	}
	return &Connector{
		client: connector.NewClient(connector.ClientConfig{
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		charLimit: limit,
		logger:    logger.With("platform", Platform),
	}
}

func (c *Connector) Platform() domain.Platform {
	return Platform
}

// Publish posts a status, or edits priorContentID when set.
func (c *Connector) Publish(ctx context.Context, project *domain.Project, conn *domain.Connection, priorContentID string) (connector.Result, error) {
	instance := strings.TrimRight(conn.Setting(SettingInstanceURL, c.baseURL), "/")
	if _, err := url.ParseRequestURI(instance); err != nil || instance == "" {
		return connector.Result{}, domain.ContentRejected(fmt.Sprintf("invalid instance url %q", instance))
	}

	req, err := BuildStatus(project, conn.Settings, c.charLimit)
	if err != nil {
		return connector.Result{}, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+conn.Credential.AccessToken)

	method, endpoint := http.MethodPost, instance+"/api/v1/statuses"
	if priorContentID != "" {
		method, endpoint = http.MethodPut, instance+"/api/v1/statuses/"+url.PathEscape(priorContentID)
	} else {
		// The instance drops a repeated create carrying the same key, which
		// covers a timed-out call that actually landed.
		headers.Set("Idempotency-Key", IdempotencyKey(project))
	}

	var resp StatusResponse
	if err := c.client.Do(ctx, method, endpoint, headers, req, &resp); err != nil {
		return connector.Result{}, err
	}
	if resp.ID == "" {
		return connector.Result{}, domain.Transient("response carried no status id")
	}

	c.logger.Debug("published status",
		"project_id", project.ID,
		"status_id", resp.ID,
		"update", priorContentID != "",
	)

	return connector.Result{ContentID: resp.ID, URL: resp.URL}, nil
}

func IdempotencyKey(project *domain.Project) string {
	return "crosspost:" + project.OwnerID + ":" + project.ID
}

// BuildStatus flattens the project to plain text and fits it into limit
// characters. The canonical link and hashtags are kept whole; the body is
// truncated to make room. Hashtags are dropped before the link.
func BuildStatus(project *domain.Project, settings map[string]string, limit int) (StatusRequest, error) {
	visibility := settings[SettingVisibility]
	if visibility == "" {
		visibility = "public"
	}
	if !visibilities[visibility] {
		return StatusRequest{}, domain.ContentRejected(fmt.Sprintf("unknown visibility %q", visibility))
	}

	main := strings.TrimSpace(project.Title)
	if text := content.PlainText(project.Body); text != "" {
		if main != "" {
			main += "\n\n"
		}
		main += text
	}
	if main == "" {
		return StatusRequest{}, domain.ContentRejected("post has no text")
	}

	var link string
	if project.CanonicalURL != nil {
		link = strings.TrimSpace(*project.CanonicalURL)
	}
	tags := strings.Join(content.Hashtags(project.Tags), " ")

	suffix := joinTail(link, tags)
	if limit-utf8.RuneCountInString(suffix) < 1 {
		suffix = joinTail(link, "")
	}
	budget := limit - utf8.RuneCountInString(suffix)
	if budget < 1 {
		return StatusRequest{}, domain.ContentRejected(fmt.Sprintf("post cannot fit in %d characters", limit))
	}

	return StatusRequest{
		Status:     content.Truncate(main, budget) + suffix,
		Visibility: visibility,
		Language:   settings[SettingLanguage],
	}, nil
}

func joinTail(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(p)
	}
	return b.String()
}
