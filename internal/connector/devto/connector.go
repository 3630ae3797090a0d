// Package devto publishes projects as DEV Community articles.
package devto

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crosspost/internal/connector"
	"crosspost/internal/content"
	"crosspost/internal/domain"
)

const (
	Platform = domain.Platform("devto")

	maxTags        = 4
	defaultBaseURL = "https://dev.to/api"

	SettingOrganizationID = "organization_id"
	SettingSeries         = "series"
	SettingPublished      = "published"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type Connector struct {
	client  *connector.Client
	baseURL string
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Connector {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Connector{
		client: connector.NewClient(connector.ClientConfig{
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}),
		baseURL: baseURL,
		logger:  logger.With("platform", Platform),
	}
}

func (c *Connector) Platform() domain.Platform {
	return Platform
}

// Publish creates an article, or updates priorContentID when set.
func (c *Connector) Publish(ctx context.Context, project *domain.Project, conn *domain.Connection, priorContentID string) (connector.Result, error) {
	req, err := BuildArticle(project, conn.Settings)
	if err != nil {
		return connector.Result{}, err
	}

	headers := http.Header{}
	headers.Set("api-key", conn.Credential.AccessToken)

	method, endpoint := http.MethodPost, c.baseURL+"/articles"
	if priorContentID != "" {
		method, endpoint = http.MethodPut, c.baseURL+"/articles/"+url.PathEscape(priorContentID)
	}

	var resp ArticleResponse
	if err := c.client.Do(ctx, method, endpoint, headers, req, &resp); err != nil {
		return connector.Result{}, err
	}
	if resp.ID == 0 {
		return connector.Result{}, domain.Transient("response carried no article id")
	}

	c.logger.Debug("published article",
		"project_id", project.ID,
		"article_id", resp.ID,
		"update", priorContentID != "",
	)

	return connector.Result{
		ContentID: strconv.FormatInt(resp.ID, 10),
		URL:       resp.URL,
	}, nil
}

// BuildArticle adapts a project to the article payload. Markdown passes
// through unchanged; tags are slugged and capped at the platform limit.
func BuildArticle(project *domain.Project, settings map[string]string) (ArticleRequest, error) {
	title := strings.TrimSpace(project.Title)
	if title == "" {
		return ArticleRequest{}, domain.ContentRejected("title is required")
	}
	if strings.TrimSpace(project.Body) == "" {
		return ArticleRequest{}, domain.ContentRejected("body is required")
	}

	article := Article{
		Title:        title,
		BodyMarkdown: project.Body,
		Published:    settings[SettingPublished] != "false",
		Series:       settings[SettingSeries],
	}
	if project.CanonicalURL != nil {
		article.CanonicalURL = *project.CanonicalURL
	}

	seen := make(map[string]bool)
	for _, tag := range project.Tags {
		slug := content.Slug(tag)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		article.Tags = append(article.Tags, slug)
		if len(article.Tags) == maxTags {
			break
		}
	}

	if raw := settings[SettingOrganizationID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ArticleRequest{}, domain.ContentRejected(fmt.Sprintf("invalid organization_id %q", raw))
		}
		article.OrganizationID = &id
	}

	return ArticleRequest{Article: article}, nil
}
