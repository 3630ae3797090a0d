package devto

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testProject() *domain.Project {
	canonical := "https://blog.example.com/hello"
	return &domain.Project{
		ID:           "p1",
		OwnerID:      "u1",
		Title:        "  Hello World ",
		Body:         "# Hello\n\nBody text.",
		Tags:         []string{"Go", "Web-Dev", "go", "cloud", "k8s", "extra"},
		CanonicalURL: &canonical,
		Targets:      []domain.Platform{Platform},
	}
}

func TestBuildArticle(t *testing.T) {
	got, err := BuildArticle(testProject(), map[string]string{
		SettingSeries:         "Intro",
		SettingOrganizationID: "17",
	})
	require.NoError(t, err)

	org := int64(17)
	want := ArticleRequest{Article: Article{
		Title:          "Hello World",
		BodyMarkdown:   "# Hello\n\nBody text.",
		Published:      true,
		Tags:           []string{"go", "webdev", "cloud", "k8s"},
		CanonicalURL:   "https://blog.example.com/hello",
		Series:         "Intro",
		OrganizationID: &org,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildArticle() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArticle_Rejections(t *testing.T) {
	p := testProject()
	p.Title = " "
	_, err := BuildArticle(p, nil)
	var perr *domain.PublishError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindContentRejected, perr.Kind)

	_, err = BuildArticle(testProject(), map[string]string{SettingOrganizationID: "abc"})
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindContentRejected, perr.Kind)
}

func TestBuildArticle_Draft(t *testing.T) {
	got, err := BuildArticle(testProject(), map[string]string{SettingPublished: "false"})
	require.NoError(t, err)
	assert.False(t, got.Article.Published)
}

func TestConnector_CreateThenUpdate(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("api-key"))

		var body ArticleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello World", body.Article.Title)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":991,"url":"https://dev.to/u1/hello-world"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	conn := &domain.Connection{OwnerID: "u1", Platform: Platform, Credential: domain.Credential{AccessToken: "key-1"}}

	res, err := c.Publish(context.Background(), testProject(), conn, "")
	require.NoError(t, err)
	assert.Equal(t, "991", res.ContentID)
	assert.Equal(t, "https://dev.to/u1/hello-world", res.URL)

	_, err = c.Publish(context.Background(), testProject(), conn, "991")
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /articles", "PUT /articles/991"}, calls)
}

func TestConnector_UpdateEscapesPriorID(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":991,"url":"https://dev.to/u1/hello-world"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	conn := &domain.Connection{Credential: domain.Credential{AccessToken: "key-1"}}

	_, err := c.Publish(context.Background(), testProject(), conn, "../users/7 x?y")
	require.NoError(t, err)
	assert.Equal(t, "/articles/..%2Fusers%2F7%20x%3Fy", path)
}

func TestConnector_AuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	conn := &domain.Connection{Credential: domain.Credential{AccessToken: "bad"}}

	_, err := c.Publish(context.Background(), testProject(), conn, "")
	var perr *domain.PublishError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindAuthRejected, perr.Kind)
}
