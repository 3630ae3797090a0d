package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crosspost/internal/connection"
	"crosspost/internal/domain"
	"crosspost/internal/scheduler"
	"crosspost/internal/service"
	"crosspost/internal/storage/memory"
)

type ServerTestSuite struct {
	suite.Suite
	server      *httptest.Server
	projects    *memory.ProjectStore
	connections *connection.Registry
	planner     *scheduler.Planner
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.projects = memory.NewProjectStore()
	s.projects.Put(domain.Project{
		ID:      "p1",
		OwnerID: "owner-1",
		Title:   "Hello",
		Targets: []domain.Platform{"devto", "mastodon"},
	})
	s.connections = connection.NewRegistry(memory.NewConnectionStore(), nil, connection.Config{}, logger)
	s.planner = scheduler.NewPlanner(memory.NewIntentStore(), s.connections, scheduler.Config{}, logger)

	s.server = httptest.NewServer(New(Config{
		Planner:     s.planner,
		Connections: s.connections,
		Projects:    s.projects,
		Status:      service.NewStatusService(s.projects, memory.NewAttemptStore()),
		Logger:      logger,
	}))
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServerTestSuite) do(method, path string, body any) (int, []byte) {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	return res.StatusCode, data
}

func (s *ServerTestSuite) errorCode(data []byte) string {
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(data, &envelope), string(data))
	return envelope.Error.Code
}

func (s *ServerTestSuite) schedule(platform string, due time.Time) IntentResponse {
	status, data := s.do(http.MethodPost, "/intents", ScheduleIntentRequest{ProjectID: "p1", Platform: platform, DueAt: &due})
	s.Require().Equal(http.StatusCreated, status, string(data))
	var intent IntentResponse
	s.Require().NoError(json.Unmarshal(data, &intent))
	return intent
}

func (s *ServerTestSuite) TestHealth() {
	status, data := s.do(http.MethodGet, "/health", nil)
	s.Require().Equal(http.StatusOK, status)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(data, &body))
	s.Equal("ok", body["status"])
}

func (s *ServerTestSuite) TestScheduleListCancel() {
	later := time.Now().Add(time.Hour).UTC()
	intent := s.schedule("devto", later)
	s.Equal("p1", intent.ProjectID)
	s.Equal("owner-1", intent.OwnerID)
	s.Equal(string(domain.IntentPending), intent.State)

	status, data := s.do(http.MethodGet, "/intents", nil)
	s.Require().Equal(http.StatusOK, status)
	var list IntentListResponse
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Require().Len(list.Intents, 1)
	s.Equal(intent.ID, list.Intents[0].ID)

	status, _ = s.do(http.MethodDelete, "/intents/"+intent.ID, nil)
	s.Equal(http.StatusNoContent, status)

	status, data = s.do(http.MethodGet, "/intents", nil)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Empty(list.Intents)
}

func (s *ServerTestSuite) TestScheduleRejectsBadInput() {
	status, data := s.do(http.MethodPost, "/intents", ScheduleIntentRequest{ProjectID: "p1"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("bad_request", s.errorCode(data))

	status, data = s.do(http.MethodPost, "/intents", ScheduleIntentRequest{ProjectID: "p1", Platform: "medium"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("bad_request", s.errorCode(data))

	status, data = s.do(http.MethodPost, "/intents", ScheduleIntentRequest{ProjectID: "nope", Platform: "devto"})
	s.Equal(http.StatusNotFound, status)
	s.Equal("not_found", s.errorCode(data))
}

func (s *ServerTestSuite) TestCancelUnknown() {
	status, data := s.do(http.MethodDelete, "/intents/missing", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("not_found", s.errorCode(data))
}

func (s *ServerTestSuite) TestReorder() {
	later := time.Now().Add(time.Hour).UTC()
	a := s.schedule("devto", later)
	b := s.schedule("mastodon", later)

	status, data := s.do(http.MethodPost, "/intents/reorder", ReorderRequest{IDs: []string{b.ID, a.ID}})
	s.Require().Equal(http.StatusNoContent, status, string(data))

	status, data = s.do(http.MethodGet, "/intents", nil)
	s.Require().Equal(http.StatusOK, status)
	var list IntentListResponse
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Require().Len(list.Intents, 2)
	s.Equal(b.ID, list.Intents[0].ID)
	s.Equal(a.ID, list.Intents[1].ID)

	status, data = s.do(http.MethodPost, "/intents/reorder", ReorderRequest{})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("bad_request", s.errorCode(data))
}

func (s *ServerTestSuite) TestReorderDueIntentIsTooLate() {
	due := s.schedule("devto", time.Now().Add(-time.Minute).UTC())

	status, data := s.do(http.MethodPost, "/intents/reorder", ReorderRequest{IDs: []string{due.ID}})
	s.Equal(http.StatusConflict, status)
	s.Equal("too_late", s.errorCode(data))
}

func (s *ServerTestSuite) TestPublishProject() {
	status, data := s.do(http.MethodPost, "/projects/p1/publish", nil)
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Equal("no_connection", s.errorCode(data))

	for _, platform := range []string{"devto", "mastodon"} {
		status, data = s.do(http.MethodPut, "/connections/owner-1/"+platform, PutConnectionRequest{AccessToken: "tok-" + platform})
		s.Require().Equal(http.StatusOK, status, string(data))
	}

	later := time.Now().Add(time.Hour).UTC()
	status, data = s.do(http.MethodPost, "/projects/p1/publish", PublishProjectRequest{DueAt: &later})
	s.Require().Equal(http.StatusCreated, status, string(data))
	var list IntentListResponse
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Len(list.Intents, 2)

	// Republishing replaces the pending intents rather than queueing more.
	status, data = s.do(http.MethodPost, "/projects/p1/publish", nil)
	s.Require().Equal(http.StatusCreated, status, string(data))
	s.Len(s.planner.Pending(context.Background()), 2)
}

func (s *ServerTestSuite) TestConnections() {
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	status, data := s.do(http.MethodPut, "/connections/owner-1/mastodon", PutConnectionRequest{
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
		TokenType:    "Bearer",
		ExpiresAt:    &expires,
		Settings:     map[string]string{"instance_url": "https://mastodon.example"},
	})
	s.Require().Equal(http.StatusOK, status, string(data))
	s.NotContains(string(data), "secret-access")
	s.NotContains(string(data), "secret-refresh")

	var conn ConnectionResponse
	s.Require().NoError(json.Unmarshal(data, &conn))
	s.Equal("mastodon", conn.Platform)
	s.Equal("https://mastodon.example", conn.Settings["instance_url"])
	s.Require().NotNil(conn.ExpiresAt)
	s.True(expires.Equal(*conn.ExpiresAt))

	status, data = s.do(http.MethodGet, "/connections/owner-1", nil)
	s.Require().Equal(http.StatusOK, status)
	var list ConnectionListResponse
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Len(list.Connections, 1)

	status, _ = s.do(http.MethodDelete, "/connections/owner-1/mastodon", nil)
	s.Equal(http.StatusNoContent, status)

	status, data = s.do(http.MethodDelete, "/connections/owner-1/mastodon", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("not_found", s.errorCode(data))

	status, data = s.do(http.MethodGet, "/connections/owner-1", nil)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Empty(list.Connections)
}

func (s *ServerTestSuite) TestConnectionRequiresToken() {
	status, data := s.do(http.MethodPut, "/connections/owner-1/devto", PutConnectionRequest{})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("bad_request", s.errorCode(data))
}

func (s *ServerTestSuite) TestProjectStatus() {
	status, data := s.do(http.MethodGet, "/projects/p1/status", nil)
	s.Require().Equal(http.StatusOK, status, string(data))
	var report service.ProjectReport
	s.Require().NoError(json.Unmarshal(data, &report))
	s.Equal(domain.ProjectPending, report.Status)
	s.Len(report.Targets, 2)

	status, data = s.do(http.MethodGet, "/projects/unknown/status", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("not_found", s.errorCode(data))
}

func (s *ServerTestSuite) TestHistoryEmpty() {
	status, data := s.do(http.MethodGet, "/projects/p1/targets/devto/history", nil)
	s.Require().Equal(http.StatusOK, status, string(data))
	var history HistoryResponse
	s.Require().NoError(json.Unmarshal(data, &history))
	s.NotNil(history.Attempts)
	s.Empty(history.Attempts)
}

