package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"repohealth/db"
	"repohealth/models"
	"repohealth/service"
)

// MockStore is a mock implementation of the database interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetUserByGitHubID(ctx context.Context, githubID string) (*models.User, error) {
	args := m.Called(ctx, githubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) CreateRepository(ctx context.Context, repo *models.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}

func (m *MockStore) GetRepository(ctx context.Context, id string) (*models.Repository, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Repository), args.Error(1)
}

func (m *MockStore) ListRepositoriesByUser(ctx context.Context, userID string) ([]models.Repository, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Repository), args.Error(1)
}

func (m *MockStore) SetRepositoryActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockStore) ListReports(ctx context.Context, repoID string) ([]models.Report, error) {
	args := m.Called(ctx, repoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStore) DeleteReport(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDiscoverer is a mock implementation of the GitHub client
type MockDiscoverer struct {
	mock.Mock
}

func (m *MockDiscoverer) ListUserRepos(ctx context.Context, token string) ([]models.RemoteRepository, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RemoteRepository), args.Error(1)
}

// MockAnalyses is a mock implementation of the analysis orchestrator
type MockAnalyses struct {
	mock.Mock
}

func (m *MockAnalyses) RunAnalysisByID(ctx context.Context, repoID, githubUserID string) (*models.Report, error) {
	args := m.Called(ctx, repoID, githubUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockAnalyses) CommitActivity(ctx context.Context, repoID, githubUserID string, days int) ([]models.ActivityPoint, error) {
	args := m.Called(ctx, repoID, githubUserID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityPoint), args.Error(1)
}

var alice = &models.User{ID: "user-1", GitHubID: "1001", Username: "alice", AccessToken: "token"}

func ownedRepo() *models.Repository {
	return &models.Repository{ID: "repo-1", UserID: "user-1", Owner: "alice", Name: "hello", IsActive: true}
}

type mocks struct {
	store    *MockStore
	github   *MockDiscoverer
	analyses *MockAnalyses
}

func do(t *testing.T, setup func(mocks), method, path, body string) (int, string, mocks) {
	t.Helper()
	m := mocks{store: &MockStore{}, github: &MockDiscoverer{}, analyses: &MockAnalyses{}}
	if setup != nil {
		setup(m)
	}

	server := NewServer(Config{ActivityWindowDays: 30}, m.store, m.github, m.analyses)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw), m
}

func assertMocks(t *testing.T, m mocks) {
	m.store.AssertExpectations(t)
	m.github.AssertExpectations(t)
	m.analyses.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	status, body, _ := do(t, nil, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestListGitHub(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		setup          func(mocks)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing user id",
			path:           "/api/v1/repos/github",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Missing userId",
		},
		{
			name: "unknown user",
			path: "/api/v1/repos/github?userId=9",
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "9").
					Return(nil, fmt.Errorf("%w: github id 9", db.ErrUserNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "User not found",
		},
		{
			name: "user without token",
			path: "/api/v1/repos/github?userId=1001",
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").
					Return(&models.User{ID: "user-1", GitHubID: "1001"}, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "github failure hides detail",
			path: "/api/v1/repos/github?userId=1001",
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.github.On("ListUserRepos", mock.Anything, "token").Return(nil, fmt.Errorf("401 Bad credentials"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Failed to fetch repositories from GitHub",
		},
		{
			name: "lists repositories",
			path: "/api/v1/repos/github?userId=1001",
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.github.On("ListUserRepos", mock.Anything, "token").Return([]models.RemoteRepository{
					{ID: 42, Name: "hello", Owner: "alice", FullName: "alice/hello"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"full_name":"alice/hello"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body, m := do(t, tc.setup, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.expectedStatus, status)
			assert.Contains(t, body, tc.expectedBody)
			assert.NotContains(t, body, "Bad credentials")
			assertMocks(t, m)
		})
	}
}

func TestMonitor(t *testing.T) {
	payload := `{"userId":"1001","repo":{"id":42,"name":"hello","owner":"alice","html_url":"https://github.com/alice/hello","language":"Go"}}`

	testCases := []struct {
		name           string
		body           string
		setup          func(mocks)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "creates monitored repository",
			body: payload,
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.store.On("CreateRepository", mock.Anything, mock.MatchedBy(func(r *models.Repository) bool {
					return r.UserID == "user-1" && r.GitHubRepoID == 42 && r.Owner == "alice" &&
						r.Name == "hello" && r.URL == "https://github.com/alice/hello" && r.Language == "Go"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.Repository).ID = "repo-1"
				}).Return(nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"repo-1"`,
		},
		{
			name: "duplicate",
			body: payload,
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.store.On("CreateRepository", mock.Anything, mock.Anything).
					Return(fmt.Errorf("%w: repository alice/hello already monitored", db.ErrDuplicateEntry))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "Repository already monitored",
		},
		{
			name:           "malformed body",
			body:           `{"userId":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing user id",
			body:           `{"repo":{"id":42}}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Missing userId",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body, m := do(t, tc.setup, http.MethodPost, "/api/v1/repos/monitor", tc.body)
			assert.Equal(t, tc.expectedStatus, status)
			assert.Contains(t, body, tc.expectedBody)
			assertMocks(t, m)
		})
	}
}

func TestListMonitored(t *testing.T) {
	status, body, m := do(t, func(m mocks) {
		m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
		m.store.On("ListRepositoriesByUser", mock.Anything, "user-1").
			Return([]models.Repository{*ownedRepo()}, nil)
	}, http.MethodGet, "/api/v1/repos/monitored?userId=1001", "")

	require.Equal(t, http.StatusOK, status)
	var repos []models.Repository
	require.NoError(t, json.Unmarshal([]byte(body), &repos))
	require.Len(t, repos, 1)
	assert.Equal(t, "repo-1", repos[0].ID)
	assertMocks(t, m)
}

func TestSetActive(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		setup          func(mocks)
		expectedStatus int
	}{
		{
			name: "pauses repository",
			body: `{"userId":"1001","isActive":false}`,
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.store.On("GetRepository", mock.Anything, "repo-1").Return(ownedRepo(), nil)
				m.store.On("SetRepositoryActive", mock.Anything, "repo-1", false).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "repository of another user",
			body: `{"userId":"1001","isActive":false}`,
			setup: func(m mocks) {
				m.store.On("GetUserByGitHubID", mock.Anything, "1001").Return(alice, nil)
				m.store.On("GetRepository", mock.Anything, "repo-1").
					Return(&models.Repository{ID: "repo-1", UserID: "user-2"}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing flag",
			body:           `{"userId":"1001"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, m := do(t, tc.setup, http.MethodPatch, "/api/v1/repos/repo-1/active", tc.body)
			assert.Equal(t, tc.expectedStatus, status)
			assertMocks(t, m)
		})
	}
}

func TestTrigger(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		body           string
		setup          func(mocks)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "user id in body",
			path: "/api/v1/analysis/trigger/repo-1",
			body: `{"userId":"1001"}`,
			setup: func(m mocks) {
				m.analyses.On("RunAnalysisByID", mock.Anything, "repo-1", "1001").
					Return(&models.Report{ID: "report-1", RepoID: "repo-1", QualityScore: 85}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"quality_score":85`,
		},
		{
			name: "user id in query",
			path: "/api/v1/analysis/trigger/repo-1?userId=1001",
			setup: func(m mocks) {
				m.analyses.On("RunAnalysisByID", mock.Anything, "repo-1", "1001").
					Return(&models.Report{ID: "report-1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "persistence failure is generic",
			path: "/api/v1/analysis/trigger/repo-1",
			body: `{"userId":"1001"}`,
			setup: func(m mocks) {
				m.analyses.On("RunAnalysisByID", mock.Anything, "repo-1", "1001").
					Return(nil, fmt.Errorf("%w for alice/hello: pq: connection refused", service.ErrAnalysisFailed))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Analysis failed"}`,
		},
		{
			name: "unknown repository",
			path: "/api/v1/analysis/trigger/nope",
			body: `{"userId":"1001"}`,
			setup: func(m mocks) {
				m.analyses.On("RunAnalysisByID", mock.Anything, "nope", "1001").
					Return(nil, fmt.Errorf("%w: nope", db.ErrRepositoryNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing user id",
			path:           "/api/v1/analysis/trigger/repo-1",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body, m := do(t, tc.setup, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.expectedStatus, status)
			assert.Contains(t, body, tc.expectedBody)
			assert.NotContains(t, body, "connection refused")
			assertMocks(t, m)
		})
	}
}

func TestHistory(t *testing.T) {
	status, body, m := do(t, func(m mocks) {
		m.store.On("ListReports", mock.Anything, "repo-1").Return([]models.Report{
			{ID: "new", RepoID: "repo-1"},
			{ID: "old", RepoID: "repo-1"},
		}, nil)
	}, http.MethodGet, "/api/v1/analysis/history/repo-1", "")

	require.Equal(t, http.StatusOK, status)
	var reports []models.Report
	require.NoError(t, json.Unmarshal([]byte(body), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID)
	assertMocks(t, m)
}

func TestCommits(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		setup          func(mocks)
		expectedStatus int
	}{
		{
			name: "default window",
			path: "/api/v1/analysis/commits/repo-1?userId=1001",
			setup: func(m mocks) {
				m.analyses.On("CommitActivity", mock.Anything, "repo-1", "1001", 30).
					Return([]models.ActivityPoint{{Date: "2025-06-10", Count: 2}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "explicit window",
			path: "/api/v1/analysis/commits/repo-1?userId=1001&days=7",
			setup: func(m mocks) {
				m.analyses.On("CommitActivity", mock.Anything, "repo-1", "1001", 7).
					Return([]models.ActivityPoint{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "window out of range",
			path: "/api/v1/analysis/commits/repo-1?userId=1001&days=400",
			setup: func(m mocks) {
				m.analyses.On("CommitActivity", mock.Anything, "repo-1", "1001", 400).
					Return(nil, service.ErrInvalidWindow)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non numeric window",
			path:           "/api/v1/analysis/commits/repo-1?userId=1001&days=week",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, m := do(t, tc.setup, http.MethodGet, tc.path, "")
			assert.Equal(t, tc.expectedStatus, status)
			assertMocks(t, m)
		})
	}
}

func TestDeleteReport(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		status, body, m := do(t, func(m mocks) {
			m.store.On("DeleteReport", mock.Anything, "report-1").Return(nil)
		}, http.MethodDelete, "/api/v1/analysis/report-1", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "Report deleted successfully")
		assertMocks(t, m)
	})

	t.Run("absent", func(t *testing.T) {
		status, body, m := do(t, func(m mocks) {
			m.store.On("DeleteReport", mock.Anything, "gone").
				Return(fmt.Errorf("%w: gone", db.ErrReportNotFound))
		}, http.MethodDelete, "/api/v1/analysis/gone", "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body, "Report not found")
		assertMocks(t, m)
	})
}
