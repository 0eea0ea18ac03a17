package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repohealth/models"
)

var userCols = []string{"id", "github_id", "username", "access_token", "created_at", "updated_at"}

func TestUpsertUser(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "1001", "octocat", "gho_token").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "1001", "octocat", "gho_token", created, created))

	user, err := db.UpsertUser(context.Background(), models.User{
		GitHubID: "1001", Username: "octocat", AccessToken: "gho_token",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "gho_token", user.AccessToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserInvalid(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.UpsertUser(context.Background(), models.User{Username: "octocat"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetUserByGitHubID(t *testing.T) {
	tests := []struct {
		name        string
		githubID    string
		mockSetup   func(sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name:     "found",
			githubID: "1001",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM users WHERE github_id").
					WithArgs("1001").
					WillReturnRows(sqlmock.NewRows(userCols).
						AddRow("u-1", "1001", "octocat", "tok", created, created))
			},
		},
		{
			name:     "not found",
			githubID: "404",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM users WHERE github_id").
					WithArgs("404").
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr: ErrUserNotFound,
		},
		{
			name:        "empty id",
			mockSetup:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			user, err := db.GetUserByGitHubID(context.Background(), tt.githubID)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "octocat", user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetUser(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(missingID).
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetUser(context.Background(), missingID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMonitoringTargets(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("LEFT JOIN users u ON u.id = r.user_id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "github_repo_id", "owner", "name", "url", "description", "language",
			"last_analyzed_at", "health_score", "activity_status", "is_active", "created_at", "updated_at",
			"username", "access_token",
		}).
			AddRow("r-1", "u-1", int64(42), "octo", "hello", "u", "", "", nil, 0, "Active", true, created, created,
				"octocat", "tok").
			AddRow("r-2", "u-9", int64(43), "octo", "orphan", "u", "", "", nil, 0, "Active", true, created, created,
				nil, nil))

	targets, err := db.ListMonitoringTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "octo/hello", targets[0].FullName())
	assert.True(t, targets[0].AccessToken.Valid)
	assert.Equal(t, "tok", targets[0].AccessToken.String)
	assert.False(t, targets[1].AccessToken.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
