package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repohealth/logger"
	"repohealth/models"
)

const userColumns = `id, github_id, username, access_token, created_at, updated_at`

// UpsertUser stores a user keyed by GitHub id, refreshing username and token on conflict
func (db *DB) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	if user.GitHubID == "" || user.Username == "" {
		return nil, fmt.Errorf("%w: github id and username cannot be empty", ErrInvalidInput)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, github_id, username, access_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (github_id) DO UPDATE SET
			username = EXCLUDED.username,
			access_token = EXCLUDED.access_token,
			updated_at = NOW()
		RETURNING ` + userColumns

	var stored models.User
	if err := db.conn.GetContext(ctx, &stored, query,
		user.ID, user.GitHubID, user.Username, user.AccessToken,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", user.GitHubID, err)
	}

	logger.Named("db").Info("User stored",
		zap.String("user_id", stored.ID),
		zap.String("github_id", stored.GitHubID))
	return &stored, nil
}

// GetUserByGitHubID retrieves a user by their GitHub account id
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID string) (*models.User, error) {
	if githubID == "" {
		return nil, fmt.Errorf("%w: github id cannot be empty", ErrInvalidInput)
	}

	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE github_id = $1`
	if err := db.conn.GetContext(ctx, &user, query, githubID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: github id %s", ErrUserNotFound, githubID)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", githubID, err)
	}
	return &user, nil
}

// GetUser retrieves a user by internal id
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := checkID("user", id, ErrUserNotFound); err != nil {
		return nil, err
	}

	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := db.conn.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}
