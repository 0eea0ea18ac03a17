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

const repositoryColumns = `id, user_id, github_repo_id, owner, name, url, description, language,
	last_analyzed_at, health_score, activity_status, is_active, created_at, updated_at`

// CreateRepository starts monitoring a repository for a user.
// A second row for the same (user, GitHub repository) fails with ErrDuplicateEntry.
func (db *DB) CreateRepository(ctx context.Context, repo *models.Repository) error {
	if repo.UserID == "" || repo.Name == "" || repo.Owner == "" || repo.GitHubRepoID == 0 {
		return fmt.Errorf("%w: user, github repo id, owner and name are required", ErrInvalidInput)
	}
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	if repo.ActivityStatus == "" {
		repo.ActivityStatus = models.StatusActive
	}

	log := logger.Named("db")
	log.Info("Storing repository", zap.String("owner", repo.Owner), zap.String("name", repo.Name))

	query := `
		INSERT INTO repositories (
			id, user_id, github_repo_id, owner, name, url,
			description, language, activity_status, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING health_score, is_active, created_at, updated_at
	`

	row := db.conn.QueryRowxContext(ctx, query,
		repo.ID, repo.UserID, repo.GitHubRepoID, repo.Owner, repo.Name, repo.URL,
		repo.Description, repo.Language, string(repo.ActivityStatus),
	)
	if err := row.Scan(&repo.HealthScore, &repo.IsActive, &repo.CreatedAt, &repo.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: repository %s already monitored", ErrDuplicateEntry, repo.FullName())
		}
		return fmt.Errorf("failed to store repository: %w", err)
	}

	log.Info("Repository stored successfully",
		zap.String("repo_id", repo.ID),
		zap.String("owner", repo.Owner),
		zap.String("name", repo.Name))
	return nil
}

// GetRepository retrieves a monitored repository by id
func (db *DB) GetRepository(ctx context.Context, id string) (*models.Repository, error) {
	if err := checkID("repository", id, ErrRepositoryNotFound); err != nil {
		return nil, err
	}

	var repo models.Repository
	query := `SELECT ` + repositoryColumns + ` FROM repositories WHERE id = $1`
	if err := db.conn.GetContext(ctx, &repo, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, id)
		}
		return nil, fmt.Errorf("failed to get repository %s: %w", id, err)
	}
	return &repo, nil
}

// ListRepositoriesByUser returns a user's monitored repositories, newest first
func (db *DB) ListRepositoriesByUser(ctx context.Context, userID string) ([]models.Repository, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}

	repos := []models.Repository{}
	query := `SELECT ` + repositoryColumns + ` FROM repositories WHERE user_id = $1 ORDER BY created_at DESC`
	if err := db.conn.SelectContext(ctx, &repos, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list repositories for user %s: %w", userID, err)
	}
	return repos, nil
}

// SetRepositoryActive pauses or resumes scheduled analysis for a repository
func (db *DB) SetRepositoryActive(ctx context.Context, id string, active bool) error {
	if err := checkID("repository", id, ErrRepositoryNotFound); err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE repositories SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update repository %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, id)
	}
	return nil
}
