// Package service runs repository analysis cycles, either on demand or on a
// schedule over every monitored repository.
package service

import (
	"context"
	"errors"

	"repohealth/analyzer"
	"repohealth/fetcher"
	"repohealth/models"
)

// MaxActivityWindowDays bounds the charting window accepted by CommitActivity.
const MaxActivityWindowDays = 365

// Service errors
var (
	ErrMissingCredential = errors.New("repository owner has no GitHub credential")
	ErrAnalysisFailed    = errors.New("analysis failed")
	ErrInvalidWindow     = errors.New("invalid activity window")
)

// Store abstracts the database operations needed by an analysis cycle
// (for testability)
type Store interface {
	GetRepository(ctx context.Context, id string) (*models.Repository, error)
	GetUserByGitHubID(ctx context.Context, githubID string) (*models.User, error)
	SaveAnalysis(ctx context.Context, report *models.Report, update models.RepositoryUpdate) error
}

// CommitFetcher abstracts commit retrieval (for testability)
type CommitFetcher interface {
	FetchRecentCommits(ctx context.Context, owner, name, token string) fetcher.CommitsResult
	FetchCommitActivity(ctx context.Context, owner, name, token string, windowDays int) fetcher.ActivityResult
}

// QualityAnalyzer abstracts the AI judgment (for testability)
type QualityAnalyzer interface {
	Analyze(ctx context.Context, repoName string, commitCount int, messages []string) analyzer.Judgment
}
