// Package models defines the core data structures used throughout the application.
package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// ActivityStatus classifies how recently a repository has seen commits.
type ActivityStatus string

const (
	StatusActive   ActivityStatus = "Active"
	StatusModerate ActivityStatus = "Moderate"
	StatusInactive ActivityStatus = "Inactive"
)

// User is the owner of monitored repositories and holder of the GitHub credential.
type User struct {
	ID          string    `db:"id" json:"id"`
	GitHubID    string    `db:"github_id" json:"github_id"`
	Username    string    `db:"username" json:"username"`
	AccessToken string    `db:"access_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Repository represents a GitHub repository a user has opted into monitoring.
type Repository struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	GitHubRepoID   int64          `db:"github_repo_id" json:"github_repo_id"`
	Owner          string         `db:"owner" json:"owner"`
	Name           string         `db:"name" json:"name"`
	URL            string         `db:"url" json:"url"`
	Description    string         `db:"description" json:"description"`
	Language       string         `db:"language" json:"language"`
	LastAnalyzedAt *time.Time     `db:"last_analyzed_at" json:"last_analyzed_at"`
	HealthScore    int            `db:"health_score" json:"health_score"`
	ActivityStatus ActivityStatus `db:"activity_status" json:"activity_status"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// FullName returns the owner/name form used by GitHub.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// RepositoryUpdate is the state written back to a repository after an analysis cycle.
type RepositoryUpdate struct {
	RepoID         string
	LastAnalyzedAt time.Time
	HealthScore    int
	ActivityStatus ActivityStatus
}

// MonitoringTarget is an active repository joined with its owner's credential.
// Username and AccessToken are NULL when the owning user row is missing.
type MonitoringTarget struct {
	Repository
	Username    sql.NullString `db:"username"`
	AccessToken sql.NullString `db:"access_token"`
}

// Report is one persisted analysis cycle. Reports are never updated.
type Report struct {
	ID               string         `db:"id" json:"id"`
	RepoID           string         `db:"repository_id" json:"repository_id"`
	CommitCount      int            `db:"commit_count" json:"commit_count"`
	QualityScore     int            `db:"quality_score" json:"quality_score"`
	AIScore          int            `db:"ai_score" json:"ai_score"`
	ConsistencyScore int            `db:"consistency_score" json:"consistency_score"`
	ActivityScore    int            `db:"activity_score" json:"activity_score"`
	Summary          string         `db:"summary" json:"summary"`
	Suggestions      pq.StringArray `db:"suggestions" json:"suggestions"`
	SecurityConcerns string         `db:"security_concerns" json:"security_concerns"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// Commit is a single commit as seen by the analysis pipeline.
type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	AuthorName string    `json:"author_name"`
	AuthoredAt time.Time `json:"authored_at"`
	URL        string    `json:"url"`
}

// ActivityPoint is the commit count for one UTC calendar day.
type ActivityPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RemoteRepository is a repository as listed by GitHub for the authenticated user.
type RemoteRepository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner"`
	FullName    string    `json:"full_name"`
	URL         string    `json:"html_url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Private     bool      `json:"private"`
	UpdatedAt   time.Time `json:"updated_at"`
}
