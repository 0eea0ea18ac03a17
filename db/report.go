package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"repohealth/logger"
	"repohealth/models"
)

const listReportsQuery = `
	SELECT id, repository_id, commit_count, quality_score, ai_score,
		consistency_score, activity_score, summary, suggestions,
		security_concerns, created_at
	FROM reports
	WHERE repository_id = $1
	ORDER BY created_at DESC
`

// SaveAnalysis inserts a report and writes the repository's new state in one transaction.
// Either both rows change or neither does.
func (db *DB) SaveAnalysis(ctx context.Context, report *models.Report, update models.RepositoryUpdate) error {
	if report.RepoID == "" || report.RepoID != update.RepoID {
		return fmt.Errorf("%w: report and update must reference the same repository", ErrInvalidInput)
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.Suggestions == nil {
		report.Suggestions = pq.StringArray{}
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reports (
			id, repository_id, commit_count, quality_score, ai_score,
			consistency_score, activity_score, summary, suggestions,
			security_concerns, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.RepoID, report.CommitCount, report.QualityScore, report.AIScore,
		report.ConsistencyScore, report.ActivityScore, report.Summary, report.Suggestions,
		report.SecurityConcerns, report.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert report for repository %s: %w", report.RepoID, err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE repositories
		SET last_analyzed_at = $2, health_score = $3, activity_status = $4, updated_at = NOW()
		WHERE id = $1`,
		update.RepoID, update.LastAnalyzedAt, update.HealthScore, string(update.ActivityStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to update repository %s: %w", update.RepoID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRepositoryNotFound, update.RepoID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	logger.Named("db").Info("Analysis saved",
		zap.String("report_id", report.ID),
		zap.String("repo_id", report.RepoID),
		zap.Int("quality_score", report.QualityScore))
	return nil
}

// ListReports returns a repository's reports, newest first
func (db *DB) ListReports(ctx context.Context, repoID string) ([]models.Report, error) {
	if err := checkID("repository", repoID, ErrRepositoryNotFound); err != nil {
		return nil, err
	}

	stmt, err := db.getStmt(ctx, listReportsQuery)
	if err != nil {
		return nil, err
	}

	reports := []models.Report{}
	if err := stmt.SelectContext(ctx, &reports, repoID); err != nil {
		return nil, fmt.Errorf("failed to list reports for repository %s: %w", repoID, err)
	}
	return reports, nil
}

// DeleteReport removes one report. Repository state is left untouched.
func (db *DB) DeleteReport(ctx context.Context, id string) error {
	if err := checkID("report", id, ErrReportNotFound); err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}

	logger.Named("db").Info("Report deleted", zap.String("report_id", id))
	return nil
}
