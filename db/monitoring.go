package db

import (
	"context"
	"fmt"

	"repohealth/models"
)

// ListMonitoringTargets returns every active repository with its owner's credential.
// Repositories whose owner row is gone come back with NULL username and token;
// the scheduler decides what to do with them.
func (db *DB) ListMonitoringTargets(ctx context.Context) ([]models.MonitoringTarget, error) {
	query := `
		SELECT r.id, r.user_id, r.github_repo_id, r.owner, r.name, r.url,
			r.description, r.language, r.last_analyzed_at, r.health_score,
			r.activity_status, r.is_active, r.created_at, r.updated_at,
			u.username, u.access_token
		FROM repositories r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.is_active
		ORDER BY r.created_at
	`

	targets := []models.MonitoringTarget{}
	if err := db.conn.SelectContext(ctx, &targets, query); err != nil {
		return nil, fmt.Errorf("failed to fetch repositories for monitoring: %w", err)
	}
	return targets, nil
}
