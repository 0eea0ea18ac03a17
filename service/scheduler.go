package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"repohealth/logger"
	"repohealth/models"
)

// DefaultSchedule runs one sweep a day at midnight.
const DefaultSchedule = "0 0 * * *"

// TargetLister abstracts the monitoring query (for testability)
type TargetLister interface {
	ListMonitoringTargets(ctx context.Context) ([]models.MonitoringTarget, error)
}

// RepoAnalyzer abstracts a single analysis cycle (for testability)
type RepoAnalyzer interface {
	RunAnalysis(ctx context.Context, repo *models.Repository, token string) (*models.Report, error)
}

// SweepSummary counts the outcome of one scheduled pass.
type SweepSummary struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// Scheduler periodically analyzes every active monitored repository.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	lister   TargetLister
	analyzer RepoAnalyzer
	running  atomic.Bool
	timeout  time.Duration
}

// NewScheduler validates the cron expression and registers the sweep.
// An empty spec means DefaultSchedule; a nil loc means UTC.
func NewScheduler(spec string, loc *time.Location, lister TargetLister, analyzer RepoAnalyzer) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		lister:   lister,
		analyzer: analyzer,
		timeout:  6 * time.Hour,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing sweeps in the background.
func (s *Scheduler) Start() {
	logger.Info("Starting analysis scheduler", zap.String("schedule", s.spec))
	s.cron.Start()
}

// Stop prevents new sweeps and waits for a running one until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	logger.Info("Stopping analysis scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		logger.Error("Scheduled sweep failed", zap.Error(err))
	}
}

// RunOnce performs one sweep over all active repositories. Repositories are
// analyzed one after another; a failing repository does not stop the sweep.
// A call made while another sweep is still running returns immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (SweepSummary, error) {
	var summary SweepSummary
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("Previous sweep still running, skipping")
		return summary, nil
	}
	defer s.running.Store(false)

	log := logger.Named("scheduler")
	started := time.Now()

	targets, err := s.lister.ListMonitoringTargets(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list monitored repositories: %w", err)
	}
	log.Info("Starting sweep", zap.Int("repositories", len(targets)))

	for i := range targets {
		if ctx.Err() != nil {
			log.Warn("Sweep cancelled", zap.Error(ctx.Err()))
			break
		}

		target := &targets[i]
		repo := target.Repository
		if !target.Username.Valid || !target.AccessToken.Valid || target.AccessToken.String == "" {
			log.Warn("Skipping repository without owner credential",
				zap.String("repo_id", repo.ID),
				zap.String("repo", repo.FullName()))
			summary.Skipped++
			continue
		}

		if _, err := s.analyzer.RunAnalysis(ctx, &repo, target.AccessToken.String); err != nil {
			log.Error("Failed to analyze repository",
				zap.String("repo_id", repo.ID),
				zap.String("repo", repo.FullName()),
				zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Analyzed++
	}

	log.Info("Sweep complete",
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(started)))
	return summary, nil
}
