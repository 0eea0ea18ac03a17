package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"repohealth/db"
	"repohealth/health"
	"repohealth/logger"
	"repohealth/models"
)

// Analyzer runs analysis cycles: fetch, judge, score, persist.
type Analyzer struct {
	store    Store
	fetcher  CommitFetcher
	analyzer QualityAnalyzer
	now      func() time.Time

	// one mutex per repository id; cycles for the same repository run one at a time
	locks sync.Map
}

// NewAnalyzer creates the analysis orchestrator.
func NewAnalyzer(store Store, commits CommitFetcher, quality QualityAnalyzer) *Analyzer {
	return &Analyzer{
		store:    store,
		fetcher:  commits,
		analyzer: quality,
		now:      time.Now,
	}
}

func (a *Analyzer) lock(repoID string) func() {
	m, _ := a.locks.LoadOrStore(repoID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RunAnalysis runs one analysis cycle for repo using token as the GitHub credential.
// Fetch and AI failures degrade the inputs; only a persistence failure is returned.
// On success repo reflects the new state.
func (a *Analyzer) RunAnalysis(ctx context.Context, repo *models.Repository, token string) (*models.Report, error) {
	unlock := a.lock(repo.ID)
	defer unlock()

	log := logger.WithRepo("analysis", repo.ID, repo.FullName())
	log.Info("Starting analysis cycle")

	fetched := a.fetcher.FetchRecentCommits(ctx, repo.Owner, repo.Name, token)
	commits := fetched.Commits

	messages := make([]string, len(commits))
	for i, c := range commits {
		messages[i] = c.Message
	}

	judgment := a.analyzer.Analyze(ctx, repo.Name, len(commits), messages)

	now := a.now().UTC()
	scores := health.Calculate(judgment.Score, commits, now)
	status := health.StatusFor(commits, now)

	report := &models.Report{
		RepoID:           repo.ID,
		CommitCount:      len(commits),
		QualityScore:     scores.Final,
		AIScore:          scores.AI,
		ConsistencyScore: scores.Consistency,
		ActivityScore:    scores.Activity,
		Summary:          judgment.Summary,
		Suggestions:      pq.StringArray(judgment.Suggestions),
		SecurityConcerns: judgment.SecurityConcerns,
		CreatedAt:        now,
	}
	update := models.RepositoryUpdate{
		RepoID:         repo.ID,
		LastAnalyzedAt: now,
		HealthScore:    scores.Final,
		ActivityStatus: status,
	}

	if err := a.store.SaveAnalysis(ctx, report, update); err != nil {
		log.Error("Failed to persist analysis", zap.Error(err))
		return nil, fmt.Errorf("%w for %s: %w", ErrAnalysisFailed, repo.FullName(), err)
	}

	repo.LastAnalyzedAt = &now
	repo.HealthScore = scores.Final
	repo.ActivityStatus = status

	log.Info("Analysis cycle complete",
		zap.String("report_id", report.ID),
		zap.Int("commit_count", report.CommitCount),
		zap.Int("ai_score", scores.AI),
		zap.Int("consistency_score", scores.Consistency),
		zap.Int("activity_score", scores.Activity),
		zap.Int("health_score", scores.Final),
		zap.Bool("commits_degraded", fetched.Degraded),
		zap.Bool("judgment_degraded", judgment.Degraded()),
		zap.String("judgment_source", string(judgment.Source)))
	return report, nil
}

// RunAnalysisByID is the on-demand entry point: it resolves the repository and
// its owner's credential, then runs a cycle.
func (a *Analyzer) RunAnalysisByID(ctx context.Context, repoID, githubUserID string) (*models.Report, error) {
	repo, user, err := a.resolve(ctx, repoID, githubUserID)
	if err != nil {
		return nil, err
	}
	return a.RunAnalysis(ctx, repo, user.AccessToken)
}

// CommitActivity returns the gap-filled daily commit counts for the last days days.
// A GitHub failure yields an empty series rather than an error.
func (a *Analyzer) CommitActivity(ctx context.Context, repoID, githubUserID string, days int) ([]models.ActivityPoint, error) {
	if days < 1 || days > MaxActivityWindowDays {
		return nil, fmt.Errorf("%w: %d days (want 1-%d)", ErrInvalidWindow, days, MaxActivityWindowDays)
	}
	repo, user, err := a.resolve(ctx, repoID, githubUserID)
	if err != nil {
		return nil, err
	}
	return a.fetcher.FetchCommitActivity(ctx, repo.Owner, repo.Name, user.AccessToken, days).Points, nil
}

// resolve loads a repository and checks it belongs to the GitHub user.
func (a *Analyzer) resolve(ctx context.Context, repoID, githubUserID string) (*models.Repository, *models.User, error) {
	user, err := a.store.GetUserByGitHubID(ctx, githubUserID)
	if err != nil {
		return nil, nil, err
	}
	repo, err := a.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, nil, err
	}
	if repo.UserID != user.ID {
		return nil, nil, fmt.Errorf("%w: %s", db.ErrRepositoryNotFound, repoID)
	}
	if user.AccessToken == "" {
		return nil, nil, fmt.Errorf("%w: user %s", ErrMissingCredential, user.GitHubID)
	}
	return repo, user, nil
}
