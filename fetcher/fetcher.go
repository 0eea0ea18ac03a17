// Package fetcher turns GitHub commit listings into analysis input.
//
// Fetch failures are never returned as errors: a failed fetch yields an empty
// result marked Degraded so an analysis cycle can carry on without commits.
package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repohealth/logger"
	"repohealth/models"
)

const dateLayout = "2006-01-02"

// CommitLister is the GitHub operation the fetcher needs
type CommitLister interface {
	ListCommits(ctx context.Context, token, owner, name string, since time.Time) ([]models.Commit, error)
}

// CommitsResult is the outcome of FetchRecentCommits.
type CommitsResult struct {
	Commits  []models.Commit
	Degraded bool
	Err      error
}

// ActivityResult is the outcome of FetchCommitActivity.
type ActivityResult struct {
	Points   []models.ActivityPoint
	Degraded bool
	Err      error
}

// Fetcher retrieves commit history and derives day-bucketed activity from it.
type Fetcher struct {
	client CommitLister
	now    func() time.Time
}

// New creates a Fetcher over client.
func New(client CommitLister) *Fetcher {
	return &Fetcher{client: client, now: time.Now}
}

// FetchRecentCommits returns up to 100 of the newest commits, newest first.
func (f *Fetcher) FetchRecentCommits(ctx context.Context, owner, name, token string) CommitsResult {
	commits, err := f.client.ListCommits(ctx, token, owner, name, time.Time{})
	if err != nil {
		logger.Named("fetcher").Warn("Commit fetch failed, continuing with no commits",
			zap.String("owner", owner),
			zap.String("name", name),
			zap.Error(err))
		return CommitsResult{Commits: []models.Commit{}, Degraded: true, Err: err}
	}
	if commits == nil {
		commits = []models.Commit{}
	}
	return CommitsResult{Commits: commits}
}

// FetchCommitActivity returns windowDays consecutive UTC days ending today with
// the number of commits authored on each, oldest day first.
func (f *Fetcher) FetchCommitActivity(ctx context.Context, owner, name, token string, windowDays int) ActivityResult {
	if windowDays < 1 {
		return ActivityResult{Points: []models.ActivityPoint{}}
	}
	now := f.now().UTC()
	since := startOfDay(now).AddDate(0, 0, -(windowDays - 1))

	commits, err := f.client.ListCommits(ctx, token, owner, name, since)
	if err != nil {
		logger.Named("fetcher").Warn("Commit activity fetch failed",
			zap.String("owner", owner),
			zap.String("name", name),
			zap.Int("window_days", windowDays),
			zap.Error(err))
		return ActivityResult{Points: []models.ActivityPoint{}, Degraded: true, Err: err}
	}
	return ActivityResult{Points: BuildActivitySeries(commits, windowDays, now)}
}

// BuildActivitySeries buckets commits by UTC author day over the windowDays days
// ending on now's UTC date. Every day is present, zero when nothing landed on it;
// commits outside the window are dropped.
func BuildActivitySeries(commits []models.Commit, windowDays int, now time.Time) []models.ActivityPoint {
	if windowDays < 1 {
		return []models.ActivityPoint{}
	}
	first := startOfDay(now.UTC()).AddDate(0, 0, -(windowDays - 1))

	points := make([]models.ActivityPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := range points {
		date := first.AddDate(0, 0, i).Format(dateLayout)
		points[i] = models.ActivityPoint{Date: date}
		index[date] = i
	}

	for _, c := range commits {
		if i, ok := index[c.AuthoredAt.UTC().Format(dateLayout)]; ok {
			points[i].Count++
		}
	}
	return points
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
