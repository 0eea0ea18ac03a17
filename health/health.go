// Package health computes the repository health score.
//
// The final score is a weighted combination of three 0-100 sub-scores:
// the AI quality judgment (50%), commit consistency (30%) and activity
// recency (20%). Everything in this package is pure: the evaluation instant
// is always passed in, so identical inputs give identical outputs.
package health

import (
	"time"

	"repohealth/models"
)

// Weights of each sub-score in the final health score, in tenths.
const (
	WeightAI          = 5
	WeightConsistency = 3
	WeightActivity    = 2
)

const (
	// DefaultConsistency is used when there are no commits to measure cadence from.
	DefaultConsistency = 50
	day                = 24 * time.Hour
)

// Breakdown holds the final score and the sub-scores it was computed from.
type Breakdown struct {
	AI          int `json:"ai_score"`
	Consistency int `json:"consistency_score"`
	Activity    int `json:"activity_score"`
	Final       int `json:"final_score"`
}

// Calculate scores a commit sample against an AI score at instant now.
func Calculate(aiScore int, commits []models.Commit, now time.Time) Breakdown {
	ai := clamp(aiScore)
	consistency := ConsistencyScore(commits)
	activity := ActivityScore(commits, now)
	return Breakdown{
		AI:          ai,
		Consistency: consistency,
		Activity:    activity,
		Final:       FinalScore(ai, consistency, activity),
	}
}

// FinalScore returns round(ai*0.5 + consistency*0.3 + activity*0.2) in [0,100].
// Integer arithmetic keeps .5 cases from drifting under float error.
func FinalScore(ai, consistency, activity int) int {
	weighted := ai*WeightAI + consistency*WeightConsistency + activity*WeightActivity
	if weighted < 0 {
		return 0
	}
	return clamp((weighted + 5) / 10)
}

// ConsistencyScore maps commit cadence (commits per week over the sample span) to a score.
func ConsistencyScore(commits []models.Commit) int {
	if len(commits) == 0 {
		return DefaultConsistency
	}
	oldest, newest := bounds(commits)

	spanDays := newest.Sub(oldest).Hours() / 24
	if spanDays < 1 {
		spanDays = 1
	}
	weeks := spanDays / 7
	if weeks < 1 {
		weeks = 1
	}
	return ConsistencyForRate(float64(len(commits)) / weeks)
}

// ConsistencyForRate maps commits per week to a consistency score.
func ConsistencyForRate(perWeek float64) int {
	switch {
	case perWeek >= 10:
		return 100
	case perWeek >= 5:
		return 80
	case perWeek >= 2:
		return 60
	default:
		return 40
	}
}

// ActivityScore maps the time since the newest commit to a score. No commits scores 0.
func ActivityScore(commits []models.Commit, now time.Time) int {
	if len(commits) == 0 {
		return 0
	}
	_, newest := bounds(commits)
	return ActivityForDays(DaysSince(newest, now))
}

// ActivityForDays maps days since the last commit to an activity score.
func ActivityForDays(days float64) int {
	switch {
	case days <= 3:
		return 100
	case days <= 7:
		return 90
	case days <= 14:
		return 70
	case days <= 30:
		return 50
	default:
		return 20
	}
}

// StatusFor classifies a repository by the recency of its newest commit.
func StatusFor(commits []models.Commit, now time.Time) models.ActivityStatus {
	if len(commits) == 0 {
		return models.StatusInactive
	}
	_, newest := bounds(commits)
	days := DaysSince(newest, now)
	switch {
	case days <= 7:
		return models.StatusActive
	case days <= 30:
		return models.StatusModerate
	default:
		return models.StatusInactive
	}
}

// DaysSince returns the elapsed days between t and now, fractional.
func DaysSince(t, now time.Time) float64 {
	return float64(now.Sub(t)) / float64(day)
}

// bounds does not assume any ordering of the sample.
func bounds(commits []models.Commit) (oldest, newest time.Time) {
	oldest, newest = commits[0].AuthoredAt, commits[0].AuthoredAt
	for _, c := range commits[1:] {
		if c.AuthoredAt.Before(oldest) {
			oldest = c.AuthoredAt
		}
		if c.AuthoredAt.After(newest) {
			newest = c.AuthoredAt
		}
	}
	return oldest, newest
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
