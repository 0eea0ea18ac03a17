// Package analyzer asks a generative model for a qualitative judgment of a
// repository's recent commit activity.
//
// Analyze always returns a Judgment. When the model cannot be reached or its
// reply cannot be understood, the Judgment is filled with fixed placeholder
// values and its Source says so.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"repohealth/ai"
	"repohealth/logger"
)

// MaxSampleMessages is the number of commit messages sent to the model.
const MaxSampleMessages = 20

// Source records how a Judgment was obtained.
type Source string

const (
	// SourceParsed means the reply decoded as the requested JSON object.
	SourceParsed Source = "parsed"
	// SourceExtracted means fields were pulled out of a malformed reply one by one.
	SourceExtracted Source = "extracted"
	// SourceFallback means the model call failed and fixed values were used.
	SourceFallback Source = "fallback"
)

// Placeholder values.
const (
	DefaultScore            = 50
	UnknownConcerns         = "Unknown"
	UnavailableSummary      = "AI Analysis currently unavailable."
	CheckBackLater          = "Check back later."
	ParseFailedSummary      = "Analysis parsing failed."
	UnparsedSuggestion      = "Could not parse specific suggestions."
	MissingSummary          = "No review available"
	MissingSecurityConcerns = "None"
)

// Judgment is the model's assessment of a repository.
type Judgment struct {
	Summary          string
	Suggestions      []string
	SecurityConcerns string
	Score            int
	Source           Source
}

// Degraded reports whether the judgment contains placeholder values.
func (j Judgment) Degraded() bool {
	return j.Source != SourceParsed
}

// Analyzer builds prompts and interprets the model's replies.
type Analyzer struct {
	completer ai.Completer
}

// New creates an Analyzer backed by completer.
func New(completer ai.Completer) *Analyzer {
	return &Analyzer{completer: completer}
}

// Analyze judges a repository from its name, commit count and commit messages.
func (a *Analyzer) Analyze(ctx context.Context, repoName string, commitCount int, messages []string) Judgment {
	log := logger.Named("analyzer").With(zap.String("repo", repoName))

	text, err := a.completer.Complete(ctx, BuildPrompt(repoName, commitCount, messages))
	if err != nil {
		log.Warn("AI analysis failed, using fallback judgment", zap.Error(err))
		return FallbackJudgment()
	}

	j := ParseJudgment(text)
	if j.Source == SourceExtracted {
		log.Warn("AI reply was not valid JSON, extracted fields individually",
			zap.Int("score", j.Score))
	}
	return j
}

// FallbackJudgment is returned when the model cannot be reached.
func FallbackJudgment() Judgment {
	return Judgment{
		Summary:          UnavailableSummary,
		Suggestions:      []string{CheckBackLater},
		SecurityConcerns: UnknownConcerns,
		Score:            DefaultScore,
		Source:           SourceFallback,
	}
}

// BuildPrompt renders the analysis request. Only the first MaxSampleMessages
// messages are included.
func BuildPrompt(repoName string, commitCount int, messages []string) string {
	sample := messages
	if len(sample) > MaxSampleMessages {
		sample = sample[:MaxSampleMessages]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the development activity for the repository %q.\n\n", repoName)
	b.WriteString("Data:\n")
	fmt.Fprintf(&b, "- Total recent commits fetched: %d\n", commitCount)
	fmt.Fprintf(&b, "- Recent commit messages (sample): %s\n\n", strings.Join(sample, "; "))
	b.WriteString(`Based on this (and assuming general best practices), provide:
1. A code quality review summary (max 2 sentences).
2. 3 actionable improvement suggestions.
3. Any potential security concerns based on commit patterns (or "None detected" if unsure).
4. A health score out of 100 based on activity and clarity of messages.

Return the response in strictly valid JSON format like:
{
  "qualityReview": "...",
  "suggestions": ["...", "...", "..."],
  "securityConcerns": "...",
  "score": 85
}
`)
	return b.String()
}
