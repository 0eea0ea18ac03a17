package analyzer

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\r?\n?```$")

	scorePattern   = regexp.MustCompile(`"score":\s*"?(\d+)`)
	summaryPattern = regexp.MustCompile(`"qualityReview":\s*"([^"]+)"`)
)

type reply struct {
	QualityReview    *string         `json:"qualityReview"`
	Suggestions      json.RawMessage `json:"suggestions"`
	SecurityConcerns *string         `json:"securityConcerns"`
	Score            json.RawMessage `json:"score"`
}

// suggestionKeys are tried in order when a suggestion arrives as an object.
var suggestionKeys = []string{"suggestion", "title", "text", "description"}

// StripFence removes one leading and one trailing markdown code fence.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = openingFence.ReplaceAllString(text, "")
		text = closingFence.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// ParseJudgment interprets a model reply. Valid JSON yields SourceParsed;
// anything else falls back to pattern extraction and yields SourceExtracted.
func ParseJudgment(text string) Judgment {
	text = StripFence(text)

	var r reply
	if err := json.Unmarshal([]byte(text), &r); err == nil {
		return fromReply(r)
	}
	return extract(text)
}

func fromReply(r reply) Judgment {
	j := Judgment{
		Summary:          MissingSummary,
		Suggestions:      []string{},
		SecurityConcerns: MissingSecurityConcerns,
		Score:            DefaultScore,
		Source:           SourceParsed,
	}
	if r.QualityReview != nil && *r.QualityReview != "" {
		j.Summary = *r.QualityReview
	}
	for _, s := range decodeSuggestions(r.Suggestions) {
		if s = strings.TrimSpace(s); s != "" {
			j.Suggestions = append(j.Suggestions, s)
		}
	}
	if r.SecurityConcerns != nil && *r.SecurityConcerns != "" {
		j.SecurityConcerns = *r.SecurityConcerns
	}
	if score, ok := decodeScore(r.Score); ok {
		j.Score = clampScore(int(math.Round(score)))
	}
	return j
}

// decodeScore accepts a JSON number or a numeric string such as "85".
func decodeScore(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// decodeSuggestions flattens whatever the model put under "suggestions" into
// strings. A bare string counts as one suggestion; objects contribute their
// first text field, or their compact JSON when they have none.
func decodeSuggestions(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		items = []json.RawMessage{raw}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := suggestionText(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func suggestionText(item json.RawMessage) (string, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || bytes.Equal(item, []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err == nil {
		for _, key := range suggestionKeys {
			if err := json.Unmarshal(fields[key], &s); err == nil && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, item); err != nil {
		return "", false
	}
	return compact.String(), true
}

func extract(text string) Judgment {
	j := Judgment{
		Summary:          ParseFailedSummary,
		Suggestions:      []string{UnparsedSuggestion},
		SecurityConcerns: UnknownConcerns,
		Score:            DefaultScore,
		Source:           SourceExtracted,
	}
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			j.Score = clampScore(n)
		}
	}
	if m := summaryPattern.FindStringSubmatch(text); m != nil {
		j.Summary = m[1]
	}
	return j
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
