package triage

import (
	"sort"
	"strings"

	"sahm/internal/models"
	"sahm/internal/rules"
)

// ScoringClassifier implements a point-table classifier
type ScoringClassifier struct {
	tables *rules.Tables
}

// NewScoringClassifier creates a classifier over the given decision tables
func NewScoringClassifier(tables *rules.Tables) *ScoringClassifier {
	return &ScoringClassifier{tables: tables}
}

// Classify implements the Classifier interface
func (c *ScoringClassifier) Classify(signal models.IncidentSignal) models.TriageResult {
	t := c.tables.Triage
	symptoms := uniqueTokens(signal.Symptoms)

	score := 0.0
	var redFlags []string
	for _, s := range symptoms {
		score += t.SymptomPoints[s]
		if c.tables.IsRedFlag(s) {
			redFlags = append(redFlags, s)
		}
	}
	score += durationFactor(t, signal.DurationMinutes)
	score += t.StressWeight * signal.VoiceStressScore

	severity := severityFor(t.SeverityThresholds, score)
	if len(redFlags) > 0 {
		severity = models.SeverityCritical
	}

	category, confidence := c.categorize(symptoms, signal.FreeText)

	return models.TriageResult{
		SeverityLevel: severity,
		Category:      category,
		Confidence:    confidence,
		Score:         score,
		RedFlags:      redFlags,
	}
}

// categorize scores every category and returns the winner with its share of all points
func (c *ScoringClassifier) categorize(symptoms []string, freeText string) (models.Category, float64) {
	t := c.tables.Triage
	text := strings.ToLower(freeText)

	present := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		present[s] = true
	}

	best := models.CategoryOtherUnclear
	bestScore := 0.0
	total := 0.0

	// Categories are in priority order; a strict > keeps the earlier one on ties.
	for _, rule := range t.Categories {
		points := 0.0
		for _, s := range rule.Symptoms {
			if present[s] {
				points += t.SymptomPoints[s]
			}
		}
		if text != "" {
			for _, kw := range rule.Keywords {
				if strings.Contains(text, strings.ToLower(kw)) {
					points += t.KeywordPoints
				}
			}
		}
		total += points
		if points > bestScore {
			best = rule.Name
			bestScore = points
		}
	}

	if bestScore <= 0 || total <= 0 {
		return models.CategoryOtherUnclear, t.ConfidenceFloor
	}
	return best, bestScore / total
}

// durationFactor decreases monotonically as time since onset grows
func durationFactor(t rules.TriageTables, minutes int) float64 {
	if minutes < 0 {
		minutes = 0
	}
	return t.DurationWeight / (1 + float64(minutes)/t.DurationScaleMin)
}

func severityFor(thresholds []float64, score float64) models.Severity {
	severity := models.SeverityMinimal
	for i, min := range thresholds {
		if score >= min {
			severity = models.Severity(i + 1)
		}
	}
	return severity
}

// uniqueTokens normalizes and de-duplicates symptom tokens, keeping a stable order
func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
