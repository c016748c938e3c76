// Package validate replays the reference corpus through the triage classifier
// and the dispatch rule engine and reports agreement with the curated labels.
package validate

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"sahm/internal/dispatch"
	"sahm/internal/models"
	"sahm/internal/triage"
)

//go:embed corpus.yaml
var defaultCorpus []byte

// Scenario is a dispatch reference case
type Scenario struct {
	Name             string  `yaml:"name"`
	WeatherRiskPct   float64 `yaml:"weather_risk_pct"`
	HarmThresholdMin float64 `yaml:"harm_threshold_min"`
	GroundETAMin     float64 `yaml:"ground_eta_min"`
	AirETAMin        float64 `yaml:"air_eta_min"`
	ExpectedMode     string  `yaml:"expected_mode"`
	ExpectedRule     string  `yaml:"expected_rule,omitempty"`
}

// Case is a triage reference case
type Case struct {
	Name             string   `yaml:"name"`
	Symptoms         []string `yaml:"symptoms"`
	FreeText         string   `yaml:"free_text"`
	DurationMinutes  int      `yaml:"duration_minutes"`
	VoiceStressScore float64  `yaml:"voice_stress_score"`
	ExpectedSeverity int      `yaml:"expected_severity"`
	ExpectedCategory string   `yaml:"expected_category"`
}

// Corpus is the full reference dataset
type Corpus struct {
	Scenarios []Scenario `yaml:"scenarios"`
	Cases     []Case     `yaml:"cases"`
}

// Mismatch records one reference entry the rules disagree with
type Mismatch struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// Report summarizes agreement for one corpus section
type Report struct {
	Name       string     `json:"name"`
	Matches    int        `json:"matches"`
	Total      int        `json:"total"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Accuracy returns the match ratio; an empty report counts as fully accurate
func (r Report) Accuracy() float64 {
	if r.Total == 0 {
		return 1
	}
	return float64(r.Matches) / float64(r.Total)
}

// DefaultCorpus returns the embedded reference corpus
func DefaultCorpus() (*Corpus, error) {
	return ParseCorpus(defaultCorpus)
}

// LoadCorpus reads a corpus from a YAML file
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes a YAML corpus
func ParseCorpus(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return &c, nil
}

// Validator compares rule outputs with corpus labels
type Validator struct {
	classifier triage.Classifier
	engine     *dispatch.RuleEngine
}

// NewValidator creates a validator over the given components
func NewValidator(classifier triage.Classifier, engine *dispatch.RuleEngine) *Validator {
	return &Validator{
		classifier: classifier,
		engine:     engine,
	}
}

// Run validates both sections concurrently, returning the scenario report first
func (v *Validator) Run(ctx context.Context, c *Corpus) ([]Report, error) {
	reports := make([]Report, 2)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		reports[0] = v.Scenarios(c.Scenarios)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		reports[1] = v.Cases(c.Cases)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Scenarios replays dispatch scenarios through the rule engine
func (v *Validator) Scenarios(scenarios []Scenario) Report {
	r := Report{Name: "scenarios", Total: len(scenarios)}
	for _, s := range scenarios {
		d := v.engine.Decide(models.EnvironmentMetrics{
			WeatherRiskPct:   s.WeatherRiskPct,
			HarmThresholdMin: s.HarmThresholdMin,
			GroundETAMin:     s.GroundETAMin,
			AirETAMin:        s.AirETAMin,
		})

		ok := string(d.ResponseMode) == s.ExpectedMode
		if s.ExpectedRule != "" {
			ok = ok && d.RuleTriggered == s.ExpectedRule
		}
		if ok {
			r.Matches++
			continue
		}
		r.Mismatches = append(r.Mismatches, Mismatch{
			Name:     s.Name,
			Expected: label(s.ExpectedMode, s.ExpectedRule),
			Got:      label(string(d.ResponseMode), d.RuleTriggered),
		})
	}
	return r
}

// Cases replays triage cases through the classifier
func (v *Validator) Cases(cases []Case) Report {
	r := Report{Name: "cases", Total: len(cases)}
	for _, c := range cases {
		t := v.classifier.Classify(models.IncidentSignal{
			Symptoms:         c.Symptoms,
			FreeText:         c.FreeText,
			DurationMinutes:  c.DurationMinutes,
			VoiceStressScore: c.VoiceStressScore,
		})

		if int(t.SeverityLevel) == c.ExpectedSeverity && string(t.Category) == c.ExpectedCategory {
			r.Matches++
			continue
		}
		r.Mismatches = append(r.Mismatches, Mismatch{
			Name:     c.Name,
			Expected: fmt.Sprintf("%d/%s", c.ExpectedSeverity, c.ExpectedCategory),
			Got:      fmt.Sprintf("%d/%s", int(t.SeverityLevel), t.Category),
		})
	}
	return r
}

func label(mode, rule string) string {
	if rule == "" {
		return mode
	}
	return mode + " (" + rule + ")"
}
