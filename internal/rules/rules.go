// Package rules holds the immutable decision tables shared by triage, dispatch,
// fleet generation and medic assignment. Tables are loaded once at process start
// and passed explicitly into each component.
package rules

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"sahm/internal/models"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Tables is the full set of decision tables
type Tables struct {
	Triage     TriageTables     `yaml:"triage"`
	Dispatch   DispatchTables   `yaml:"dispatch"`
	Assignment AssignmentTables `yaml:"assignment"`
	Fleet      FleetTables      `yaml:"fleet"`

	redFlags map[string]struct{}
}

// TriageTables configures the triage classifier
type TriageTables struct {
	SymptomPoints      map[string]float64 `yaml:"symptom_points"`
	RedFlags           []string           `yaml:"red_flags"`
	Categories         []CategoryRule     `yaml:"categories"`
	KeywordPoints      float64            `yaml:"keyword_points"`
	DurationWeight     float64            `yaml:"duration_weight"`
	DurationScaleMin   float64            `yaml:"duration_scale_min"`
	StressWeight       float64            `yaml:"stress_weight"`
	SeverityThresholds []float64          `yaml:"severity_thresholds"`
	ConfidenceFloor    float64            `yaml:"confidence_floor"`
}

// CategoryRule lists the symptom tokens and free-text keywords that vote for a category.
// The order of TriageTables.Categories is the tie-break priority.
type CategoryRule struct {
	Name     models.Category `yaml:"name"`
	Symptoms []string        `yaml:"symptoms"`
	Keywords []string        `yaml:"keywords"`
}

// Gate is the audit identity of one dispatch gate
type Gate struct {
	Rule       string  `yaml:"rule"`
	Confidence float64 `yaml:"confidence"`
}

// DispatchTables configures the dispatch rule engine
type DispatchTables struct {
	WeatherSafetyPct float64 `yaml:"weather_safety_pct"`
	EfficiencyMin    float64 `yaml:"efficiency_min"`
	Gates            struct {
		Weather    Gate `yaml:"weather"`
		Harm       Gate `yaml:"harm"`
		Efficiency Gate `yaml:"efficiency"`
		Default    Gate `yaml:"default"`
	} `yaml:"gates"`
	DefaultHarmMin   float64                     `yaml:"default_harm_min"`
	HarmMinutes      map[models.Category]float64 `yaml:"harm_minutes"`
	SeverityHarmCaps map[int]float64             `yaml:"severity_harm_caps"`
}

// Weights are the assignment criterion weights; they must sum to 1.0
type Weights struct {
	Distance  float64 `yaml:"distance"`
	Specialty float64 `yaml:"specialty"`
	Workload  float64 `yaml:"workload"`
	Rating    float64 `yaml:"rating"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Distance + w.Specialty + w.Workload + w.Rating
}

// SpecialtyRule maps a category to the specialties that can treat it
type SpecialtyRule struct {
	Primary models.Specialty   `yaml:"primary"`
	Related []models.Specialty `yaml:"related"`
}

// AssignmentTables configures the medic assignment engine
type AssignmentTables struct {
	Weights         Weights `yaml:"weights"`
	DistanceDecayKm float64 `yaml:"distance_decay_km"`
	CruiseSpeedKmh  float64 `yaml:"cruise_speed_kmh"`
	MaxLoad         int     `yaml:"max_load"`
	SpecialtyScores struct {
		Exact    float64 `yaml:"exact"`
		Related  float64 `yaml:"related"`
		Baseline float64 `yaml:"baseline"`
	} `yaml:"specialty_scores"`
	SpecialtyMap map[models.Category]SpecialtyRule `yaml:"specialty_map"`
}

// WeightedSpecialty is one entry of the fleet specialty distribution
type WeightedSpecialty struct {
	Specialty models.Specialty `yaml:"specialty"`
	Weight    int              `yaml:"weight"`
}

// FleetTables configures the fleet generator
type FleetTables struct {
	Size           int                 `yaml:"size"`
	RadiusKm       float64             `yaml:"radius_km"`
	AvailableShare float64             `yaml:"available_share"`
	EnRouteShare   float64             `yaml:"en_route_share"`
	Specialties    []WeightedSpecialty `yaml:"specialties"`
	FirstNames     []string            `yaml:"first_names"`
	LastNames      []string            `yaml:"last_names"`
	ExtraLanguages []string            `yaml:"extra_languages"`
}

// Default returns the embedded decision tables
func Default() (*Tables, error) {
	return Parse(defaultRules)
}

// MustDefault returns the embedded tables and panics if they are corrupt
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded decision tables are invalid: %v", err))
	}
	return t
}

// Load reads tables from path, or the embedded defaults when path is empty
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML table document
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("error parsing rules: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.redFlags = make(map[string]struct{}, len(t.Triage.RedFlags))
	for _, s := range t.Triage.RedFlags {
		t.redFlags[s] = struct{}{}
	}
	return &t, nil
}

// IsRedFlag reports whether token forces maximum severity
func (t *Tables) IsRedFlag(token string) bool {
	_, ok := t.redFlags[token]
	return ok
}

// Validate checks the internal consistency of the tables
func (t *Tables) Validate() error {
	tr := t.Triage
	if len(tr.SeverityThresholds) != 3 {
		return fmt.Errorf("%w: need 3 severity thresholds, got %d", ErrInvalidThresholds, len(tr.SeverityThresholds))
	}
	for i := 1; i < len(tr.SeverityThresholds); i++ {
		if tr.SeverityThresholds[i] <= tr.SeverityThresholds[i-1] {
			return fmt.Errorf("%w: severity thresholds must ascend", ErrInvalidThresholds)
		}
	}
	if tr.DurationScaleMin <= 0 {
		return fmt.Errorf("%w: duration_scale_min must be positive", ErrInvalidThresholds)
	}
	if !unit(tr.ConfidenceFloor) {
		return fmt.Errorf("%w: confidence_floor %.2f outside [0,1]", ErrInvalidThresholds, tr.ConfidenceFloor)
	}
	for _, s := range tr.RedFlags {
		if _, ok := tr.SymptomPoints[s]; !ok {
			return fmt.Errorf("%w: red flag %q", ErrUnknownSymptom, s)
		}
	}

	seen := make(map[models.Category]bool, len(tr.Categories))
	for _, c := range tr.Categories {
		if !c.Name.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c.Name)
		}
		for _, s := range c.Symptoms {
			if _, ok := tr.SymptomPoints[s]; !ok {
				return fmt.Errorf("%w: %q in category %s", ErrUnknownSymptom, s, c.Name)
			}
		}
		seen[c.Name] = true
	}
	for _, c := range models.Categories {
		if !seen[c] {
			return fmt.Errorf("%w: category %s has no triage rule", ErrUnknownCategory, c)
		}
		if _, ok := t.Assignment.SpecialtyMap[c]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingSpecialty, c)
		}
	}
	for c := range t.Dispatch.HarmMinutes {
		if !c.Valid() {
			return fmt.Errorf("%w: harm_minutes %q", ErrUnknownCategory, c)
		}
	}

	d := t.Dispatch
	if d.WeatherSafetyPct < 0 || d.EfficiencyMin < 0 || d.DefaultHarmMin <= 0 {
		return fmt.Errorf("%w: dispatch thresholds must be non-negative", ErrInvalidThresholds)
	}
	for _, g := range []Gate{d.Gates.Weather, d.Gates.Harm, d.Gates.Efficiency, d.Gates.Default} {
		if !unit(g.Confidence) {
			return fmt.Errorf("%w: %s confidence %.2f outside [0,1]", ErrInvalidThresholds, g.Rule, g.Confidence)
		}
	}

	w := t.Assignment.Weights
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidWeights, w.Sum())
	}
	if w.Distance <= w.Specialty || w.Distance <= w.Workload || w.Distance <= w.Rating {
		return fmt.Errorf("%w: distance must carry the largest weight", ErrInvalidWeights)
	}
	ss := t.Assignment.SpecialtyScores
	if !unit(ss.Exact) || !unit(ss.Related) || !unit(ss.Baseline) {
		return fmt.Errorf("%w: specialty scores must lie in [0,1]", ErrInvalidThresholds)
	}
	if t.Assignment.DistanceDecayKm <= 0 || t.Assignment.CruiseSpeedKmh <= 0 || t.Assignment.MaxLoad <= 0 {
		return fmt.Errorf("%w: assignment decay, speed and max load must be positive", ErrInvalidThresholds)
	}

	f := t.Fleet
	if f.Size <= 0 || f.RadiusKm <= 0 || len(f.Specialties) == 0 || len(f.FirstNames) == 0 || len(f.LastNames) == 0 {
		return fmt.Errorf("%w: size, radius, specialties and names are required", ErrInvalidFleet)
	}
	if f.AvailableShare <= 0 || f.EnRouteShare < 0 || f.AvailableShare+f.EnRouteShare > 1 {
		return fmt.Errorf("%w: status shares out of range", ErrInvalidFleet)
	}
	total := 0
	for _, s := range f.Specialties {
		if s.Weight < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidFleet, s.Specialty)
		}
		total += s.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: specialty weights sum to zero", ErrInvalidFleet)
	}
	return nil
}

// unit reports whether v lies in [0,1]
func unit(v float64) bool {
	return v >= 0 && v <= 1
}
