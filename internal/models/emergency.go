package models

// Category represents the clinical category assigned by triage
type Category string

const (
	CategoryCardiac        Category = "cardiac"
	CategoryTraumaBleeding Category = "trauma_bleeding"
	CategoryRespiratory    Category = "respiratory"
	CategoryAllergic       Category = "allergic"
	CategoryNeuro          Category = "neuro"
	CategoryInfectionFever Category = "infection_fever"
	CategoryGIDehydration  Category = "gi_dehydration"
	CategoryMentalHealth   Category = "mental_health"

	// CategoryOtherUnclear is used when no category scored above zero
	CategoryOtherUnclear Category = "other_unclear"
)

// Categories lists every category in tie-break priority order, most
// immediately life-threatening first.
var Categories = []Category{
	CategoryCardiac,
	CategoryTraumaBleeding,
	CategoryRespiratory,
	CategoryNeuro,
	CategoryAllergic,
	CategoryInfectionFever,
	CategoryGIDehydration,
	CategoryMentalHealth,
	CategoryOtherUnclear,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the ordinal clinical severity, 0 (minimal) to 3 (critical)
type Severity int

const (
	SeverityMinimal  Severity = 0
	SeverityMild     Severity = 1
	SeverityModerate Severity = 2
	SeverityCritical Severity = 3
)

// String returns the label used by dashboards
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityModerate:
		return "moderate"
	case SeverityMild:
		return "mild"
	default:
		return "minimal"
	}
}

// IncidentSignal is the raw caller signal fed into triage
type IncidentSignal struct {
	Symptoms         []string `json:"symptoms"`
	FreeText         string   `json:"free_text"`
	DurationMinutes  int      `json:"duration_minutes"`
	VoiceStressScore float64  `json:"voice_stress_score"`
}

// TriageResult is the outcome of classifying an IncidentSignal
type TriageResult struct {
	SeverityLevel Severity `json:"severity_level"`
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`
	Score         float64  `json:"score"`
	RedFlags      []string `json:"red_flags,omitempty"`
}

// IsCritical returns true if the incident was triaged at maximum severity
func (t TriageResult) IsCritical() bool {
	return t.SeverityLevel == SeverityCritical
}

// Location represents geolocation information
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultOpsLocation is used when a request carries no patient coordinates
var DefaultOpsLocation = Location{Latitude: 24.7136, Longitude: 46.6753}

// StressLevel buckets a voice stress score into LOW, MEDIUM or HIGH
func StressLevel(score float64) string {
	if score >= 0.8 {
		return "HIGH"
	}
	if score >= 0.5 {
		return "MEDIUM"
	}
	return "LOW"
}
