// Package assign selects the field medic for an aerial deployment.
package assign

import (
	"fmt"
	"math"
	"time"

	"sahm/internal/geo"
	"sahm/internal/models"
	"sahm/internal/rules"
)

// RosterSource provides the candidate medics for one assignment request
type RosterSource interface {
	Roster(seed int64, loc models.Location) []models.Medic
}

// Engine scores and selects medics
type Engine struct {
	tables *rules.Tables
	roster RosterSource
}

// NewEngine creates an assignment engine drawing candidates from roster
func NewEngine(tables *rules.Tables, roster RosterSource) *Engine {
	return &Engine{
		tables: tables,
		roster: roster,
	}
}

// candidate is a scored eligible medic
type candidate struct {
	medic      models.Medic
	score      float64
	breakdown  models.MatchBreakdown
	distanceKm float64
}

// Assign selects the best medic for the decision. A ground-only decision
// short-circuits without generating a fleet; no eligible medic is reported as
// no_match rather than an error. A nil loc uses the default operations location.
func (e *Engine) Assign(mode models.ResponseMode, triage models.TriageResult, loc *models.Location, seed int64) models.AssignmentResult {
	patient := models.DefaultOpsLocation
	if loc != nil {
		patient = *loc
	}

	if !mode.RequiresAerial() {
		return models.AssignmentResult{
			Status:          models.AssignmentNotRequired,
			Mode:            mode.MatcherMode(),
			PatientLocation: patient,
			Reasoning:       "Ground ambulance only - aerial medic deployment not required; no drone assignment evaluated.",
		}
	}

	start := time.Now()
	medics := e.roster.Roster(seed, patient)

	var best *candidate
	eligible := 0
	for _, m := range medics {
		if !e.eligible(m) {
			continue
		}
		eligible++
		c := e.score(m, triage.Category, patient)
		if best == nil || better(c, *best) {
			best = &c
		}
	}
	elapsed := time.Since(start).Seconds()

	if best == nil {
		return models.AssignmentResult{
			Status:           models.AssignmentNoMatch,
			Mode:             mode.MatcherMode(),
			PatientLocation:  patient,
			AllMedics:        medics,
			Reasoning:        fmt.Sprintf("No eligible medic: all %d medics in the fleet are busy or at capacity.", len(medics)),
			MatchTimeSeconds: elapsed,
		}
	}

	medic := best.medic
	return models.AssignmentResult{
		Status:           models.AssignmentSuccess,
		Mode:             mode.MatcherMode(),
		AssignedMedic:    &medic,
		MatchScore:       best.score,
		MatchBreakdown:   best.breakdown,
		ETAMinutes:       e.etaMinutes(best.distanceKm),
		DistanceKm:       best.distanceKm,
		PatientLocation:  patient,
		AllMedics:        medics,
		Reasoning:        e.reasoning(best, triage, eligible, len(medics)),
		MatchTimeSeconds: elapsed,
	}
}

// eligible reports whether a medic can accept a new mission
func (e *Engine) eligible(m models.Medic) bool {
	return m.Status != models.StatusBusy && m.CurrentLoad < e.tables.Assignment.MaxLoad
}

func (e *Engine) score(m models.Medic, category models.Category, patient models.Location) candidate {
	a := e.tables.Assignment
	km := geo.DistanceKm(m.GPSLocation, patient)

	b := models.MatchBreakdown{
		DistanceScore:  math.Exp(-km / a.DistanceDecayKm),
		SpecialtyScore: e.specialtyScore(m.Specialty, category),
		WorkloadScore:  1 / (1 + float64(max(m.CurrentLoad, 0))),
		RatingScore:    clamp01(m.Rating / 5.0),
	}
	w := a.Weights
	total := w.Distance*b.DistanceScore +
		w.Specialty*b.SpecialtyScore +
		w.Workload*b.WorkloadScore +
		w.Rating*b.RatingScore

	return candidate{medic: m, score: total, breakdown: b, distanceKm: km}
}

func (e *Engine) specialtyScore(s models.Specialty, category models.Category) float64 {
	a := e.tables.Assignment
	rule, ok := a.SpecialtyMap[category]
	if !ok {
		rule = a.SpecialtyMap[models.CategoryOtherUnclear]
	}
	if s == rule.Primary {
		return a.SpecialtyScores.Exact
	}
	for _, r := range rule.Related {
		if s == r {
			return a.SpecialtyScores.Related
		}
	}
	return a.SpecialtyScores.Baseline
}

func (e *Engine) etaMinutes(km float64) float64 {
	return math.Round(km/e.tables.Assignment.CruiseSpeedKmh*60*10) / 10
}

func (e *Engine) reasoning(best *candidate, triage models.TriageResult, eligible, total int) string {
	return fmt.Sprintf(
		"Selected %s (%s, %s) for %s incident: %.1f km away, ETA %.1f min, load %d, rating %.1f. Match score %.2f; %d of %d medics eligible.",
		best.medic.Name, best.medic.ID, best.medic.Specialty, triage.Category,
		best.distanceKm, e.etaMinutes(best.distanceKm), best.medic.CurrentLoad, best.medic.Rating,
		best.score, eligible, total,
	)
}

// better orders candidates: higher score, then higher rating, then smaller id
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.medic.Rating != b.medic.Rating {
		return a.medic.Rating > b.medic.Rating
	}
	return a.medic.ID < b.medic.ID
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
