// Package dispatch decides the response mode for an incident from its
// environmental metrics. Gates are evaluated in a fixed order (weather safety,
// harm urgency, efficiency, default) and the first match wins.
package dispatch

import (
	"fmt"
	"math"
	"strings"

	"sahm/internal/models"
	"sahm/internal/rules"
)

// RuleEngine evaluates the ordered dispatch gates
type RuleEngine struct {
	tables *rules.Tables
}

// NewRuleEngine creates a rule engine over the given decision tables
func NewRuleEngine(tables *rules.Tables) *RuleEngine {
	return &RuleEngine{tables: tables}
}

// Decide returns the dispatch decision for the given metrics. Inputs are used
// as-is; range enforcement belongs to the caller.
func (e *RuleEngine) Decide(m models.EnvironmentMetrics) models.DispatchDecision {
	d := e.tables.Dispatch
	delta := m.GroundETAMin - m.AirETAMin

	decision := models.DispatchDecision{
		GroundETAMin: m.GroundETAMin,
		AirETAMin:    m.AirETAMin,
		TimeDeltaMin: delta,
	}

	switch {
	case m.WeatherRiskPct > d.WeatherSafetyPct:
		decision.ResponseMode = models.ModeAmbulance
		decision.ExceedsWeather = true
		decision.RuleTriggered = d.Gates.Weather.Rule
		decision.Confidence = d.Gates.Weather.Confidence
		decision.Reasons = []string{
			fmt.Sprintf("Weather risk %.0f%% exceeds safety threshold (%.0f%%) - drone flight unsafe", m.WeatherRiskPct, d.WeatherSafetyPct),
			"Aerial unit grounded; dispatching ground ambulance regardless of harm urgency",
		}

	case m.GroundETAMin > m.HarmThresholdMin:
		decision.ResponseMode = models.ModeBoth
		decision.ExceedsHarm = true
		decision.RuleTriggered = d.Gates.Harm.Rule
		decision.Confidence = d.Gates.Harm.Confidence
		decision.Reasons = []string{
			fmt.Sprintf("CRITICAL: Ground ETA %.1f min exceeds harm threshold of %.1f min", m.GroundETAMin, m.HarmThresholdMin),
			"Dispatching drone for immediate aid; ambulance follows for transport",
			fmt.Sprintf("Drone arrival: %.1f min", m.AirETAMin),
		}

	case delta > d.EfficiencyMin:
		decision.ResponseMode = models.ModeDoctorDrone
		decision.ExceedsEfficiency = true
		decision.RuleTriggered = d.Gates.Efficiency.Rule
		decision.Confidence = d.Gates.Efficiency.Confidence
		decision.Reasons = []string{
			fmt.Sprintf("Drone saves %.1f min over ground (efficiency threshold %.0f min)", delta, d.EfficiencyMin),
			fmt.Sprintf("Weather risk acceptable (%.0f%% <= %.0f%%)", m.WeatherRiskPct, d.WeatherSafetyPct),
			fmt.Sprintf("Ground ETA %.1f min is within harm threshold of %.1f min", m.GroundETAMin, m.HarmThresholdMin),
		}

	default:
		decision.ResponseMode = models.ModeAmbulance
		decision.RuleTriggered = d.Gates.Default.Rule
		decision.Confidence = d.Gates.Default.Confidence
		decision.Reasons = []string{
			fmt.Sprintf("Ground ETA %.1f min is within harm threshold of %.1f min", m.GroundETAMin, m.HarmThresholdMin),
			fmt.Sprintf("Weather risk acceptable (%.0f%% <= %.0f%%)", m.WeatherRiskPct, d.WeatherSafetyPct),
			fmt.Sprintf("Time saved by drone (%.1f min) is below efficiency threshold of %.0f min", delta, d.EfficiencyMin),
			"Ground ambulance is safe and sufficient",
		}
	}

	return decision
}

// HarmThreshold derives the minutes until irreversible harm from a triage outcome.
// Severity 3 and 2 cap the category value.
func (e *RuleEngine) HarmThreshold(t models.TriageResult) float64 {
	d := e.tables.Dispatch
	harm, ok := d.HarmMinutes[t.Category]
	if !ok {
		harm = d.DefaultHarmMin
	}
	if limit, ok := d.SeverityHarmCaps[int(t.SeverityLevel)]; ok {
		harm = math.Min(harm, limit)
	}
	return harm
}

// Tone is the presentation tone of a reason line
type Tone string

const (
	ToneError   Tone = "error"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
)

// ReasonTone classifies a reason line for renderers. Known message patterns
// win; otherwise the decision's exceed flags decide.
func ReasonTone(reason string, decision models.DispatchDecision) Tone {
	text := strings.ToLower(strings.TrimSpace(reason))

	switch {
	case strings.HasPrefix(text, "critical:") || strings.Contains(text, "exceeds harm threshold"):
		return ToneError
	case strings.Contains(text, "unsafe") || strings.Contains(text, "exceeds safety threshold"):
		return ToneWarning
	case strings.HasPrefix(text, "drone saves"),
		strings.HasPrefix(text, "drone arrival:"),
		strings.Contains(text, "dispatching drone for immediate aid"):
		return ToneSuccess
	case strings.Contains(text, "ground ambulance is safe and sufficient"),
		strings.Contains(text, "weather risk acceptable"),
		strings.Contains(text, "within harm threshold"),
		strings.Contains(text, "below efficiency threshold"):
		return ToneInfo
	}

	switch {
	case decision.ExceedsHarm:
		return ToneError
	case decision.ExceedsWeather:
		return ToneWarning
	case decision.ExceedsEfficiency:
		return ToneSuccess
	default:
		return ToneInfo
	}
}
