package models

import "time"

// IncidentRequest is one end-to-end dispatch evaluation: caller signal,
// environment and optional location. A nil HarmThresholdMin is derived from
// the triage result; a nil Seed is derived from the triage inputs.
type IncidentRequest struct {
	IncidentSignal
	WeatherRiskPct   float64   `json:"weather_risk_pct"`
	HarmThresholdMin *float64  `json:"harm_threshold_min,omitempty"`
	GroundETAMin     float64   `json:"ground_eta_min"`
	AirETAMin        float64   `json:"air_eta_min"`
	Location         *Location `json:"location,omitempty"`
	Seed             *int64    `json:"seed,omitempty"`
}

// IncidentReport is the coordinated outcome of an IncidentRequest
type IncidentReport struct {
	IncidentID  string             `json:"incident_id"`
	Triage      TriageResult       `json:"triage"`
	StressLevel string             `json:"stress_level"`
	Environment EnvironmentMetrics `json:"environment"`
	Decision    DispatchDecision   `json:"decision"`
	Assignment  AssignmentResult   `json:"assignment"`
	PayloadKit  []string           `json:"payload_kit,omitempty"`
	Seed        int64              `json:"seed"`
	Summary     string             `json:"summary"`
	Timestamp   time.Time          `json:"timestamp"`
	Cached      bool               `json:"cached"`
}
