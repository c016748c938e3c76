package models

import "strings"

// ResponseMode is the dispatch outcome
type ResponseMode string

const (
	// ModeAmbulance dispatches a ground ambulance only
	ModeAmbulance ResponseMode = "AMBULANCE"

	// ModeDoctorDrone dispatches the aerial medical unit only
	ModeDoctorDrone ResponseMode = "DOCTOR_DRONE"

	// ModeBoth dispatches drone and ambulance simultaneously
	ModeBoth ResponseMode = "BOTH"
)

// ParseResponseMode accepts both the dispatch vocabulary (AMBULANCE, DOCTOR_DRONE, BOTH)
// and the matcher vocabulary (ground_only, aerial_only, combined). Anything else is
// treated as ground only.
func ParseResponseMode(s string) ResponseMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "doctor_drone", "aerial_only", "drone":
		return ModeDoctorDrone
	case "both", "combined":
		return ModeBoth
	default:
		return ModeAmbulance
	}
}

// RequiresAerial reports whether the mode puts a drone in the air
func (m ResponseMode) RequiresAerial() bool {
	return m == ModeDoctorDrone || m == ModeBoth
}

// MatcherMode returns the matcher vocabulary for the mode
func (m ResponseMode) MatcherMode() string {
	switch m {
	case ModeDoctorDrone:
		return "aerial_only"
	case ModeBoth:
		return "combined"
	default:
		return "ground_only"
	}
}

// EnvironmentMetrics holds the environmental inputs of the dispatch rule engine
type EnvironmentMetrics struct {
	WeatherRiskPct   float64 `json:"weather_risk_pct"`
	HarmThresholdMin float64 `json:"harm_threshold_min"`
	GroundETAMin     float64 `json:"ground_eta_min"`
	AirETAMin        float64 `json:"air_eta_min"`
}

// DispatchDecision is the auditable output of one rule engine evaluation
type DispatchDecision struct {
	ResponseMode      ResponseMode `json:"response_mode"`
	Confidence        float64      `json:"confidence"`
	RuleTriggered     string       `json:"rule_triggered"`
	Reasons           []string     `json:"reasons"`
	ExceedsHarm       bool         `json:"exceeds_harm"`
	ExceedsWeather    bool         `json:"exceeds_weather"`
	ExceedsEfficiency bool         `json:"exceeds_efficiency"`
	GroundETAMin      float64      `json:"ground_eta_min"`
	AirETAMin         float64      `json:"air_eta_min"`
	TimeDeltaMin      float64      `json:"time_delta_min"`
}
