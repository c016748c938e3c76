package models

import "strings"

// Specialty is a field medic's clinical specialty
type Specialty string

const (
	SpecialtyGeneral     Specialty = "general"
	SpecialtyEmergency   Specialty = "emergency"
	SpecialtyCardiac     Specialty = "cardiac"
	SpecialtyTrauma      Specialty = "trauma"
	SpecialtyRespiratory Specialty = "respiratory"
	SpecialtyNeurology   Specialty = "neurology"
	SpecialtyPediatric   Specialty = "pediatric"
)

// CertificationLevel is ordered: a higher value is a higher certification
type CertificationLevel int

const (
	CertEMTBasic CertificationLevel = iota
	CertParamedic
	CertCriticalCare
	CertFlightPhysician
)

var certNames = []string{"emt_basic", "paramedic", "critical_care", "flight_physician"}

func (c CertificationLevel) String() string {
	if c < 0 || int(c) >= len(certNames) {
		return "unknown"
	}
	return certNames[c]
}

// MarshalText renders the certification by name
func (c CertificationLevel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a certification name; unknown names map to emt_basic
func (c *CertificationLevel) UnmarshalText(text []byte) error {
	*c = ParseCertification(string(text))
	return nil
}

// ParseCertification maps a certification name to its level
func ParseCertification(s string) CertificationLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range certNames {
		if s == name {
			return CertificationLevel(i)
		}
	}
	return CertEMTBasic
}

// MedicStatus is a medic's current availability
type MedicStatus string

const (
	StatusAvailable MedicStatus = "Available"
	StatusEnRoute   MedicStatus = "En Route"
	StatusBusy      MedicStatus = "Busy"
)

// ParseMedicStatus accepts "available", "en_route", "En Route", "busy" etc.
// Unknown values are treated as Busy so that they never receive a mission.
func ParseMedicStatus(s string) MedicStatus {
	norm := strings.ToLower(strings.NewReplacer("_", "", " ", "", "-", "").Replace(s))
	switch norm {
	case "available":
		return StatusAvailable
	case "enroute":
		return StatusEnRoute
	default:
		return StatusBusy
	}
}

// UnmarshalText normalizes statuses from external rosters
func (s *MedicStatus) UnmarshalText(text []byte) error {
	*s = ParseMedicStatus(string(text))
	return nil
}

// Medic is one member of a field roster
type Medic struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Specialty          Specialty          `json:"specialty"`
	CertificationLevel CertificationLevel `json:"certification_level"`
	GPSLocation        Location           `json:"gps_location"`
	Status             MedicStatus        `json:"status"`
	CurrentLoad        int                `json:"current_load"`
	MissionsCompleted  int                `json:"missions_completed"`
	Rating             float64            `json:"rating"`
	Languages          []string           `json:"languages"`
}

// AssignmentStatus reports the outcome of a medic assignment
type AssignmentStatus string

const (
	AssignmentSuccess     AssignmentStatus = "success"
	AssignmentNotRequired AssignmentStatus = "not_required"
	AssignmentNoMatch     AssignmentStatus = "no_match"
)

// MatchBreakdown holds the normalized sub-scores of a match
type MatchBreakdown struct {
	DistanceScore  float64 `json:"distance_score"`
	SpecialtyScore float64 `json:"specialty_score"`
	WorkloadScore  float64 `json:"workload_score"`
	RatingScore    float64 `json:"rating_score"`
}

// AssignmentResult is the outcome of one assignment request
type AssignmentResult struct {
	Status           AssignmentStatus `json:"status"`
	Mode             string           `json:"mode"`
	AssignedMedic    *Medic           `json:"assigned_medic"`
	MatchScore       float64          `json:"match_score"`
	MatchBreakdown   MatchBreakdown   `json:"match_breakdown"`
	ETAMinutes       float64          `json:"eta_minutes"`
	DistanceKm       float64          `json:"distance_km"`
	PatientLocation  Location         `json:"patient_location"`
	AllMedics        []Medic          `json:"all_medics"`
	Reasoning        string           `json:"reasoning"`
	MatchTimeSeconds float64          `json:"match_time_seconds"`
}
