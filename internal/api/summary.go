package api

import (
	"fmt"
	"strings"
	"time"

	"sahm/internal/models"
)

// DefaultSummaryGenerator renders a plain-text responder briefing
type DefaultSummaryGenerator struct{}

// GenerateSummary generates a human-readable summary of the incident
func (g *DefaultSummaryGenerator) GenerateSummary(report *models.IncidentReport) string {
	var b strings.Builder

	t := report.Triage
	fmt.Fprintf(&b, "INCIDENT ALERT: %s - severity %d (%s)\n", getPriorityText(t.SeverityLevel), int(t.SeverityLevel), t.SeverityLevel)
	fmt.Fprintf(&b, "Incident: %s\n", report.IncidentID)
	fmt.Fprintf(&b, "Category: %s (confidence %.0f%%), caller stress %s\n", t.Category, t.Confidence*100, report.StressLevel)
	if len(t.RedFlags) > 0 {
		fmt.Fprintf(&b, "Red flags: %s\n", strings.Join(t.RedFlags, ", "))
	}

	d := report.Decision
	fmt.Fprintf(&b, "\nDISPATCH: %s via %s (confidence %.2f)\n", d.ResponseMode, d.RuleTriggered, d.Confidence)
	fmt.Fprintf(&b, "Ground ETA %.1f min, air ETA %.1f min, harm threshold %.1f min\n",
		d.GroundETAMin, d.AirETAMin, report.Environment.HarmThresholdMin)

	a := report.Assignment
	if a.AssignedMedic != nil {
		fmt.Fprintf(&b, "\nMEDIC: %s (%s), %s, ETA %.1f min over %.1f km\n",
			a.AssignedMedic.Name, a.AssignedMedic.ID, a.AssignedMedic.Specialty, a.ETAMinutes, a.DistanceKm)
	} else {
		fmt.Fprintf(&b, "\nMEDIC: %s\n", a.Reasoning)
	}
	if len(report.PayloadKit) > 0 {
		fmt.Fprintf(&b, "Drone payload: %s\n", strings.Join(report.PayloadKit, ", "))
	}

	fmt.Fprintf(&b, "\nLocation: Lat %.6f, Long %.6f\n", a.PatientLocation.Latitude, a.PatientLocation.Longitude)
	fmt.Fprintf(&b, "Alert generated at: %s\n", report.Timestamp.Format(time.RFC3339))

	return b.String()
}

// getPriorityText returns a descriptive text for the severity level
func getPriorityText(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "CRITICAL - IMMEDIATE RESPONSE REQUIRED"
	case models.SeverityModerate:
		return "URGENT - PROMPT RESPONSE REQUIRED"
	case models.SeverityMild:
		return "NON-URGENT - STANDARD RESPONSE"
	default:
		return "MINIMAL - ADVICE OR ROUTINE RESPONSE"
	}
}
