package triage

import (
	"sahm/internal/models"
)

// Classifier defines the interface for incident triage
type Classifier interface {
	// Classify turns raw incident signals into a severity, category and confidence.
	// It never fails: unknown input degrades to other_unclear / severity 0.
	Classify(signal models.IncidentSignal) models.TriageResult
}
