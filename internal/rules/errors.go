package rules

import "errors"

// Errors returned when decision tables fail validation. A table that fails
// validation is unusable; callers should abort startup.
var (
	// ErrInvalidWeights is returned when assignment weights do not sum to 1.0
	// or distance is not the largest weight
	ErrInvalidWeights = errors.New("invalid assignment weights")

	// ErrInvalidThresholds is returned when severity thresholds are not ascending
	// or a dispatch threshold, confidence or specialty score is out of range
	ErrInvalidThresholds = errors.New("invalid thresholds")

	// ErrUnknownCategory is returned when a table references a category that does not exist
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownSymptom is returned when a red flag or category symptom has no point value
	ErrUnknownSymptom = errors.New("unknown symptom token")

	// ErrMissingSpecialty is returned when a category has no specialty mapping
	ErrMissingSpecialty = errors.New("missing specialty mapping")

	// ErrInvalidFleet is returned when fleet generation parameters are unusable
	ErrInvalidFleet = errors.New("invalid fleet parameters")
)
