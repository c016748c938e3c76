package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahm/internal/models"
)

func TestDefault_IsValid(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, tables.Assignment.Weights.Sum(), 1e-9)
	assert.True(t, tables.IsRedFlag("chest_pain_crushing"))
	assert.False(t, tables.IsRedFlag("headache"))
	assert.Len(t, tables.Triage.Categories, len(models.Categories))

	for i, c := range tables.Triage.Categories {
		assert.Equal(t, models.Categories[i], c.Name, "category priority order")
	}
}

func TestParse_RejectsCorruptTables(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr error
	}{
		{
			name:    "weights do not sum to one",
			mutate:  func(s string) string { return strings.Replace(s, "distance: 0.55", "distance: 0.65", 1) },
			wantErr: ErrInvalidWeights,
		},
		{
			name: "distance not the largest weight",
			mutate: func(s string) string {
				s = strings.Replace(s, "distance: 0.55", "distance: 0.30", 1)
				return strings.Replace(s, "specialty: 0.20", "specialty: 0.45", 1)
			},
			wantErr: ErrInvalidWeights,
		},
		{
			name:    "thresholds not ascending",
			mutate:  func(s string) string { return strings.Replace(s, "[4, 7, 10]", "[4, 12, 10]", 1) },
			wantErr: ErrInvalidThresholds,
		},
		{
			name: "red flag without points",
			mutate: func(s string) string {
				return strings.Replace(s, "    - suicidal_ideation\n", "    - suicidal_ideation\n    - bogus_token\n", 1)
			},
			wantErr: ErrUnknownSymptom,
		},
		{
			name:    "unknown category",
			mutate:  func(s string) string { return strings.Replace(s, "- name: other_unclear", "- name: dental", 1) },
			wantErr: ErrUnknownCategory,
		},
		{
			name:    "specialty score above one",
			mutate:  func(s string) string { return strings.Replace(s, "exact: 1.0", "exact: 1.5", 1) },
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "negative baseline specialty score",
			mutate:  func(s string) string { return strings.Replace(s, "baseline: 0.2", "baseline: -0.1", 1) },
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "confidence floor above one",
			mutate:  func(s string) string { return strings.Replace(s, "floor: 0.3", "floor: 3", 1) },
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "gate confidence above one",
			mutate:  func(s string) string { return strings.Replace(s, "confidence: 0.95", "confidence: 95", 1) },
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "empty fleet",
			mutate:  func(s string) string { return strings.Replace(s, "size: 12", "size: 0", 1) },
			wantErr: ErrInvalidFleet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.mutate(string(defaultRules))
			require.NotEqual(t, string(defaultRules), doc, "mutation did not apply")

			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("triage: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := strings.Replace(string(defaultRules), "weather_safety_pct: 60", "weather_safety_pct: 45", 1)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tables, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45.0, tables.Dispatch.WeatherSafetyPct)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
