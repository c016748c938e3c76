package api

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahm/internal/assign"
	"sahm/internal/cache"
	"sahm/internal/dispatch"
	"sahm/internal/fleet"
	"sahm/internal/logging"
	"sahm/internal/models"
	"sahm/internal/rules"
	"sahm/internal/triage"
)

func newCoordinator(t *testing.T, c cache.IncidentCache) *IncidentCoordinator {
	t.Helper()
	tables := rules.MustDefault()
	return NewIncidentCoordinator(
		triage.NewScoringClassifier(tables),
		dispatch.NewRuleEngine(tables),
		assign.NewEngine(tables, fleet.NewGenerator(tables)),
		c,
		nil,
		CoordinatorConfig{MaxConcurrentIncidents: 2},
	)
}

func ptr[T any](v T) *T { return &v }

func criticalCardiacRequest() models.IncidentRequest {
	return models.IncidentRequest{
		IncidentSignal: models.IncidentSignal{
			Symptoms:         []string{"chest_pain_crushing", "shortness_of_breath"},
			FreeText:         "Crushing chest pain, can't breathe",
			DurationMinutes:  8,
			VoiceStressScore: 0.9,
		},
		WeatherRiskPct:   10,
		HarmThresholdMin: ptr(4.0),
		GroundETAMin:     22,
		AirETAMin:        3.6,
	}
}

func mildHeadacheRequest() models.IncidentRequest {
	return models.IncidentRequest{
		IncidentSignal: models.IncidentSignal{
			Symptoms:         []string{"headache", "mild_pain"},
			DurationMinutes:  90,
			VoiceStressScore: 0.2,
		},
		WeatherRiskPct:   80,
		HarmThresholdMin: ptr(20.0),
		GroundETAMin:     18,
		AirETAMin:        3.6,
	}
}

// memoryCache is an in-process IncidentCache
type memoryCache struct {
	mu      sync.Mutex
	reports map[string]models.IncidentReport
}

func (m *memoryCache) Get(_ context.Context, req models.IncidentRequest) (*models.IncidentReport, error) {
	key, err := cache.Key(req)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memoryCache) Set(_ context.Context, req models.IncidentRequest, report *models.IncidentReport) error {
	key, err := cache.Key(req)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reports == nil {
		m.reports = map[string]models.IncidentReport{}
	}
	m.reports[key] = *report
	return nil
}

func TestProcessIncident_CriticalCardiac(t *testing.T) {
	c := newCoordinator(t, nil)

	report, err := c.ProcessIncident(context.Background(), criticalCardiacRequest())
	require.NoError(t, err)

	assert.Equal(t, models.SeverityCritical, report.Triage.SeverityLevel)
	assert.Equal(t, models.CategoryCardiac, report.Triage.Category)
	assert.Contains(t, []models.ResponseMode{models.ModeDoctorDrone, models.ModeBoth}, report.Decision.ResponseMode)
	assert.Equal(t, "HARM_THRESHOLD_GATE", report.Decision.RuleTriggered)
	assert.Equal(t, 4.0, report.Environment.HarmThresholdMin)

	assert.Equal(t, models.AssignmentSuccess, report.Assignment.Status)
	require.NotNil(t, report.Assignment.AssignedMedic)
	assert.Equal(t, models.DefaultOpsLocation, report.Assignment.PatientLocation)

	assert.Contains(t, report.PayloadKit, "AED")
	assert.Equal(t, "HIGH", report.StressLevel)
	assert.NotEmpty(t, report.IncidentID)
	assert.Contains(t, report.Summary, "CRITICAL")
	assert.Contains(t, report.Summary, report.Assignment.AssignedMedic.ID)
	assert.False(t, report.Cached)
}

func TestProcessIncident_MildHeadacheGroundOnly(t *testing.T) {
	c := newCoordinator(t, nil)

	report, err := c.ProcessIncident(context.Background(), mildHeadacheRequest())
	require.NoError(t, err)

	assert.LessOrEqual(t, int(report.Triage.SeverityLevel), 1)
	assert.Equal(t, models.ModeAmbulance, report.Decision.ResponseMode)
	assert.Equal(t, models.AssignmentNotRequired, report.Assignment.Status)
	assert.Nil(t, report.Assignment.AssignedMedic)
	assert.Contains(t, report.Assignment.Reasoning, "Ground ambulance only")
	assert.Empty(t, report.PayloadKit)
	assert.Equal(t, "LOW", report.StressLevel)
}

func TestProcessIncident_DerivesHarmThresholdAndSeed(t *testing.T) {
	c := newCoordinator(t, nil)
	req := criticalCardiacRequest()
	req.HarmThresholdMin = nil

	first, err := c.ProcessIncident(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 5.0, first.Environment.HarmThresholdMin)

	// symptom order and case do not change the derived seed
	req.Symptoms = []string{"Shortness_Of_Breath", "chest_pain_crushing", "chest_pain_crushing"}
	second, err := c.ProcessIncident(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Seed, second.Seed)
	assert.Equal(t, first.Assignment.AssignedMedic.ID, second.Assignment.AssignedMedic.ID)
	assert.NotEqual(t, first.IncidentID, second.IncidentID)

	req.Seed = ptr(int64(11))
	third, err := c.ProcessIncident(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(11), third.Seed)
}

func TestProcessIncident_CacheHit(t *testing.T) {
	mem := &memoryCache{}
	c := newCoordinator(t, mem)

	first, err := c.ProcessIncident(context.Background(), criticalCardiacRequest())
	require.NoError(t, err)
	second, err := c.ProcessIncident(context.Background(), criticalCardiacRequest())
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.IncidentID, second.IncidentID)
	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Assignment.AssignedMedic.ID, second.Assignment.AssignedMedic.ID)
}

func TestProcessIncident_CacheHitRefreshesSummary(t *testing.T) {
	mem := &memoryCache{}
	req := criticalCardiacRequest()
	stale := models.IncidentReport{
		IncidentID: "stale-id",
		Summary:    "stale summary",
		Timestamp:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, mem.Set(context.Background(), req, &stale))
	c := newCoordinator(t, mem)

	got, err := c.ProcessIncident(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, got.Cached)
	assert.NotEqual(t, "stale-id", got.IncidentID)
	assert.NotEqual(t, "stale summary", got.Summary)
	assert.Contains(t, got.Summary, "Incident: "+got.IncidentID)
	assert.Contains(t, got.Summary, got.Timestamp.Format(time.RFC3339))
	assert.NotContains(t, got.Summary, "2020-01-01")
}

func TestProcessIncident_LogsCriticalAtWarn(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logging.Init(slog.LevelInfo, "text", &buf)
	c := newCoordinator(t, nil)

	_, err := c.ProcessIncident(context.Background(), criticalCardiacRequest())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN msg=\"incident processed\"")

	buf.Reset()
	_, err = c.ProcessIncident(context.Background(), mildHeadacheRequest())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=INFO msg=\"incident processed\"")
}

func TestProcessIncident_UnreachableCacheFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := newCoordinator(t, cache.NewIncidentCache(client, time.Minute))

	report, err := c.ProcessIncident(context.Background(), criticalCardiacRequest())
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, models.AssignmentSuccess, report.Assignment.Status)
}

func TestProcessIncident_CancelledContext(t *testing.T) {
	c := newCoordinator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ProcessIncident(ctx, criticalCardiacRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessBatch_PreservesOrder(t *testing.T) {
	c := newCoordinator(t, nil)
	reqs := []models.IncidentRequest{
		criticalCardiacRequest(),
		mildHeadacheRequest(),
		criticalCardiacRequest(),
		mildHeadacheRequest(),
		{AirETAMin: 5, GroundETAMin: 30, WeatherRiskPct: 20, HarmThresholdMin: ptr(60.0)},
	}

	reports, err := c.ProcessBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, reports, len(reqs))

	want := []models.ResponseMode{models.ModeBoth, models.ModeAmbulance, models.ModeBoth, models.ModeAmbulance, models.ModeDoctorDrone}
	for i, r := range reports {
		assert.Equal(t, want[i], r.Decision.ResponseMode, "report %d", i)
	}
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	c := newCoordinator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := c.ProcessBatch(ctx, []models.IncidentRequest{criticalCardiacRequest()})
	assert.Error(t, err)
	assert.Nil(t, reports)
}

func TestPayloadKit(t *testing.T) {
	assert.Contains(t, PayloadKit(models.CategoryCardiac), "AED")
	assert.Contains(t, PayloadKit(models.CategoryAllergic), "EpiPen")
	assert.Equal(t, generalKit, PayloadKit(models.CategoryMentalHealth))

	kit := PayloadKit(models.CategoryNeuro)
	kit[0] = "changed"
	assert.Equal(t, "Stroke Assessment Kit", PayloadKit(models.CategoryNeuro)[0])
}
