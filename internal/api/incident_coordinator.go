package api

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sahm/internal/assign"
	"sahm/internal/cache"
	"sahm/internal/dispatch"
	"sahm/internal/fleet"
	"sahm/internal/logging"
	"sahm/internal/models"
	"sahm/internal/triage"
)

// IncidentCoordinator runs an incident through triage, dispatch and assignment
type IncidentCoordinator struct {
	classifier triage.Classifier
	engine     *dispatch.RuleEngine
	matcher    *assign.Engine
	cache      cache.IncidentCache
	summary    SummaryGenerator
	config     CoordinatorConfig
	logger     *slog.Logger
}

// SummaryGenerator generates incident summaries for responders
type SummaryGenerator interface {
	GenerateSummary(report *models.IncidentReport) string
}

// CoordinatorConfig contains configuration for the incident coordinator
type CoordinatorConfig struct {
	MaxConcurrentIncidents int
	DefaultTimeout         time.Duration
}

// NewIncidentCoordinator creates a new incident coordinator. The cache and
// summary generator are optional.
func NewIncidentCoordinator(
	classifier triage.Classifier,
	engine *dispatch.RuleEngine,
	matcher *assign.Engine,
	incidentCache cache.IncidentCache,
	summary SummaryGenerator,
	config CoordinatorConfig,
) *IncidentCoordinator {
	if config.MaxConcurrentIncidents <= 0 {
		config.MaxConcurrentIncidents = 8
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	if summary == nil {
		summary = &DefaultSummaryGenerator{}
	}

	return &IncidentCoordinator{
		classifier: classifier,
		engine:     engine,
		matcher:    matcher,
		cache:      incidentCache,
		summary:    summary,
		config:     config,
		logger:     logging.New("coordinator"),
	}
}

// ProcessIncident evaluates one incident end to end. Business outcomes such as
// a ground-only decision or no eligible medic are part of the report; only a
// cancelled context yields an error.
func (c *IncidentCoordinator) ProcessIncident(ctx context.Context, req models.IncidentRequest) (*models.IncidentReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.DefaultTimeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, req)
		if err != nil {
			c.logger.Warn("incident cache lookup failed", "error", err)
		} else if cached != nil {
			cached.IncidentID = uuid.NewString()
			cached.Timestamp = time.Now().UTC()
			cached.Cached = true
			cached.Summary = c.summary.GenerateSummary(cached)
			return cached, nil
		}
	}

	result := c.classifier.Classify(req.IncidentSignal)

	harm := c.engine.HarmThreshold(result)
	if req.HarmThresholdMin != nil {
		harm = *req.HarmThresholdMin
	}
	metrics := models.EnvironmentMetrics{
		WeatherRiskPct:   req.WeatherRiskPct,
		HarmThresholdMin: harm,
		GroundETAMin:     req.GroundETAMin,
		AirETAMin:        req.AirETAMin,
	}
	decision := c.engine.Decide(metrics)

	seed := incidentSeed(req, result)
	assignment := c.matcher.Assign(decision.ResponseMode, result, req.Location, seed)

	report := &models.IncidentReport{
		IncidentID:  uuid.NewString(),
		Triage:      result,
		StressLevel: models.StressLevel(req.VoiceStressScore),
		Environment: metrics,
		Decision:    decision,
		Assignment:  assignment,
		Seed:        seed,
		Timestamp:   time.Now().UTC(),
	}
	if decision.ResponseMode.RequiresAerial() {
		report.PayloadKit = PayloadKit(result.Category)
	}
	report.Summary = c.summary.GenerateSummary(report)

	if c.cache != nil {
		if err := c.cache.Set(ctx, req, report); err != nil {
			c.logger.Warn("incident cache store failed", "error", err)
		}
	}

	level := slog.LevelInfo
	if result.IsCritical() {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "incident processed",
		"incident_id", report.IncidentID,
		"severity", int(result.SeverityLevel),
		"category", result.Category,
		"mode", decision.ResponseMode,
		"rule", decision.RuleTriggered,
		"assignment", assignment.Status,
	)
	return report, nil
}

// ProcessBatch evaluates incidents concurrently and returns reports in input order
func (c *IncidentCoordinator) ProcessBatch(ctx context.Context, reqs []models.IncidentRequest) ([]*models.IncidentReport, error) {
	reports := make([]*models.IncidentReport, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxConcurrentIncidents)
	for i, req := range reqs {
		g.Go(func() error {
			report, err := c.ProcessIncident(gctx, req)
			if err != nil {
				return fmt.Errorf("incident %d: %w", i, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// incidentSeed returns the caller's seed or one derived from the triage inputs,
// so repeated submissions of the same incident see the same fleet.
func incidentSeed(req models.IncidentRequest, result models.TriageResult) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	symptoms := slices.Clone(req.Symptoms)
	for i := range symptoms {
		symptoms[i] = strings.ToLower(strings.TrimSpace(symptoms[i]))
	}
	slices.Sort(symptoms)
	symptoms = slices.Compact(symptoms)
	return fleet.StableSeed(result.Category, int(result.SeverityLevel), req.DurationMinutes, strings.Join(symptoms, ","))
}
