package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"sahm/internal/fleet"
	"sahm/internal/logging"
	"sahm/internal/models"
)

const (
	apiPrefix     = "/api/v1"
	maxBodyBytes  = 1024 * 1024
	maxBatchSize  = 100
	maxFleetSize  = 200
	jsonMediaType = "application/json"
)

// IncidentHandler serves the dispatch API
type IncidentHandler struct {
	coordinator *IncidentCoordinator
	generator   *fleet.Generator
	timeout     time.Duration
	logger      *slog.Logger
}

// NewIncidentHandler creates a new incident API handler
func NewIncidentHandler(coordinator *IncidentCoordinator, generator *fleet.Generator, timeout time.Duration) *IncidentHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &IncidentHandler{
		coordinator: coordinator,
		generator:   generator,
		timeout:     timeout,
		logger:      logging.New("api"),
	}
}

// AssignRequest is the body of POST /api/v1/assign
type AssignRequest struct {
	ResponseMode string `json:"response_mode"`
	Triage       struct {
		SeverityLevel int    `json:"severity_level"`
		Category      string `json:"category"`
	} `json:"triage"`
	PatientLocation *models.Location `json:"patient_location,omitempty"`
	Seed            int64            `json:"seed"`
}

// TriageResponse is the body returned by POST /api/v1/triage
type TriageResponse struct {
	models.TriageResult
	StressLevel      string  `json:"stress_level"`
	HarmThresholdMin float64 `json:"harm_threshold_min"`
}

// BatchRequest is the body of POST /api/v1/incidents/batch
type BatchRequest struct {
	Incidents []models.IncidentRequest `json:"incidents"`
}

// BatchResponse is the body returned by POST /api/v1/incidents/batch
type BatchResponse struct {
	Reports []*models.IncidentReport `json:"reports"`
}

// Router registers the API routes on a new mux router
func (h *IncidentHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	// Full paths on the root router; subrouter routes answer 404 on a method mismatch
	r.HandleFunc(apiPrefix+"/triage", h.HandleTriage).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/dispatch", h.HandleDispatch).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/assign", h.HandleAssign).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/incidents", h.HandleIncident).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/incidents/batch", h.HandleBatch).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/fleet", h.HandleFleet).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/health", h.HandleHealthCheck).Methods(http.MethodGet)

	return r
}

// HandleTriage classifies a caller signal
func (h *IncidentHandler) HandleTriage(w http.ResponseWriter, r *http.Request) {
	var signal models.IncidentSignal
	if !h.decode(w, r, &signal) {
		return
	}

	result := h.coordinator.classifier.Classify(signal)
	writeJSON(w, http.StatusOK, TriageResponse{
		TriageResult:     result,
		StressLevel:      models.StressLevel(signal.VoiceStressScore),
		HarmThresholdMin: h.coordinator.engine.HarmThreshold(result),
	})
}

// HandleDispatch evaluates the dispatch gates for caller supplied metrics
func (h *IncidentHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	var metrics models.EnvironmentMetrics
	if !h.decode(w, r, &metrics) {
		return
	}

	writeJSON(w, http.StatusOK, h.coordinator.engine.Decide(metrics))
}

// HandleAssign selects a medic for a decision and triage outcome
func (h *IncidentHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !h.decode(w, r, &req) {
		return
	}

	t := models.TriageResult{
		SeverityLevel: models.Severity(req.Triage.SeverityLevel),
		Category:      models.Category(req.Triage.Category),
	}
	mode := models.ParseResponseMode(req.ResponseMode)
	writeJSON(w, http.StatusOK, h.coordinator.matcher.Assign(mode, t, req.PatientLocation, req.Seed))
}

// HandleIncident processes one incident end to end
func (h *IncidentHandler) HandleIncident(w http.ResponseWriter, r *http.Request) {
	var req models.IncidentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.coordinator.ProcessIncident(ctx, req)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to process incident: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleBatch processes several incidents concurrently
func (h *IncidentHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Incidents) == 0 {
		writeError(w, http.StatusBadRequest, "incidents must not be empty")
		return
	}
	if len(req.Incidents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d incidents per batch", maxBatchSize))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reports, err := h.coordinator.ProcessBatch(ctx, req.Incidents)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("failed to process batch: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Reports: reports})
}

// HandleFleet returns the deterministic fleet for a seed and location
func (h *IncidentHandler) HandleFleet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loc := models.DefaultOpsLocation
	seed, err := queryInt(q.Get("seed"), 0)
	if err == nil {
		loc.Latitude, err = queryFloat(q.Get("lat"), loc.Latitude)
	}
	if err == nil {
		loc.Longitude, err = queryFloat(q.Get("lon"), loc.Longitude)
	}
	var size int64
	if err == nil {
		size, err = queryInt(q.Get("size"), 0)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if size < 0 || size > maxFleetSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be between 0 and %d", maxFleetSize))
		return
	}

	writeJSON(w, http.StatusOK, h.generator.Generate(seed, loc, int(size)))
}

// HandleHealthCheck provides a basic health check endpoint
func (h *IncidentHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// decode reads a JSON body into v, writing a 400 on failure
func (h *IncidentHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, jsonMediaType) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
		} else {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		}
		return false
	}
	return true
}

func (h *IncidentHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func queryInt(s string, fallback int64) (int64, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func queryFloat(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
