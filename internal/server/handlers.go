package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/plannetic/ifaengine/internal/config"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/plannetic/ifaengine/internal/stress"
)

const maxBodyBytes = 1 << 20

// MonteCarloRequest runs either a full scenario or a bare parameter set.
// With a scenario, the remaining fields override the derived parameters.
type MonteCarloRequest struct {
	Scenario   *config.ScenarioDocument     `json:"scenario,omitempty"`
	Parameters *domain.SimulationParameters `json:"parameters,omitempty"`

	SimulationCount int      `json:"simulationCount,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
	RiskScore       int      `json:"riskScore,omitempty"`
	Volatility      *float64 `json:"volatility,omitempty"`
}

// StressRequest runs catalog shocks against a scenario. An empty
// Scenarios list selects the whole catalog.
type StressRequest struct {
	Scenario          config.ScenarioDocument `json:"scenario"`
	Scenarios         []string                `json:"scenarios,omitempty"`
	Parameters        stress.Overrides        `json:"parameters,omitempty"`
	Severity          domain.Severity         `json:"severity,omitempty"`
	Trials            int                     `json:"trials,omitempty"`
	Seed              *int64                  `json:"seed,omitempty"`
	IncludeProjection bool                    `json:"includeProjection,omitempty"`
}

type errorResponse struct {
	Error      string                   `json:"error"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"history": s.store != nil,
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var params domain.SimulationParameters
	if !s.decode(w, r, &params) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.validator.Validate(params))
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var doc config.ScenarioDocument
	if !s.decode(w, r, &doc) {
		return
	}
	loaded, err := doc.ToScenario()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	plan, err := projection.PlanFromScenario(loaded.Scenario)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	res := s.projector.ProjectPlan(plan, nil)

	s.writeJSON(w, http.StatusOK, output.ProjectionReport{
		ScenarioID: loaded.Scenario.ID,
		Name:       loaded.Scenario.Name,
		Defaulted:  loaded.Defaulted,
		Summary:    projection.Summarize(plan, res),
		Rows:       res.Rows,
	})
}

func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req MonteCarloRequest
	if !s.decode(w, r, &req) {
		return
	}

	var (
		scenario *domain.Scenario
		params   domain.SimulationParameters
	)
	switch {
	case req.Scenario != nil:
		loaded, err := req.Scenario.ToScenario()
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		scenario = &loaded.Scenario
		params = domain.SimulationParameters{SimulationCount: s.defaultSims, RiskScore: loaded.Scenario.RiskScore}
	case req.Parameters != nil:
		params = *req.Parameters
		if params.SimulationCount == 0 {
			params.SimulationCount = s.defaultSims
		}
	default:
		s.writeError(w, http.StatusBadRequest, "either scenario or parameters is required")
		return
	}
	if req.SimulationCount != 0 {
		params.SimulationCount = req.SimulationCount
	}
	if req.Seed != nil {
		params.Seed = req.Seed
	}
	if req.RiskScore != 0 {
		params.RiskScore = req.RiskScore
	}
	if req.Volatility != nil {
		params.Volatility = req.Volatility
	}

	var check domain.ValidationResult
	if scenario != nil {
		check = s.validator.ValidateScenario(*scenario, params)
	} else {
		check = s.validator.Validate(params)
	}
	if !check.IsValid {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      check.Err().Error(),
			Validation: &check,
		})
		return
	}

	var (
		res *domain.SimulationResults
		err error
	)
	if scenario != nil {
		res, err = s.simulator.RunScenario(r.Context(), *scenario, params)
	} else {
		res, err = s.simulator.RunParameters(r.Context(), params)
	}
	if err != nil && (res == nil || !errors.Is(err, domain.ErrSimulationCancelled)) {
		s.writeDomainError(w, err)
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Int("completed", res.SimulationCount).Msg("returning partial monte carlo result")
	}

	report := output.SimulationReport{Validation: &check, Results: res}
	if scenario != nil {
		report.ScenarioID = scenario.ID
		if !res.Partial {
			report.RunID = s.saveSimulation(r, scenario.ID, res)
		}
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStressTests(w http.ResponseWriter, r *http.Request) {
	var req StressRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Severity != "" {
		if _, err := req.Severity.Multiplier(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Trials < 0 {
		s.writeError(w, http.StatusBadRequest, "trials must not be negative")
		return
	}

	loaded, err := req.Scenario.ToScenario()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	ids := req.Scenarios
	if len(ids) == 0 {
		ids = s.stress.Catalog().IDs()
	}

	results, err := s.stress.Run(r.Context(), loaded.Scenario, ids, req.Parameters, stress.Options{
		Severity:          req.Severity,
		Trials:            req.Trials,
		Seed:              req.Seed,
		IncludeProjection: req.IncludeProjection,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	report := output.StressReport{
		ScenarioID: loaded.Scenario.ID,
		Summary:    stress.Summarize(results),
		Results:    results,
	}
	if s.store != nil && loaded.Scenario.ID != "" {
		id, err := s.store.SaveStress(r.Context(), loaded.Scenario.ID, results, report.Summary)
		if err != nil {
			s.log.Warn().Err(err).Str("scenario_id", loaded.Scenario.ID).Msg("failed to save stress run")
		}
		report.RunID = id
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStressScenarios(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"scenarios": s.stress.Catalog().List(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	scenarioID := chi.URLParam(r, "scenarioID")
	runs, err := s.store.ListRuns(r.Context(), scenarioID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"scenarioId": scenarioID,
		"runs":       runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) saveSimulation(r *http.Request, scenarioID string, res *domain.SimulationResults) string {
	if s.store == nil || scenarioID == "" {
		return ""
	}
	id, err := s.store.SaveSimulation(r.Context(), scenarioID, res)
	if err != nil {
		s.log.Warn().Err(err).Str("scenario_id", scenarioID).Msg("failed to save monte carlo run")
		return ""
	}
	return id
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidScenario):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidParameters):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrRunNotFound), errors.Is(err, domain.ErrUnknownStressScenario):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSimulationCancelled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
