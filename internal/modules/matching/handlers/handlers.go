// Package handlers provides HTTP handlers for matching runs and cached
// match reads.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
	engine "github.com/dealradar/dealradar/internal/matching"
	matchingmod "github.com/dealradar/dealradar/internal/modules/matching"
)

const (
	defaultMatchesLimit = 50
	maxMatchesParam     = 100
)

// Handler handles matching HTTP requests
type Handler struct {
	service *matchingmod.Service
	log     zerolog.Logger
}

// NewHandler creates a new matching handler
func NewHandler(service *matchingmod.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "matching").Logger(),
	}
}

// HandleMatchGoal handles POST /api/v1/match/goals/{goalID}
func (h *Handler) HandleMatchGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")
	if goalID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing goal ID")
		return
	}

	opts, err := parseRunOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.MatchDealsToGoal(r.Context(), goalID, opts)
	if err != nil {
		if errors.Is(err, domain.ErrGoalNotFound) {
			h.writeError(w, http.StatusNotFound, "Goal not found: "+goalID)
			return
		}
		h.log.Error().Err(err).Str("goal_id", goalID).Msg("Goal matching run failed")
		h.writeError(w, http.StatusInternalServerError, "Matching failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleMatchDeal handles POST /api/v1/match/deals/{dealID}
func (h *Handler) HandleMatchDeal(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")
	if dealID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing deal ID")
		return
	}

	opts, err := parseRunOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.MatchDealToGoals(r.Context(), dealID, opts)
	if err != nil {
		if errors.Is(err, domain.ErrDealNotFound) {
			h.writeError(w, http.StatusNotFound, "Deal not found: "+dealID)
			return
		}
		h.log.Error().Err(err).Str("deal_id", dealID).Msg("Deal matching run failed")
		h.writeError(w, http.StatusInternalServerError, "Matching failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGoalMatches handles GET /api/v1/goals/{goalID}/matches
func (h *Handler) HandleGoalMatches(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")
	if goalID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing goal ID")
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.MatchesForGoal(r.Context(), goalID, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrGoalNotFound) {
			h.writeError(w, http.StatusNotFound, "Goal not found: "+goalID)
			return
		}
		h.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to read goal matches")
		h.writeError(w, http.StatusInternalServerError, "Failed to read matches: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"goal_id": goalID,
		"count":   len(records),
		"matches": records,
	})
}

// HandleDealMatches handles GET /api/v1/deals/{dealID}/matches
func (h *Handler) HandleDealMatches(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")
	if dealID == "" {
		h.writeError(w, http.StatusBadRequest, "Missing deal ID")
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.MatchesForDeal(r.Context(), dealID, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrDealNotFound) {
			h.writeError(w, http.StatusNotFound, "Deal not found: "+dealID)
			return
		}
		h.log.Error().Err(err).Str("deal_id", dealID).Msg("Failed to read deal matches")
		h.writeError(w, http.StatusInternalServerError, "Failed to read matches: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"deal_id": dealID,
		"count":   len(records),
		"matches": records,
	})
}

// parseRunOptions reads max_matches, min_score and notify query params.
// notify defaults to true.
func parseRunOptions(r *http.Request) (engine.RunOptions, error) {
	opts := engine.DefaultRunOptions()
	q := r.URL.Query()

	if raw := q.Get("max_matches"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return opts, errors.New("max_matches must be a positive integer")
		}
		opts.MaxMatches = v
	}
	if raw := q.Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return opts, errors.New("min_score must be a number in [0,1]")
		}
		opts.MinScore = v
	}
	if raw := q.Get("notify"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("notify must be a boolean")
		}
		opts.Notify = v
	}

	return opts, nil
}

func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = defaultMatchesLimit
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxMatchesParam {
			return 0, 0, errors.New("limit must be an integer in [1,100]")
		}
		limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = v
	}

	return limit, offset, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
