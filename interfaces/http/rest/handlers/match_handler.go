package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studybuddy-backend/application/services"
	domainservices "studybuddy-backend/domain/services"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/common"
)

// pathParam reads a chi URL parameter
func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// MatchHandler handles study-partner suggestion HTTP requests
type MatchHandler struct {
	matchService *services.MatchService
	logger       *zap.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *services.MatchService, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		logger:       logger,
	}
}

// SuggestionResponse is the wire shape of one scored candidate
type SuggestionResponse struct {
	Profile          ProfileResponse `json:"profile"`
	Score            float64         `json:"score"`
	Reasons          []string        `json:"reasons"`
	ConnectionStatus string          `json:"connectionStatus"`
}

// ScoreResponse is the wire shape of a single pairwise score
type ScoreResponse struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// ListSuggestions handles GET /matches/suggestions
func (h *MatchHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	query := r.URL.Query()
	filters := domainservices.MatchFilters{
		SameUniversity:     query.Get("sameUniversity") == "true",
		SameCourse:         query.Get("sameCourse") == "true",
		SharedInterest:     query.Get("sharedInterest") == "true",
		SharedAvailability: query.Get("sharedAvailability") == "true",
	}
	pagination := common.ExtractPaginationParams(r)

	suggestions, total, err := h.matchService.Suggestions(r.Context(), userCtx.UserID, filters, pagination.Page, pagination.PageSize)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	response := make([]SuggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		response = append(response, SuggestionResponse{
			Profile:          toProfileResponse(suggestion.Profile),
			Score:            suggestion.Score,
			Reasons:          suggestion.Reasons,
			ConnectionStatus: string(suggestion.ConnectionStatus),
		})
	}

	common.RespondPaginated(w, http.StatusOK, response,
		common.BuildPaginationMeta(pagination.Page, pagination.PageSize, total))
}

// GetScore handles GET /matches/score/{userID}
func (h *MatchHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	score, err := h.matchService.ScoreAgainst(r.Context(), userCtx.UserID, pathParam(r, "userID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ScoreResponse{
		Score:   score.Score,
		Reasons: score.Reasons,
	})
}
