package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"studybuddy-backend/application/services"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/common"
	apperrors "studybuddy-backend/pkg/errors"
	"studybuddy-backend/pkg/utils"
)

// ConnectionHandler handles connection graph HTTP requests
type ConnectionHandler struct {
	connectionService *services.ConnectionService
	logger            *zap.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *services.ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
		logger:            logger,
	}
}

// connectionViewer parses the caller's ID for viewer-relative status
func connectionViewer(userID string) (valueobjects.UserID, error) {
	viewer, err := valueobjects.NewUserID(userID)
	if err != nil {
		return valueobjects.UserID{}, apperrors.NewInvalidArgumentError(err.Error())
	}
	return viewer, nil
}

// RequestConnectionRequest represents the request body for a connection request
type RequestConnectionRequest struct {
	TargetID string `json:"targetId" validate:"required"`
}

// ConnectionResponse is the wire shape of the viewer's side of an edge
type ConnectionResponse struct {
	OtherID string `json:"otherId"`
	Status  string `json:"status"`
}

// RequestConnection handles POST /connections/request
func (h *ConnectionHandler) RequestConnection(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req RequestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError(err.Error()))
		return
	}

	connection, err := h.connectionService.RequestConnection(r.Context(), userCtx.UserID, req.TargetID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	status := entities.ViewerStatusNone
	if connection != nil {
		viewer, verr := connectionViewer(userCtx.UserID)
		if verr != nil {
			common.RespondAppError(w, verr)
			return
		}
		status = connection.StatusFor(viewer)
	}

	common.RespondJSON(w, http.StatusOK, ConnectionResponse{
		OtherID: req.TargetID,
		Status:  string(status),
	})
}

// GetStatus handles GET /connections/status/{userID}
func (h *ConnectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	otherID := pathParam(r, "userID")
	status, err := h.connectionService.StatusFor(r.Context(), userCtx.UserID, otherID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ConnectionResponse{
		OtherID: otherID,
		Status:  string(status),
	})
}

// ListConnections handles GET /connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	profiles, err := h.connectionService.ListAccepted(r.Context(), userCtx.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	response := make([]ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		response = append(response, toProfileResponse(profile))
	}

	common.RespondJSON(w, http.StatusOK, response)
}

// CountConnections handles GET /connections/count
func (h *ConnectionHandler) CountConnections(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	count, err := h.connectionService.CountAccepted(r.Context(), userCtx.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}
