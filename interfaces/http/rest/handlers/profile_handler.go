package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"studybuddy-backend/application/services"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/common"
	apperrors "studybuddy-backend/pkg/errors"
	"studybuddy-backend/pkg/utils"
)

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	DisplayName       *string  `json:"displayName,omitempty" validate:"omitempty,min=1,max=100"`
	University        *string  `json:"university,omitempty" validate:"omitempty,max=200"`
	CourseLabel       *string  `json:"courseLabel,omitempty" validate:"omitempty,max=200"`
	Major             *string  `json:"major,omitempty" validate:"omitempty,max=200"`
	Interests         []string `json:"interests,omitempty" validate:"omitempty,max=30,dive,max=80"`
	AcademicGoals     []string `json:"academicGoals,omitempty" validate:"omitempty,max=30,dive,max=120"`
	AvailabilitySlots []string `json:"availabilitySlots,omitempty" validate:"omitempty,max=50,dive,max=60"`
}

// ProfileResponse is the wire shape of a profile
type ProfileResponse struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	University        string   `json:"university,omitempty"`
	CourseLabel       string   `json:"courseLabel,omitempty"`
	Major             string   `json:"major,omitempty"`
	Interests         []string `json:"interests"`
	AcademicGoals     []string `json:"academicGoals"`
	AvailabilitySlots []string `json:"availabilitySlots"`
}

func toProfileResponse(profile *entities.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                profile.ID().String(),
		DisplayName:       profile.DisplayName(),
		University:        profile.University(),
		CourseLabel:       profile.CourseLabel(),
		Major:             profile.Major(),
		Interests:         profile.Interests(),
		AcademicGoals:     profile.AcademicGoals(),
		AvailabilitySlots: profile.AvailabilitySlots(),
	}
}

// GetMe handles GET /profiles/me
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userCtx.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toProfileResponse(profile))
}

// GetProfile handles GET /profiles/{userID}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "userID")

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdateMe handles PUT /profiles/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError(err.Error()))
		return
	}

	profile, err := h.profileService.UpsertProfile(r.Context(), userCtx.UserID, services.ProfileUpdate{
		DisplayName:       req.DisplayName,
		University:        req.University,
		CourseLabel:       req.CourseLabel,
		Major:             req.Major,
		Interests:         req.Interests,
		AcademicGoals:     req.AcademicGoals,
		AvailabilitySlots: req.AvailabilitySlots,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toProfileResponse(profile))
}
