package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studybuddy-backend/application/services"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/common"
	apperrors "studybuddy-backend/pkg/errors"
	"studybuddy-backend/pkg/utils"
)

// ConversationHandler handles conversation and message HTTP requests
type ConversationHandler struct {
	conversationService *services.ConversationService
	messageService      *services.MessageService
	logger              *zap.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(
	conversationService *services.ConversationService,
	messageService *services.MessageService,
	logger *zap.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
		logger:              logger,
	}
}

// ResolveDirectRequest represents the request body for resolving a direct conversation
type ResolveDirectRequest struct {
	OtherID string `json:"otherId" validate:"required"`
}

// CreateGroupRequest represents the request body for creating a group
type CreateGroupRequest struct {
	MemberIDs []string `json:"memberIds" validate:"required,min=1"`
	Name      string   `json:"name,omitempty" validate:"omitempty,max=120"`
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text     string `json:"text,omitempty"`
	EventRef string `json:"eventRef,omitempty"`
}

// ConversationResponse is the wire shape of a conversation
type ConversationResponse struct {
	ID            string           `json:"id"`
	Kind          string           `json:"kind"`
	Title         string           `json:"title,omitempty"`
	Participants  []string         `json:"participants"`
	CreatedAt     string           `json:"createdAt"`
	LastMessageAt string           `json:"lastMessageAt,omitempty"`
	LastMessage   *MessageResponse `json:"lastMessage,omitempty"`
}

// MessageResponse is the wire shape of a message
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Text           string `json:"text,omitempty"`
	EventRef       string `json:"eventRef,omitempty"`
	SentAt         string `json:"sentAt"`
}

func toMessageResponse(message *entities.Message) MessageResponse {
	return MessageResponse{
		ID:             message.ID(),
		ConversationID: message.ConversationID().String(),
		SenderID:       message.SenderID().String(),
		Text:           message.Body().Text(),
		EventRef:       message.Body().EventRef(),
		SentAt:         message.SentAt().UTC().Format(time.RFC3339Nano),
	}
}

func toConversationResponse(conversation *entities.Conversation, title string, last *entities.Message) ConversationResponse {
	resp := ConversationResponse{
		ID:           conversation.ID().String(),
		Kind:         string(conversation.Kind()),
		Title:        title,
		Participants: conversation.ParticipantIDs(),
		CreatedAt:    conversation.CreatedAt().Format(time.RFC3339),
	}
	if !conversation.LastMessageAt().IsZero() {
		resp.LastMessageAt = conversation.LastMessageAt().Format(time.RFC3339)
	}
	if last != nil {
		lastResp := toMessageResponse(last)
		resp.LastMessage = &lastResp
	}
	return resp
}

// ResolveDirect handles POST /conversations/direct
func (h *ConversationHandler) ResolveDirect(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req ResolveDirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError(err.Error()))
		return
	}

	conversation, err := h.conversationService.ResolveDirect(r.Context(), userCtx.UserID, req.OtherID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toConversationResponse(conversation, "", nil))
}

// CreateGroup handles POST /conversations/group
func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError(err.Error()))
		return
	}

	conversation, err := h.conversationService.CreateGroup(r.Context(), userCtx.UserID, req.MemberIDs, req.Name)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toConversationResponse(conversation, conversation.Name(), nil))
}

// ListConversations handles GET /conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	summaries, err := h.conversationService.ListFor(r.Context(), userCtx.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	response := make([]ConversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, toConversationResponse(summary.Conversation, summary.Title, summary.LastMessage))
	}

	common.RespondJSON(w, http.StatusOK, response)
}

// SendMessage handles POST /conversations/{conversationID}/messages
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondAppError(w, apperrors.NewInvalidArgumentError("invalid request body: "+err.Error()))
		return
	}

	message, err := h.messageService.Send(r.Context(), pathParam(r, "conversationID"), userCtx.UserID, req.Text, req.EventRef)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toMessageResponse(message))
}

// GetHistory handles GET /conversations/{conversationID}/messages
func (h *ConversationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	messages, err := h.messageService.History(r.Context(), userCtx.UserID, pathParam(r, "conversationID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, toMessageResponse(message))
	}

	common.RespondJSON(w, http.StatusOK, response)
}

// StreamMessages handles GET /conversations/{conversationID}/stream as a
// server-sent event stream: the full history first, then live messages
// until the client disconnects
func (h *ConversationHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		common.RespondAppError(w, apperrors.NewInternalError("streaming unsupported by transport", nil))
		return
	}

	history, subscription, err := h.messageService.Subscribe(r.Context(), userCtx.UserID, pathParam(r, "conversationID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	defer subscription.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, message := range history {
		h.writeEvent(w, message)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case message, open := <-subscription.C():
			if !open {
				return
			}
			h.writeEvent(w, message)
			flusher.Flush()
		}
	}
}

func (h *ConversationHandler) writeEvent(w http.ResponseWriter, message *entities.Message) {
	payload, err := json.Marshal(toMessageResponse(message))
	if err != nil {
		h.logger.Error("failed to marshal stream message", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
}
