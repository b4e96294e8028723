package handler

import (
	"net/http"
	"strconv"

	"github.com/alari/backend/internal/ctxkeys"
	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/service"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
}

func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

type createConversationRequest struct {
	Title *string `json:"title" validate:"omitempty,max=255"`
}

type appendMessageRequest struct {
	Role     string         `json:"role" validate:"required,oneof=system user assistant"`
	Content  string         `json:"content" validate:"required"`
	Keywords model.Keywords `json:"keywords"`
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if r.ContentLength != 0 {
		err := decode(w, r, &req)
		if err != nil {
			writeError(w, r, "failed to create conversation", err)
			return
		}
	}

	conversation, err := h.conversationService.Create(r.Context(), ctxkeys.UserID(r.Context()), req.Title)
	if err != nil {
		writeError(w, r, "failed to create conversation", err)
		return
	}

	writeJSON(w, http.StatusCreated, conversation)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	conversations, err := h.conversationService.Conversations(r.Context(), ctxkeys.UserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, "failed to list conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.conversationService.BySessionID(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, r, "failed to load conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.conversationService.Messages(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, r, "failed to list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to append message", err)
		return
	}

	message, err := h.conversationService.AppendMessage(
		r.Context(),
		ctxkeys.UserID(r.Context()),
		r.PathValue("sessionID"),
		req.Role,
		req.Content,
		req.Keywords,
	)
	if err != nil {
		writeError(w, r, "failed to append message", err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.conversationService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, r, "failed to delete conversation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
