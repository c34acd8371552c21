package handlers

import (
	"net/http"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

// MessageHandler provides HTTP handlers for direct messages.
type MessageHandler struct {
	messageService *services.MessageService
	log            *zap.Logger
}

func NewMessageHandler(messageService *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		log:            log,
	}
}

// ListThread returns the caller's messages about a listing.
func (h *MessageHandler) ListThread(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.messageService.ListThread(r.Context(), principalFromContext(r.Context()), listingID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, MessageListResponse{Items: messages})
}

// SendMessage posts a message about a listing.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseListingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	message, err := h.messageService.Send(r.Context(), principalFromContext(r.Context()), services.SendInput{
		ReceiverID: req.ReceiverID,
		ListingID:  listingID,
		Body:       req.Body,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

// UnreadCount reports how many messages the caller has received.
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageService.UnreadCount(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to count messages")
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

type SendMessageRequest struct {
	ReceiverID int    `json:"receiver_id"`
	Body       string `json:"body"`
}

type MessageListResponse struct {
	Items []types.Message `json:"items"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
