package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/herald-io/herald/internal/notification"
)

// Submitter is the producer-side boundary consumed by the HTTP front end.
type Submitter interface {
	Submit(ctx context.Context, recipientID string, channel notification.Channel, content string) (string, error)
}

// Lister is the query boundary for a recipient's notification history.
type Lister interface {
	ListByRecipient(ctx context.Context, recipientID string) ([]notification.Record, error)
}

// NotificationHandler exposes the submit and query endpoints.
type NotificationHandler struct {
	submitter Submitter
	lister    Lister
	validate  *validator.Validate
	log       *slog.Logger
}

// NewNotificationHandler creates the handler with its collaborators.
func NewNotificationHandler(submitter Submitter, lister Lister, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		submitter: submitter,
		lister:    lister,
		validate:  validator.New(),
		log:       log,
	}
}

type submitRequest struct {
	// user_id is accepted as either a JSON number or string; it is opaque to
	// the pipeline.
	UserID  json.Number `json:"user_id" validate:"required"`
	Type    string      `json:"type" validate:"required,oneof=email sms in-app"`
	Content string      `json:"content" validate:"required"`
}

type submitResponse struct {
	Message        string `json:"message"`
	NotificationID string `json:"notification_id"`
}

type listResponse struct {
	UserID        string                `json:"user_id"`
	Notifications []notification.Record `json:"notifications"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Submit handles POST /notifications.
func (h *NotificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is required"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	id, err := h.submitter.Submit(r.Context(), req.UserID.String(), notification.Channel(req.Type), req.Content)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		Message:        "notification accepted",
		NotificationID: id,
	})
}

// ListByUser handles GET /users/{userID}/notifications.
func (h *NotificationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user id is required"})
		return
	}

	records, err := h.lister.ListByRecipient(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list notifications",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "failed to retrieve notifications"})
		return
	}

	if records == nil {
		records = []notification.Record{}
	}
	writeJSON(w, http.StatusOK, listResponse{UserID: userID, Notifications: records})
}

func (h *NotificationHandler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notification.ErrInvalidChannelType):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be one of: email, sms, in-app"})
	case errors.Is(err, notification.ErrQueuePublishFailed):
		// Partial failure: the record exists and stays pending, delivery is
		// undetermined from the caller's perspective.
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "notification accepted but not queued for delivery"})
	default:
		h.log.ErrorContext(r.Context(), "submit failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "failed to store notification"})
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Field() {
		case "UserID":
			return "user_id is required"
		case "Type":
			if fe.Tag() == "oneof" {
				return "type must be one of: email, sms, in-app"
			}
			return "type is required"
		case "Content":
			return "content is required"
		}
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
