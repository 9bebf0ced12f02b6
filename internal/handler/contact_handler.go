package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/validation"
)

// ContactServiceInterface はお問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	SubmitContact(ctx context.Context, form *validation.ContactForm) (*model.ContactMessage, error)
	SubmitFeedback(ctx context.Context, form *validation.FeedbackForm) (*model.Feedback, error)
}

// ContactHandler はお問い合わせ・フィードバックフォームのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

// SubmitContact はお問い合わせを受け付ける。
// POST /api/contact
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var form validation.ContactForm
	if err := decodeJSON(w, r, &form); err != nil {
		handleServiceError(w, err)
		return
	}

	msg, err := h.service.SubmitContact(r.Context(), &form)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, contactResponse{ID: msg.ID, SubmittedAt: msg.SubmittedAt})
}

// SubmitFeedback はフィードバックを受け付ける。
// POST /api/feedback
func (h *ContactHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var form validation.FeedbackForm
	if err := decodeJSON(w, r, &form); err != nil {
		handleServiceError(w, err)
		return
	}

	fb, err := h.service.SubmitFeedback(r.Context(), &form)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, feedbackResponse{
		ID:          fb.ID,
		Rating:      fb.Rating,
		RatingLabel: fb.RatingLabel,
		SubmittedAt: fb.SubmittedAt,
	})
}
