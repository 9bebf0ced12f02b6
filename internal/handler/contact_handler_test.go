package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/glowderm/internal/contact"
	"github.com/hitoshi/glowderm/internal/events"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/validation"
)

// mockContactService はContactServiceInterfaceのモック実装。
type mockContactService struct {
	submitContactFn  func(ctx context.Context, form *validation.ContactForm) (*model.ContactMessage, error)
	submitFeedbackFn func(ctx context.Context, form *validation.FeedbackForm) (*model.Feedback, error)
}

func (m *mockContactService) SubmitContact(ctx context.Context, form *validation.ContactForm) (*model.ContactMessage, error) {
	if m.submitContactFn != nil {
		return m.submitContactFn(ctx, form)
	}
	return &model.ContactMessage{}, nil
}

func (m *mockContactService) SubmitFeedback(ctx context.Context, form *validation.FeedbackForm) (*model.Feedback, error) {
	if m.submitFeedbackFn != nil {
		return m.submitFeedbackFn(ctx, form)
	}
	return &model.Feedback{}, nil
}

func TestContactHandler_SubmitContact_PassesForm(t *testing.T) {
	submittedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var got *validation.ContactForm
	h := NewContactHandler(&mockContactService{
		submitContactFn: func(ctx context.Context, form *validation.ContactForm) (*model.ContactMessage, error) {
			got = form
			return &model.ContactMessage{ID: "msg-1", SubmittedAt: submittedAt}, nil
		},
	})

	body := `{"name":"Jane","email":"jane@example.com","subject":"Order","message":"Where is my order?"}`
	w := httptest.NewRecorder()
	h.SubmitContact(w, jsonRequest(http.MethodPost, "/api/contact", body))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if got == nil || got.Subject != "Order" || got.Email != "jane@example.com" {
		t.Errorf("form = %+v", got)
	}
	resp := decodeBody[contactResponse](t, w)
	if resp.ID != "msg-1" || !resp.SubmittedAt.Equal(submittedAt) {
		t.Errorf("response = %+v", resp)
	}
}

func TestContactHandler_SubmitContact_ValidationFailed(t *testing.T) {
	h := NewContactHandler(contact.NewService(contact.ServiceConfig{}, events.NewLogPublisher(discardLogger()), metrics.Nop{}))

	w := httptest.NewRecorder()
	h.SubmitContact(w, jsonRequest(http.MethodPost, "/api/contact", `{"name":"J","email":"x","subject":"","message":"short"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseErrorBody(t, w)
	for _, field := range []string{"name", "email", "subject", "message"} {
		if body.FieldErrors[field] == "" {
			t.Errorf("expected field error for %s, got %v", field, body.FieldErrors)
		}
	}
}

func TestContactHandler_SubmitFeedback(t *testing.T) {
	h := NewContactHandler(contact.NewService(contact.ServiceConfig{}, events.NewLogPublisher(discardLogger()), metrics.Nop{}))

	w := httptest.NewRecorder()
	h.SubmitFeedback(w, jsonRequest(http.MethodPost, "/api/feedback", `{"rating":4,"comments":"Lovely texture, fast shipping."}`))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body = %s", w.Code, w.Body.String())
	}
	resp := decodeBody[feedbackResponse](t, w)
	if resp.Rating != 4 || resp.RatingLabel != "Very Good" || resp.ID == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestContactHandler_SubmitFeedback_RatingOutOfRange(t *testing.T) {
	h := NewContactHandler(contact.NewService(contact.ServiceConfig{}, events.NewLogPublisher(discardLogger()), metrics.Nop{}))

	w := httptest.NewRecorder()
	h.SubmitFeedback(w, jsonRequest(http.MethodPost, "/api/feedback", `{"rating":0,"comments":"Lovely texture, fast shipping."}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := parseErrorBody(t, w); body.FieldErrors["rating"] == "" {
		t.Errorf("expected rating field error, got %v", body.FieldErrors)
	}
}
