package validation

import (
	"strings"

	"github.com/hitoshi/glowderm/internal/model"
)

// SignupForm はアカウント登録フォーム。
type SignupForm struct {
	Name     string `json:"name" validate:"min=2,max=100"`
	Email    string `json:"email" validate:"email,max=255"`
	Password string `json:"password" validate:"min=6,max=100"`
}

func (f *SignupForm) FormName() string { return "signup" }

func (f *SignupForm) Messages() Messages {
	return Messages{
		"name.min":     "Name must be at least 2 characters",
		"name.max":     "Name is too long",
		"email.email":  "Please enter a valid email address",
		"email.max":    "Email is too long",
		"password.min": "Password must be at least 6 characters",
		"password.max": "Password is too long",
	}
}

// CheckoutForm は配送先フォーム。全フィールドは前後の空白を除去してから検証する。
type CheckoutForm struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"email,max=255"`
	Address   string `json:"address" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
}

func (f *CheckoutForm) FormName() string { return "checkout" }

func (f *CheckoutForm) Messages() Messages {
	return Messages{
		"first_name.required": "First name is required",
		"first_name.max":      "First name is too long",
		"last_name.required":  "Last name is required",
		"last_name.max":       "Last name is too long",
		"email.email":         "Invalid email address",
		"email.max":           "Email is too long",
		"address.required":    "Address is required",
		"address.max":         "Address is too long",
		"city.required":       "City is required",
		"city.max":            "City is too long",
		"zip_code.required":   "ZIP code is required",
		"zip_code.max":        "ZIP code is too long",
	}
}

// Normalize は全フィールドの前後の空白を除去する。
func (f *CheckoutForm) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.ZipCode = strings.TrimSpace(f.ZipCode)
}

// Details は配送先情報に変換する。
func (f *CheckoutForm) Details() model.ShippingDetails {
	return model.ShippingDetails{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Address:   f.Address,
		City:      f.City,
		ZipCode:   f.ZipCode,
	}
}

// ContactForm はお問い合わせフォーム。
type ContactForm struct {
	Name    string `json:"name" validate:"min=2,max=100"`
	Email   string `json:"email" validate:"email,max=255"`
	Subject string `json:"subject" validate:"min=2,max=200"`
	Message string `json:"message" validate:"min=10,max=1000"`
}

func (f *ContactForm) FormName() string { return "contact" }

func (f *ContactForm) Messages() Messages {
	return Messages{
		"name.min":    "Name is required",
		"name.max":    "Name is too long",
		"email.email": "Please enter a valid email",
		"email.max":   "Email is too long",
		"subject.min": "Subject is required",
		"subject.max": "Subject is too long",
		"message.min": "Message must be at least 10 characters",
		"message.max": "Message is too long",
	}
}

// FeedbackForm はフィードバックフォーム。ratingは1〜5。
type FeedbackForm struct {
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Comments string `json:"comments" validate:"min=10,max=1000"`
}

func (f *FeedbackForm) FormName() string { return "feedback" }

func (f *FeedbackForm) Messages() Messages {
	return Messages{
		"rating.min":   "Please select a rating",
		"rating.max":   "Rating must be between 1 and 5",
		"comments.min": "Please provide at least 10 characters of feedback",
		"comments.max": "Feedback is too long",
	}
}

var (
	_ Form = (*SignupForm)(nil)
	_ Form = (*CheckoutForm)(nil)
	_ Form = (*ContactForm)(nil)
	_ Form = (*FeedbackForm)(nil)
)
