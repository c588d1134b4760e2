package domain

import (
	"context"

	"skiphire/internal/models"
	"skiphire/internal/payment"
	"skiphire/internal/pricing"
)

// SessionRepository is the durable per-session key/value store behind the
// wizard. Values are JSON-serialized step outputs under the stable keys in
// models (selectedSkip, placementData, deliveryDate, wizardStep).
// Get returns (nil, nil) when the key is absent.
type SessionRepository interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	Clear(ctx context.Context, sessionID string, keys ...string) error
	CheckRateLimit(ctx context.Context, clientID string, limit int, windowSeconds int) (bool, error)
}

// CatalogClient lists skips available for a location from the remote
// listing API.
type CatalogClient interface {
	ListSkips(ctx context.Context, postcode, area string) ([]models.SkipOption, error)
}

// PaymentGateway creates a hosted payment session for the account path and
// returns the redirect URL supplied by the provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, total float64, email string) (string, error)
}

// EventPublisher fans out wizard lifecycle events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// WizardService drives one booking session through the step state machine.
type WizardService interface {
	StartSession(ctx context.Context) (*models.BookingSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.BookingSession, error)
	SelectSkip(ctx context.Context, sessionID string, skip models.SkipOption) (*models.BookingSession, error)
	ConfirmPlacement(ctx context.Context, sessionID string, placement models.PlacementChoice) (*models.BookingSession, error)
	ConfirmDelivery(ctx context.Context, sessionID string, delivery models.DeliverySelection) (*models.BookingSession, error)
	Back(ctx context.Context, sessionID string) (*models.BookingSession, error)
	Quote(ctx context.Context, sessionID string) (pricing.Quote, error)
	SubmitPayment(ctx context.Context, sessionID string, sub models.PaymentSubmission) (*PaymentResult, error)
	Cancel(ctx context.Context, sessionID string) (*models.BookingSession, error)
	Reset(ctx context.Context, sessionID string) (*models.BookingSession, error)
}

// PaymentResult is the outcome of one validated submission attempt.
// Exactly one of Errors, RedirectURL, or Completed carries the outcome.
type PaymentResult struct {
	Completed   bool                   `json:"completed"`
	RedirectURL string                 `json:"redirect_url,omitempty"`
	Errors      payment.FieldErrors    `json:"errors,omitempty"`
	Session     *models.BookingSession `json:"session,omitempty"`
}
