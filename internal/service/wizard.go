package service

import (
	"context"
	"encoding/json"
	"time"

	"skiphire/internal/domain"
	"skiphire/internal/events"
	"skiphire/internal/metrics"
	"skiphire/internal/models"
	"skiphire/internal/payment"
	"skiphire/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Wizard drives booking sessions through the step state machine. Each step
// output is persisted immediately on confirmation so later steps can
// reconstruct the session from storage alone.
type Wizard struct {
	sessions  domain.SessionRepository
	gateway   domain.PaymentGateway
	eventBus  domain.EventPublisher
	cardDelay time.Duration
	logger    *zerolog.Logger
}

func NewWizard(sessions domain.SessionRepository, gateway domain.PaymentGateway, eventBus domain.EventPublisher, cardDelay time.Duration, logger *zerolog.Logger) *Wizard {
	if cardDelay < 0 {
		cardDelay = 0
	}
	return &Wizard{
		sessions:  sessions,
		gateway:   gateway,
		eventBus:  eventBus,
		cardDelay: cardDelay,
		logger:    logger,
	}
}

// StartSession creates a fresh session at the initial step.
func (w *Wizard) StartSession(ctx context.Context) (*models.BookingSession, error) {
	id := uuid.NewString()
	if err := w.putStep(ctx, id, models.StepSelectSkip); err != nil {
		return nil, err
	}
	return &models.BookingSession{ID: id, Step: models.StepSelectSkip}, nil
}

// GetSession reconstructs the session snapshot from storage. A session at
// the payment step with an absent or unreadable prior output is reported in
// the missing_information display state rather than failing.
func (w *Wizard) GetSession(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	return w.load(ctx, sessionID)
}

// SelectSkip confirms the skip choice and advances to placement.
func (w *Wizard) SelectSkip(ctx context.Context, sessionID string, skip models.SkipOption) (*models.BookingSession, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Step != models.StepSelectSkip {
		return nil, ErrInvalidTransition
	}

	if err := w.putJSON(ctx, sessionID, models.KeySelectedSkip, skip); err != nil {
		return nil, err
	}
	if err := w.putStep(ctx, sessionID, models.StepDeclarePlacement); err != nil {
		return nil, err
	}

	s.Skip = &skip
	s.Step = models.StepDeclarePlacement
	metrics.IncStepConfirmed(models.StepSelectSkip)
	w.publish(events.EventSkipSelected, s, "", 0)
	return s, nil
}

// ConfirmPlacement confirms the placement declaration and advances to the
// date step. The photo reference is required regardless of placement kind.
func (w *Wizard) ConfirmPlacement(ctx context.Context, sessionID string, placement models.PlacementChoice) (*models.BookingSession, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Step != models.StepDeclarePlacement {
		return nil, ErrInvalidTransition
	}
	if placement.PlacementType != models.PlacementPrivate && placement.PlacementType != models.PlacementPublic {
		return nil, ErrUnknownPlacement
	}
	if placement.Photo == "" {
		return nil, ErrPhotoRequired
	}

	if err := w.putJSON(ctx, sessionID, models.KeyPlacementData, placement); err != nil {
		return nil, err
	}
	if err := w.putStep(ctx, sessionID, models.StepChooseDate); err != nil {
		return nil, err
	}

	s.Placement = &placement
	s.Step = models.StepChooseDate
	metrics.IncStepConfirmed(models.StepDeclarePlacement)
	w.publish(events.EventPlacementConfirmed, s, "", 0)
	return s, nil
}

// ValidateDeliveryDate rejects dates before today. Both sides are normalized
// to midnight, so today itself is always selectable.
func (w *Wizard) ValidateDeliveryDate(date time.Time) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return ErrPastDate
	}
	return nil
}

// ConfirmDelivery confirms the delivery date and advances to payment.
func (w *Wizard) ConfirmDelivery(ctx context.Context, sessionID string, delivery models.DeliverySelection) (*models.BookingSession, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Step != models.StepChooseDate {
		return nil, ErrInvalidTransition
	}
	if err := w.ValidateDeliveryDate(delivery.Date); err != nil {
		return nil, err
	}

	if err := w.putJSON(ctx, sessionID, models.KeyDeliveryDate, delivery.Date); err != nil {
		return nil, err
	}
	if err := w.putStep(ctx, sessionID, models.StepPayment); err != nil {
		return nil, err
	}

	s.Delivery = &delivery
	s.Step = models.StepPayment
	metrics.IncStepConfirmed(models.StepChooseDate)
	w.publish(events.EventDeliveryScheduled, s, "", 0)
	return s, nil
}

// Back moves one step backwards without clearing any captured data, so a
// re-entered step shows the prior input.
func (w *Wizard) Back(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if Terminal(s.Step) {
		return nil, ErrInvalidTransition
	}
	prev, ok := prevStep(s.Step)
	if !ok {
		return nil, ErrInvalidTransition
	}
	if err := w.putStep(ctx, sessionID, prev); err != nil {
		return nil, err
	}
	s.Step = prev
	return s, nil
}

// Quote computes the current cost breakdown from whatever has been captured
// so far. Absent selections yield zero components.
func (w *Wizard) Quote(ctx context.Context, sessionID string) (pricing.Quote, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return pricing.Quote{}, err
	}
	placementType := ""
	if s.Placement != nil {
		placementType = s.Placement.PlacementType
	}
	return pricing.Compute(s.Skip, placementType), nil
}

// SubmitPayment validates the submission and runs the chosen payment path.
// Validation failures come back as a field error set with a nil error; the
// caller re-renders and the user may resubmit any number of times.
func (w *Wizard) SubmitPayment(ctx context.Context, sessionID string, sub models.PaymentSubmission) (*domain.PaymentResult, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Step == models.StepMissingInformation {
		return nil, ErrMissingInformation
	}
	if s.Step != models.StepPayment {
		return nil, ErrInvalidTransition
	}

	if errs := payment.Validate(sub); len(errs) > 0 {
		metrics.IncPayment(sub.Method, "validation_failed")
		return &domain.PaymentResult{Errors: errs, Session: s}, nil
	}

	switch sub.Method {
	case models.MethodCard:
		return w.completeCardPayment(ctx, s)
	default:
		return w.createPaymentRedirect(ctx, s, sub)
	}
}

// completeCardPayment simulates card processing with a fixed delay, then
// completes the session and clears the persisted step outputs.
func (w *Wizard) completeCardPayment(ctx context.Context, s *models.BookingSession) (*domain.PaymentResult, error) {
	if w.cardDelay > 0 {
		select {
		case <-time.After(w.cardDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := w.sessions.Clear(ctx, s.ID, models.KeySelectedSkip, models.KeyPlacementData, models.KeyDeliveryDate); err != nil {
		w.logger.Error().Err(err).Str("session_id", s.ID).Msg("clear session keys after payment")
		return nil, err
	}
	if err := w.putStep(ctx, s.ID, models.StepComplete); err != nil {
		return nil, err
	}

	total := w.totalFor(s)
	s.Step = models.StepComplete
	metrics.IncPayment(models.MethodCard, "completed")
	w.publish(events.EventPaymentCompleted, s, models.MethodCard, total)
	return &domain.PaymentResult{Completed: true, Session: s}, nil
}

// createPaymentRedirect asks the external payment-session API for a hosted
// session. The persisted keys are deliberately left in place: the user
// leaves for the provider and may come back through the cancel return URL.
func (w *Wizard) createPaymentRedirect(ctx context.Context, s *models.BookingSession, sub models.PaymentSubmission) (*domain.PaymentResult, error) {
	total := w.totalFor(s)
	url, err := w.gateway.CreateSession(ctx, total, sub.Account.Email)
	if err != nil {
		w.logger.Error().Err(err).Str("session_id", s.ID).Msg("create payment session")
		metrics.IncPayment(models.MethodAccount, "gateway_error")
		return nil, err
	}

	metrics.IncPayment(models.MethodAccount, "redirect")
	w.publish(events.EventPaymentRedirect, s, models.MethodAccount, total)
	return &domain.PaymentResult{RedirectURL: url, Session: s}, nil
}

// Cancel records a cancelled payment attempt, typically via the provider's
// cancel return URL. Captured data stays in storage until a restart.
func (w *Wizard) Cancel(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	s, err := w.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(s.Step, models.StepCancelled) {
		return nil, ErrInvalidTransition
	}
	if err := w.putStep(ctx, sessionID, models.StepCancelled); err != nil {
		return nil, err
	}
	s.Step = models.StepCancelled
	w.publish(events.EventSessionCancelled, s, "", 0)
	return s, nil
}

// Reset clears everything and returns the session to the initial step. This
// is the only way out of the terminal and missing_information states.
func (w *Wizard) Reset(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	if err := w.sessions.Clear(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := w.putStep(ctx, sessionID, models.StepSelectSkip); err != nil {
		return nil, err
	}
	s := &models.BookingSession{ID: sessionID, Step: models.StepSelectSkip}
	w.publish(events.EventSessionReset, s, "", 0)
	return s, nil
}

func (w *Wizard) load(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	raw, err := w.sessions.Get(ctx, sessionID, models.KeyWizardStep)
	if err != nil {
		w.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get session step")
		return nil, err
	}
	if raw == nil {
		return nil, ErrSessionNotFound
	}

	var step string
	if err := json.Unmarshal(raw, &step); err != nil {
		return nil, ErrSessionNotFound
	}

	s := &models.BookingSession{ID: sessionID, Step: step}

	var skip models.SkipOption
	if w.getJSON(ctx, sessionID, models.KeySelectedSkip, &skip) {
		s.Skip = &skip
	}
	var placement models.PlacementChoice
	if w.getJSON(ctx, sessionID, models.KeyPlacementData, &placement) {
		s.Placement = &placement
	}
	var date time.Time
	if w.getJSON(ctx, sessionID, models.KeyDeliveryDate, &date) {
		s.Delivery = &models.DeliverySelection{Date: date}
	}

	// Reaching payment with anything absent or unreadable degrades to the
	// missing_information display state instead of an error.
	if s.Step == models.StepPayment && !StepReady(s, models.StepPayment) {
		s.Step = models.StepMissingInformation
	}

	return s, nil
}

// getJSON reads and decodes one stored step output. Unreadable values are
// treated the same as absent ones.
func (w *Wizard) getJSON(ctx context.Context, sessionID, key string, out any) bool {
	raw, err := w.sessions.Get(ctx, sessionID, key)
	if err != nil || raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		w.logger.Warn().Str("session_id", sessionID).Str("key", key).Msg("discarding unreadable session value")
		return false
	}
	return true
}

func (w *Wizard) putJSON(ctx context.Context, sessionID, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if err := w.sessions.Put(ctx, sessionID, key, data); err != nil {
		w.logger.Error().Err(err).Str("session_id", sessionID).Str("key", key).Msg("failed to persist step output")
		return err
	}
	return nil
}

func (w *Wizard) putStep(ctx context.Context, sessionID, step string) error {
	return w.putJSON(ctx, sessionID, models.KeyWizardStep, step)
}

func (w *Wizard) totalFor(s *models.BookingSession) float64 {
	placementType := ""
	if s.Placement != nil {
		placementType = s.Placement.PlacementType
	}
	return pricing.Compute(s.Skip, placementType).Total
}

func (w *Wizard) publish(eventType string, s *models.BookingSession, method string, total float64) {
	if w.eventBus == nil {
		return
	}

	payload := events.SessionEventPayload{
		SessionID: s.ID,
		Step:      s.Step,
		Method:    method,
		Total:     total,
	}
	if s.Skip != nil {
		payload.SkipID = s.Skip.ID
		payload.SkipSize = s.Skip.Size
	}
	if s.Placement != nil {
		payload.PlacementType = s.Placement.PlacementType
	}
	if s.Delivery != nil {
		payload.DeliveryDate = s.Delivery.Date
	}

	if err := w.eventBus.PublishJSON(eventType, payload); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Str("session_id", s.ID).Msg("publish event error")
	}
}
