package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skiphire/internal/models"
	"skiphire/internal/payment"
	"skiphire/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	url      string
	err      error
	calls    int
	gotTotal float64
	gotEmail string
}

func (g *stubGateway) CreateSession(ctx context.Context, total float64, email string) (string, error) {
	g.calls++
	g.gotTotal = total
	g.gotEmail = email
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

func newTestWizard(t *testing.T) (*Wizard, *repository.MemorySessionRepository, *stubGateway) {
	t.Helper()
	repo := repository.NewMemorySessionRepository(time.Hour)
	gateway := &stubGateway{url: "https://pay.example.com/session/abc"}
	logger := zerolog.Nop()
	return NewWizard(repo, gateway, nil, 0, &logger), repo, gateway
}

func fourYardSkip() models.SkipOption {
	return models.SkipOption{
		ID:               17,
		Size:             4,
		PriceBeforeVAT:   200,
		HirePeriodDays:   14,
		AllowedOnRoad:    true,
		AllowsHeavyWaste: true,
	}
}

func validCard() models.PaymentSubmission {
	return models.PaymentSubmission{
		Method: models.MethodCard,
		Card: &models.CardDetails{
			Number: "4111 1111 1111 1111",
			Expiry: "12/29",
			CVV:    "123",
			Name:   "J Smith",
		},
	}
}

func validAccount() models.PaymentSubmission {
	return models.PaymentSubmission{
		Method: models.MethodAccount,
		Account: &models.AccountDetails{
			Email:    "user@example.com",
			Password: "hunter2",
		},
	}
}

// advanceToPayment drives a fresh session through all three steps.
func advanceToPayment(t *testing.T, w *Wizard, placementType string) string {
	t.Helper()
	ctx := context.Background()

	s, err := w.StartSession(ctx)
	require.NoError(t, err)

	s, err = w.SelectSkip(ctx, s.ID, fourYardSkip())
	require.NoError(t, err)
	require.Equal(t, models.StepDeclarePlacement, s.Step)

	s, err = w.ConfirmPlacement(ctx, s.ID, models.PlacementChoice{PlacementType: placementType, Photo: "photo-ref"})
	require.NoError(t, err)
	require.Equal(t, models.StepChooseDate, s.Step)

	s, err = w.ConfirmDelivery(ctx, s.ID, models.DeliverySelection{Date: time.Now().AddDate(0, 0, 7)})
	require.NoError(t, err)
	require.Equal(t, models.StepPayment, s.Step)

	return s.ID
}

func TestWizardHappyPathCard(t *testing.T) {
	w, repo, _ := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPublic)

	quote, err := w.Quote(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, quote.Subtotal, 1e-9)
	assert.InDelta(t, 40.0, quote.VAT, 1e-9)
	assert.InDelta(t, 84.0, quote.PermitFee, 1e-9)
	assert.InDelta(t, 324.0, quote.Total, 1e-9)

	res, err := w.SubmitPayment(ctx, id, validCard())
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, models.StepComplete, res.Session.Step)

	// Step outputs are cleared on completion; only the step marker remains.
	for _, key := range []string{models.KeySelectedSkip, models.KeyPlacementData, models.KeyDeliveryDate} {
		val, err := repo.Get(ctx, id, key)
		require.NoError(t, err)
		assert.Nil(t, val, "key %s should be cleared after completion", key)
	}

	s, err := w.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepComplete, s.Step)
}

func TestWizardPrivatePlacementSkipsPermitFee(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPrivate)

	quote, err := w.Quote(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, quote.PermitFee, 1e-9)
	assert.InDelta(t, 240.0, quote.Total, 1e-9)
}

func TestWizardAccountRedirect(t *testing.T) {
	w, repo, gateway := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPublic)

	res, err := w.SubmitPayment(ctx, id, validAccount())
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, "https://pay.example.com/session/abc", res.RedirectURL)
	assert.Equal(t, 1, gateway.calls)
	assert.InDelta(t, 324.0, gateway.gotTotal, 1e-9)
	assert.Equal(t, "user@example.com", gateway.gotEmail)

	// Redirect leaves captured data in place so the user can come back.
	for _, key := range []string{models.KeySelectedSkip, models.KeyPlacementData, models.KeyDeliveryDate} {
		val, err := repo.Get(ctx, id, key)
		require.NoError(t, err)
		assert.NotNil(t, val, "key %s should survive a redirect", key)
	}

	s, err := w.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, s.Step)
}

func TestWizardGatewayErrorStaysOnPayment(t *testing.T) {
	w, _, gateway := newTestWizard(t)
	gateway.err = errors.New("gateway unreachable")
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPrivate)

	_, err := w.SubmitPayment(ctx, id, validAccount())
	require.Error(t, err)

	s, err := w.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, s.Step, "a failed gateway call must not advance the session")
}

func TestWizardValidationErrorsKeepSessionResubmittable(t *testing.T) {
	w, _, gateway := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPublic)

	bad := models.PaymentSubmission{
		Method: models.MethodCard,
		Card: &models.CardDetails{
			Number: "4111",
			Expiry: "13/29",
			CVV:    "12",
			Name:   "",
		},
	}
	res, err := w.SubmitPayment(ctx, id, bad)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Len(t, res.Errors, 4, "every violated field should be reported at once")
	assert.Equal(t, payment.ErrInvalidCardNumber, res.Errors["number"])
	assert.Equal(t, payment.ErrInvalidExpiry, res.Errors["expiry"])
	assert.Equal(t, payment.ErrInvalidCVV, res.Errors["cvv"])
	assert.Equal(t, payment.ErrMissingName, res.Errors["name"])
	assert.Zero(t, gateway.calls)

	// Resubmitting with fixed details succeeds on the same session.
	res, err = w.SubmitPayment(ctx, id, validCard())
	require.NoError(t, err)
	assert.True(t, res.Completed)
}

func TestWizardBackPreservesData(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPublic)

	s, err := w.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepChooseDate, s.Step)

	s, err = w.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepDeclarePlacement, s.Step)

	// Everything captured so far is still visible.
	s, err = w.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, s.Skip)
	require.NotNil(t, s.Placement)
	require.NotNil(t, s.Delivery)
	assert.Equal(t, "photo-ref", s.Placement.Photo)

	// Re-confirming the step from here walks forward again.
	s, err = w.ConfirmPlacement(ctx, id, models.PlacementChoice{PlacementType: models.PlacementPublic, Photo: "photo-ref"})
	require.NoError(t, err)
	assert.Equal(t, models.StepChooseDate, s.Step)

	t.Run("NoBackFromFirstStep", func(t *testing.T) {
		s2, err := w.StartSession(ctx)
		require.NoError(t, err)
		_, err = w.Back(ctx, s2.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("NoBackFromCompletedSession", func(t *testing.T) {
		id := advanceToPayment(t, w, models.PlacementPrivate)
		res, err := w.SubmitPayment(ctx, id, validCard())
		require.NoError(t, err)
		require.True(t, res.Completed)

		_, err = w.Back(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestWizardConfirmOnlyFromOwningStep(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	s, err := w.StartSession(ctx)
	require.NoError(t, err)
	id := s.ID

	// Placement before skip selection is out of order.
	_, err = w.ConfirmPlacement(ctx, id, models.PlacementChoice{PlacementType: models.PlacementPrivate, Photo: "p"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// A second skip confirmation after advancing is rejected and leaves the
	// stored choice untouched.
	_, err = w.SelectSkip(ctx, id, fourYardSkip())
	require.NoError(t, err)
	other := fourYardSkip()
	other.ID = 99
	_, err = w.SelectSkip(ctx, id, other)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := w.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Skip)
	assert.Equal(t, int64(17), got.Skip.ID)
}

func TestWizardPlacementValidation(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	s, err := w.StartSession(ctx)
	require.NoError(t, err)
	_, err = w.SelectSkip(ctx, s.ID, fourYardSkip())
	require.NoError(t, err)

	_, err = w.ConfirmPlacement(ctx, s.ID, models.PlacementChoice{PlacementType: "driveway", Photo: "p"})
	assert.ErrorIs(t, err, ErrUnknownPlacement)

	_, err = w.ConfirmPlacement(ctx, s.ID, models.PlacementChoice{PlacementType: models.PlacementPublic})
	assert.ErrorIs(t, err, ErrPhotoRequired)
}

func TestWizardDeliveryDateBoundaries(t *testing.T) {
	w, _, _ := newTestWizard(t)

	t.Run("TodayIsSelectable", func(t *testing.T) {
		assert.NoError(t, w.ValidateDeliveryDate(time.Now()))
	})

	t.Run("LateTodayIsSelectable", func(t *testing.T) {
		now := time.Now()
		endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
		assert.NoError(t, w.ValidateDeliveryDate(endOfDay))
	})

	t.Run("YesterdayIsRejected", func(t *testing.T) {
		assert.ErrorIs(t, w.ValidateDeliveryDate(time.Now().AddDate(0, 0, -1)), ErrPastDate)
	})

	t.Run("RejectedViaConfirm", func(t *testing.T) {
		ctx := context.Background()
		s, err := w.StartSession(ctx)
		require.NoError(t, err)
		_, err = w.SelectSkip(ctx, s.ID, fourYardSkip())
		require.NoError(t, err)
		_, err = w.ConfirmPlacement(ctx, s.ID, models.PlacementChoice{PlacementType: models.PlacementPrivate, Photo: "p"})
		require.NoError(t, err)

		_, err = w.ConfirmDelivery(ctx, s.ID, models.DeliverySelection{Date: time.Now().AddDate(0, 0, -1)})
		assert.ErrorIs(t, err, ErrPastDate)

		got, err := w.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StepChooseDate, got.Step, "rejected date must not advance the step")
	})
}

func TestWizardMissingInformation(t *testing.T) {
	w, repo, _ := newTestWizard(t)
	ctx := context.Background()

	// Simulate landing on payment without the earlier outputs, e.g. after a
	// partial storage wipe.
	id := "direct-entry"
	require.NoError(t, repo.Put(ctx, id, models.KeyWizardStep, []byte(`"payment"`)))

	s, err := w.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepMissingInformation, s.Step)

	_, err = w.SubmitPayment(ctx, id, validCard())
	assert.ErrorIs(t, err, ErrMissingInformation)

	t.Run("CorruptValueDegradesTheSameWay", func(t *testing.T) {
		id := advanceToPayment(t, w, models.PlacementPublic)
		require.NoError(t, repo.Put(ctx, id, models.KeySelectedSkip, []byte(`{not json`)))

		s, err := w.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StepMissingInformation, s.Step)
	})

	t.Run("ResetIsTheWayOut", func(t *testing.T) {
		s, err := w.Reset(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StepSelectSkip, s.Step)

		got, err := w.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StepSelectSkip, got.Step)
		assert.Nil(t, got.Skip)
	})
}

func TestWizardCancel(t *testing.T) {
	w, repo, _ := newTestWizard(t)
	ctx := context.Background()

	id := advanceToPayment(t, w, models.PlacementPublic)

	s, err := w.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepCancelled, s.Step)

	// Cancellation keeps captured data until an explicit restart.
	val, err := repo.Get(ctx, id, models.KeySelectedSkip)
	require.NoError(t, err)
	assert.NotNil(t, val)

	t.Run("OnlyFromPayment", func(t *testing.T) {
		s2, err := w.StartSession(ctx)
		require.NoError(t, err)
		_, err = w.Cancel(ctx, s2.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestWizardUnknownSession(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	_, err := w.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = w.SelectSkip(ctx, "nope", fourYardSkip())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardCardDelayRespectsContext(t *testing.T) {
	repo := repository.NewMemorySessionRepository(time.Hour)
	gateway := &stubGateway{}
	logger := zerolog.Nop()
	w := NewWizard(repo, gateway, nil, 5*time.Second, &logger)

	id := advanceToPayment(t, w, models.PlacementPrivate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := w.SubmitPayment(ctx, id, validCard())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "cancellation should not wait out the full delay")

	// The aborted attempt must leave the session resubmittable.
	s, err := w.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, s.Step)
}

func TestWizardQuoteBeforeSelection(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()

	s, err := w.StartSession(ctx)
	require.NoError(t, err)

	quote, err := w.Quote(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, quote.Total)
}
