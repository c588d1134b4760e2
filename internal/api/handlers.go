package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"skiphire/internal/models"
	"skiphire/internal/pricing"
	"skiphire/internal/service"
)

// sessionResponse is the snapshot handed to clients: the session plus the
// live quote for whatever has been captured so far.
type sessionResponse struct {
	Session *models.BookingSession `json:"session"`
	Quote   pricing.Quote          `json:"quote"`
}

// handleSkips lists skips for the configured location. A listing failure
// degrades to an empty list so the client always has something to render.
func (s *HTTPServer) handleSkips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	skips, err := s.catalog.ListSkips(r.Context(), s.loc.Postcode, s.loc.Area)
	if err != nil {
		s.logger.Error().Err(err).Msg("skip listing fetch failed")
		writeJSON(w, http.StatusOK, map[string]any{"skips": []models.SkipOption{}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"skips": skips})
}

// handleSessions creates a new booking session. Creation is limited per
// client through the session repository's windowed counter, independent of
// the HTTP layer's token bucket.
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	client := s.auth.clientKey(r)
	allowed, err := s.sessions.CheckRateLimit(r.Context(), client, models.RateLimitRequests, models.RateLimitWindow)
	if err != nil {
		// Limiting is best effort; a broken counter must not block bookings.
		s.logger.Warn().Err(err).Str("client", client).Msg("session rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "session creation limit reached")
		return
	}

	session, err := s.wizard.StartSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: session})
}

// handleSession dispatches /api/v1/sessions/{id}[/{action}].
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/sessions/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	sessionID := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	} else if len(parts) > 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getSession(w, r, sessionID)
	case action != "" && r.Method == http.MethodPost:
		s.postAction(w, r, sessionID, action)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.wizard.GetSession(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	quote, err := s.wizard.Quote(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Quote: quote})
}

func (s *HTTPServer) postAction(w http.ResponseWriter, r *http.Request, sessionID, action string) {
	switch action {
	case "skip":
		var skip models.SkipOption
		if !decodeBody(w, r, &skip) {
			return
		}
		session, err := s.wizard.SelectSkip(r.Context(), sessionID, skip)
		s.respondSession(w, r, session, err)
	case "placement":
		var placement models.PlacementChoice
		if !decodeBody(w, r, &placement) {
			return
		}
		session, err := s.wizard.ConfirmPlacement(r.Context(), sessionID, placement)
		s.respondSession(w, r, session, err)
	case "delivery":
		var body struct {
			Date string `json:"date"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		date, err := parseDate(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		session, err := s.wizard.ConfirmDelivery(r.Context(), sessionID, models.DeliverySelection{Date: date})
		s.respondSession(w, r, session, err)
	case "back":
		session, err := s.wizard.Back(r.Context(), sessionID)
		s.respondSession(w, r, session, err)
	case "payment":
		var sub models.PaymentSubmission
		if !decodeBody(w, r, &sub) {
			return
		}
		result, err := s.wizard.SubmitPayment(r.Context(), sessionID, sub)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if len(result.Errors) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	case "cancel":
		session, err := s.wizard.Cancel(r.Context(), sessionID)
		s.respondSession(w, r, session, err)
	case "reset":
		session, err := s.wizard.Reset(r.Context(), sessionID)
		s.respondSession(w, r, session, err)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *HTTPServer) respondSession(w http.ResponseWriter, r *http.Request, session *models.BookingSession, err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	quote, err := s.wizard.Quote(r.Context(), session.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Quote: quote})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrMissingInformation):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrPhotoRequired),
		errors.Is(err, service.ErrUnknownPlacement):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("wizard operation failed")
		writeError(w, http.StatusBadGateway, "operation failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// parseDate accepts a plain calendar date or a full RFC3339 timestamp, since
// clients serialize dates both ways.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
