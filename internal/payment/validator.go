package payment

import (
	"regexp"
	"strings"

	"skiphire/internal/models"
)

// Field error codes surfaced to the client. One entry per failed field;
// checks do not short-circuit, so a submission reports every violation at once.
const (
	ErrInvalidCardNumber = "invalid_card_number"
	ErrInvalidExpiry     = "invalid_expiry"
	ErrInvalidCVV        = "invalid_cvv"
	ErrMissingName       = "missing_name"
	ErrInvalidEmail      = "invalid_email"
	ErrMissingPassword   = "missing_password"
)

// FieldErrors maps a form field to its error code. Empty means valid.
type FieldErrors map[string]string

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	emailRe      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// ValidateCard checks card details. Interior spaces in the number are
// ignored; everything else is matched verbatim.
func ValidateCard(d models.CardDetails) FieldErrors {
	errs := FieldErrors{}
	cleaned := strings.ReplaceAll(d.Number, " ", "")
	if !cardNumberRe.MatchString(cleaned) {
		errs["number"] = ErrInvalidCardNumber
	}
	if !expiryRe.MatchString(d.Expiry) {
		errs["expiry"] = ErrInvalidExpiry
	}
	if !cvvRe.MatchString(d.CVV) {
		errs["cvv"] = ErrInvalidCVV
	}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = ErrMissingName
	}
	return errs
}

// ValidateAccount checks alternative-account credentials.
func ValidateAccount(d models.AccountDetails) FieldErrors {
	errs := FieldErrors{}
	if !emailRe.MatchString(d.Email) {
		errs["email"] = ErrInvalidEmail
	}
	if strings.TrimSpace(d.Password) == "" {
		errs["password"] = ErrMissingPassword
	}
	return errs
}

// Validate dispatches on the submission's method discriminator. Unknown
// methods report a method-level error.
func Validate(sub models.PaymentSubmission) FieldErrors {
	switch sub.Method {
	case models.MethodCard:
		if sub.Card == nil {
			return FieldErrors{"card": ErrInvalidCardNumber}
		}
		return ValidateCard(*sub.Card)
	case models.MethodAccount:
		if sub.Account == nil {
			return FieldErrors{"account": ErrInvalidEmail}
		}
		return ValidateAccount(*sub.Account)
	default:
		return FieldErrors{"method": "unknown_method"}
	}
}
