package models

// Payment method discriminators. Exactly one set of details is validated
// per submission attempt.
const (
	MethodCard    = "card"
	MethodAccount = "account"
)

// CardDetails are the raw user-entered card fields. Created fresh per
// submission attempt and validated locally before anything else happens.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
	Name   string `json:"name"`
}

// AccountDetails are the alternative-account (PayPal-style) credentials.
type AccountDetails struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PaymentSubmission carries one submission attempt for either method.
type PaymentSubmission struct {
	Method  string          `json:"method"`
	Card    *CardDetails    `json:"card,omitempty"`
	Account *AccountDetails `json:"account,omitempty"`
}
