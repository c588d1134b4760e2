package pricing

import "skiphire/internal/models"

// Quote is the cost breakdown for one booking. Values are exact float sums;
// rounding to two decimal places happens at presentation time only.
type Quote struct {
	Subtotal  float64 `json:"subtotal"`
	VAT       float64 `json:"vat"`
	PermitFee float64 `json:"permit_fee"`
	Total     float64 `json:"total"`
	UnitPrice float64 `json:"unit_price"`
}

// Compute derives the quote from the selected skip and placement kind.
// A nil skip yields a zero quote; the wizard's preconditions make that
// unreachable in practice, but callers before the precondition check
// (live summary rendering) rely on the zero behaviour.
func Compute(skip *models.SkipOption, placementType string) Quote {
	var q Quote
	if skip != nil {
		q.Subtotal = skip.PriceBeforeVAT
		if skip.Size > 0 {
			q.UnitPrice = skip.PriceBeforeVAT / float64(skip.Size)
		}
	}
	q.VAT = q.Subtotal * models.VATRate
	if placementType == models.PlacementPublic {
		q.PermitFee = models.PermitFee
	}
	q.Total = q.Subtotal + q.VAT + q.PermitFee
	return q
}
