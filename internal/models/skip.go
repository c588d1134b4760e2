package models

// SkipOption is one rentable skip size as returned by the listing API.
// Instances are read-only inside the wizard; exactly one is selected per session.
type SkipOption struct {
	ID               int64   `json:"id"`
	Size             int64   `json:"size"`
	PriceBeforeVAT   float64 `json:"price_before_vat"`
	HirePeriodDays   int64   `json:"hire_period_days"`
	AllowedOnRoad    bool    `json:"allowed_on_road"`
	AllowsHeavyWaste bool    `json:"allows_heavy_waste"`
}
