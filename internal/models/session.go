package models

import "time"

// PlacementChoice records where the skip will sit and the required
// documentation photo. The photo is an opaque reference produced by the
// caller (upload handle, data URL, object key); the wizard never inspects it.
type PlacementChoice struct {
	PlacementType string `json:"placementType"`
	Photo         string `json:"photo"`
}

// DeliverySelection is a calendar date with no time component. Weekend is
// informational only and never blocks selection.
type DeliverySelection struct {
	Date time.Time `json:"date"`
}

// Weekend reports whether the chosen date falls on Saturday or Sunday.
func (d DeliverySelection) Weekend() bool {
	wd := d.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BookingSession aggregates the three step outputs for one wizard traversal.
// A payment submission may only be attempted when all three are present.
type BookingSession struct {
	ID        string             `json:"id"`
	Step      string             `json:"step"`
	Skip      *SkipOption        `json:"skip,omitempty"`
	Placement *PlacementChoice   `json:"placement,omitempty"`
	Delivery  *DeliverySelection `json:"delivery,omitempty"`
}

// Complete reports whether every step output required for payment is present.
func (s *BookingSession) Complete() bool {
	return s.Skip != nil && s.Placement != nil && s.Delivery != nil &&
		!s.Delivery.Date.IsZero()
}
