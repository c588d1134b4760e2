package service

import "skiphire/internal/models"

// AllowedTransitions defines the valid step transitions. The key is the
// current step, the value the steps reachable from it by an explicit action
// (confirm, back, cancel, restart). Complete and Cancelled only permit the
// restart action.
var AllowedTransitions = map[string][]string{
	models.StepSelectSkip: {
		models.StepDeclarePlacement,
	},
	models.StepDeclarePlacement: {
		models.StepSelectSkip,
		models.StepChooseDate,
	},
	models.StepChooseDate: {
		models.StepDeclarePlacement,
		models.StepPayment,
	},
	models.StepPayment: {
		models.StepChooseDate,
		models.StepComplete,
		models.StepCancelled,
	},
	models.StepComplete:  {models.StepSelectSkip},
	models.StepCancelled: {models.StepSelectSkip},
}

// CanTransition checks if a transition from one step to another is allowed.
func CanTransition(from, to string) bool {
	allowed, exists := AllowedTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// prevStep returns the step Back leads to. Initial and terminal steps have
// no backward transition.
func prevStep(step string) (string, bool) {
	switch step {
	case models.StepDeclarePlacement:
		return models.StepSelectSkip, true
	case models.StepChooseDate:
		return models.StepDeclarePlacement, true
	case models.StepPayment:
		return models.StepChooseDate, true
	default:
		return "", false
	}
}

// Terminal reports whether a step has no forward transitions besides restart.
func Terminal(step string) bool {
	return step == models.StepComplete || step == models.StepCancelled
}

// StepReady reports whether the required output of a step is present in the
// session, which is the precondition for advancing past it.
func StepReady(s *models.BookingSession, step string) bool {
	switch step {
	case models.StepSelectSkip:
		return s.Skip != nil
	case models.StepDeclarePlacement:
		// The photo is required for both placement kinds.
		return s.Placement != nil && s.Placement.PlacementType != "" && s.Placement.Photo != ""
	case models.StepChooseDate:
		return s.Delivery != nil && !s.Delivery.Date.IsZero()
	case models.StepPayment:
		return s.Complete()
	default:
		return false
	}
}
