package models

// Wizard steps, in traversal order. Complete and Cancelled are terminal.
const (
	StepSelectSkip         = "select_skip"
	StepDeclarePlacement   = "declare_placement"
	StepChooseDate         = "choose_date"
	StepPayment            = "payment"
	StepComplete           = "complete"
	StepCancelled          = "cancelled"
	StepMissingInformation = "missing_information"
)

// Placement kinds. Public road placement carries the permit fee.
const (
	PlacementPrivate = "private"
	PlacementPublic  = "public"
)

// Session storage keys. These names are the persisted state layout and must
// stay stable across releases.
const (
	KeySelectedSkip  = "selectedSkip"
	KeyPlacementData = "placementData"
	KeyDeliveryDate  = "deliveryDate"
	KeyWizardStep    = "wizardStep"
)

const (
	// VATRate is the flat VAT applied to the pre-tax skip price.
	VATRate = 0.20

	// PermitFee is the fixed public-road permit surcharge in GBP.
	PermitFee = 84.00

	// DefaultSessionTTLSeconds is how long an idle booking session survives
	// in the state store.
	DefaultSessionTTLSeconds = 24 * 60 * 60

	// DefaultCardProcessingMillis is the simulated card processing delay.
	DefaultCardProcessingMillis = 1500

	// DefaultCatalogCacheSeconds is the listing response cache lifetime.
	DefaultCatalogCacheSeconds = 30 * 60

	// RateLimitRequests is the per-client request budget per window.
	RateLimitRequests = 20

	// RateLimitWindow is the rate limit window in seconds.
	RateLimitWindow = 60
)
