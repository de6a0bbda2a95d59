package booking

// RetryCaps configures the per-key retry ceilings recognized by the core
// (spec.md §6's config schema). Zero-value fields fall back to
// DefaultRetryCaps when passed through NewRetryCaps.
type RetryCaps struct {
	MaxPickupRetries        int
	MaxDropoffRetries       int
	MaxPassengersRetries    int
	MaxTimeRetries          int
	MaxConfirmRetries       int
	MaxPickupVerifyRetries  int
	MaxDropoffVerifyRetries int
	MaxAmendMenuRetries     int
}

// DefaultRetryCaps returns the spec.md §4.D default ceilings.
func DefaultRetryCaps() RetryCaps {
	return RetryCaps{
		MaxPickupRetries:        3,
		MaxDropoffRetries:       3,
		MaxPassengersRetries:    2,
		MaxTimeRetries:          2,
		MaxConfirmRetries:       2,
		MaxPickupVerifyRetries:  3,
		MaxDropoffVerifyRetries: 3,
		MaxAmendMenuRetries:     1,
	}
}

// NewRetryCaps fills any zero field in caps with the corresponding default,
// so callers may supply a partially populated config (e.g. parsed from
// package config's YAML loader, which omits fields the operator didn't set).
func NewRetryCaps(caps RetryCaps) RetryCaps {
	d := DefaultRetryCaps()
	if caps.MaxPickupRetries == 0 {
		caps.MaxPickupRetries = d.MaxPickupRetries
	}
	if caps.MaxDropoffRetries == 0 {
		caps.MaxDropoffRetries = d.MaxDropoffRetries
	}
	if caps.MaxPassengersRetries == 0 {
		caps.MaxPassengersRetries = d.MaxPassengersRetries
	}
	if caps.MaxTimeRetries == 0 {
		caps.MaxTimeRetries = d.MaxTimeRetries
	}
	if caps.MaxConfirmRetries == 0 {
		caps.MaxConfirmRetries = d.MaxConfirmRetries
	}
	if caps.MaxPickupVerifyRetries == 0 {
		caps.MaxPickupVerifyRetries = d.MaxPickupVerifyRetries
	}
	if caps.MaxDropoffVerifyRetries == 0 {
		caps.MaxDropoffVerifyRetries = d.MaxDropoffVerifyRetries
	}
	if caps.MaxAmendMenuRetries == 0 {
		caps.MaxAmendMenuRetries = d.MaxAmendMenuRetries
	}
	return caps
}

// capFor returns the configured ceiling for key.
func (c RetryCaps) capFor(key RetryKey) int {
	switch key {
	case RetryPickup:
		return c.MaxPickupRetries
	case RetryDropoff:
		return c.MaxDropoffRetries
	case RetryPassengers:
		return c.MaxPassengersRetries
	case RetryTime:
		return c.MaxTimeRetries
	case RetryConfirm:
		return c.MaxConfirmRetries
	case RetryPickupVerify:
		return c.MaxPickupVerifyRetries
	case RetryDropoffVerify:
		return c.MaxDropoffVerifyRetries
	case RetryAmendMenu:
		return c.MaxAmendMenuRetries
	default:
		return 0
	}
}
