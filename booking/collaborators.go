package booking

import "time"

// AddressParser is a pure-function collaborator that tokenizes a raw address
// string into its components. The core uses it only to decide whether a
// street-type pickup is missing a house number (spec.md §4.F); it never
// inspects StreetName/TownOrArea directly itself beyond that one decision.
type AddressParser interface {
	Parse(raw string) ParsedAddress
}

// ParsedAddress is the result of address tokenization.
type ParsedAddress struct {
	HouseNumber      string
	FlatOrUnit       string
	StreetName       string
	TownOrArea       string
	IsStreetType     bool
	HasHouseNumber   bool
}

// TimeParser is a pure-function collaborator that resolves a UK time phrase
// into either "ASAP" or an absolute UTC instant. The core never interprets
// phrases itself; an unparseable phrase is reported as ParsedTime{OK:false}
// and the core treats it as "not provided."
type TimeParser interface {
	Parse(raw string) ParsedTime
}

// ParsedTime is the result of resolving a time phrase. OK is false when the
// phrase could not be parsed at all.
type ParsedTime struct {
	OK         bool
	Normalized string
	IsAsap     bool
	AbsoluteUTC time.Time
}

// Geocoder is an asynchronous collaborator contract: the core never calls
// it directly. Instead the core emits GeocodePickup/GeocodeDropoff actions;
// the outer shell resolves them through an implementation of this interface
// and reports the outcome back as a BackendResult.
type Geocoder interface {
	Geocode(raw string) GeocodeResult
}

// GeocodeResult is the outcome of a geocode lookup. Ambiguous results are
// surfaced as OK=false with a clarification prompt upstream of the core;
// the core only ever sees OK and NormalizedAddress.
type GeocodeResult struct {
	OK                bool
	NormalizedAddress string
	Ambiguous         bool
	Alternatives      []string
}

// Dispatcher is an asynchronous collaborator contract resolved through a
// Dispatch action and a BackendResult{Type: BackendDispatch}.
type Dispatcher interface {
	Dispatch(slots BookingSlots) DispatchResult
}

// DispatchResult is the outcome of submitting a booking to the fleet API.
type DispatchResult struct {
	OK        bool
	BookingID string
	Error     string
}

// Amender is an asynchronous collaborator contract resolved through an
// Amend action and a BackendResult{Type: BackendAmend}.
type Amender interface {
	Amend(bookingID string, slots BookingSlots) AmendResult
}

// AmendResult is the outcome of submitting an amendment to the fleet API.
type AmendResult struct {
	OK    bool
	Error string
}

// HumanTransfer is a fire-and-forget sink invoked by the outer shell when
// the core emits TransferToHuman. The core never calls it directly.
type HumanTransfer interface {
	Transfer(reason string)
}

// HangupSink is a fire-and-forget sink invoked by the outer shell when the
// core emits Hangup. The core never calls it directly.
type HangupSink interface {
	Hangup(text string)
}
