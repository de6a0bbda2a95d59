package booking

import (
	"strings"
	"time"
	"unicode"
)

// fakeTimeParser resolves "asap"/"now" to IsAsap and everything else to a
// deterministic absolute instant derived from the input length, so distinct
// phrases never collide. "unparseable" reports OK=false.
type fakeTimeParser struct{}

func (fakeTimeParser) Parse(raw string) ParsedTime {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "unparseable" {
		return ParsedTime{OK: false}
	}
	if trimmed == "asap" || trimmed == "now" {
		return ParsedTime{OK: true, IsAsap: true, Normalized: "ASAP"}
	}
	return ParsedTime{
		OK:          true,
		Normalized:  raw,
		AbsoluteUTC: time.Unix(int64(len(trimmed))*3600, 0).UTC(),
	}
}

// fakeAddressParser treats every address as street-type, and considers a
// house number present only when the raw string starts with a digit.
type fakeAddressParser struct{}

func (fakeAddressParser) Parse(raw string) ParsedAddress {
	trimmed := strings.TrimSpace(raw)
	hasNumber := trimmed != "" && unicode.IsDigit(rune(trimmed[0]))
	return ParsedAddress{
		IsStreetType:   true,
		HasHouseNumber: hasNumber,
	}
}
