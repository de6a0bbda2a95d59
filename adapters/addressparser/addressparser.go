// Package addressparser implements booking.AddressParser with a
// deterministic tokenizer for UK-style spoken addresses. It does no I/O and
// makes no network calls -- geocoding and verification are a separate,
// asynchronous collaborator (package geocoder).
package addressparser

import (
	"regexp"
	"strings"

	"github.com/ridewire/voicebooking/booking"
)

var (
	flatPrefix  = regexp.MustCompile(`(?i)^(flat|apartment|apt|unit)\s*([a-z0-9]+)\b`)
	houseNumber = regexp.MustCompile(`^(\d+[a-z]?)\b`)
	streetWords = []string{
		"street", "st", "road", "rd", "avenue", "ave", "lane", "close",
		"drive", "way", "court", "ct", "place", "square", "gardens",
		"crescent", "terrace", "hill", "grove", "park",
	}
)

// Parse tokenizes raw into its address components. It never returns an
// error -- an address it cannot confidently decompose is reported with
// IsStreetType false and the raw text preserved in StreetName, leaving the
// caller's higher-level logic (the geocoder, or a reprompt) to sort it out.
func Parse(raw string) booking.ParsedAddress {
	trimmed := strings.TrimSpace(raw)
	var out booking.ParsedAddress

	remainder := trimmed
	if m := flatPrefix.FindStringSubmatch(remainder); m != nil {
		out.FlatOrUnit = m[2]
		remainder = strings.TrimSpace(remainder[len(m[0]):])
		remainder = strings.TrimPrefix(remainder, ",")
		remainder = strings.TrimSpace(remainder)
	}

	if m := houseNumber.FindStringSubmatch(remainder); m != nil {
		out.HouseNumber = m[1]
		out.HasHouseNumber = true
		remainder = strings.TrimSpace(remainder[len(m[0]):])
	}

	parts := strings.SplitN(remainder, ",", 2)
	out.StreetName = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		out.TownOrArea = strings.TrimSpace(parts[1])
	}

	out.IsStreetType = isStreetType(out.StreetName)
	return out
}

func isStreetType(street string) bool {
	lower := strings.ToLower(street)
	for _, w := range streetWords {
		if strings.HasSuffix(lower, " "+w) || lower == w {
			return true
		}
	}
	return false
}
