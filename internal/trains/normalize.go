package trains

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"autoclaim/pkg/utcdate"
)

var ErrInvalidTrainNumber = errors.New("invalid train number")

// Region identifies the system a train number was encoded by.
type Region string

const (
	RegionDefault Region = ""
	RegionUK      Region = "UK"
	RegionFR      Region = "FR"
	RegionBE      Region = "BE"
	RegionNL      Region = "NL"
)

// regionPrefixes lists the operator prefixes each regional system may put in
// front of the numeric part.
var regionPrefixes = map[Region][]string{
	RegionDefault: {"EUROSTAR", "EST", "ES"},
	RegionUK:      {"EUROSTAR", "EST", "ES"},
	RegionFR:      {"EUROSTAR", "TGV", "EST", "ES"},
	RegionBE:      {"EUROSTAR", "THA", "EST", "ES"},
	RegionNL:      {"EUROSTAR", "THA", "EST", "ES"},
}

const canonicalLength = 4

// Normalize reconciles regional train-number encodings into one canonical
// 4-digit, zero-padded key. The letter O used in place of the digit 0 is
// corrected. Normalize is idempotent.
func Normalize(raw string, region Region) (string, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTrainNumber)
	}

	prefixes, ok := regionPrefixes[region]
	if !ok {
		prefixes = regionPrefixes[RegionDefault]
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		if rest := strings.TrimLeft(s[len(p):], "#-"); rest != "" && startsNumeric(rest) {
			s = rest
			break
		}
	}
	s = strings.TrimLeft(s, "#-")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'O':
			b.WriteRune('0')
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidTrainNumber, raw)
		}
	}

	digits := b.String()
	if digits == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTrainNumber, raw)
	}
	if len(digits) > canonicalLength {
		trimmed := strings.TrimLeft(digits, "0")
		if len(trimmed) > canonicalLength {
			return "", fmt.Errorf("%w: %q has more than %d digits", ErrInvalidTrainNumber, raw, canonicalLength)
		}
		digits = trimmed
	}
	return strings.Repeat("0", canonicalLength-len(digits)) + digits, nil
}

func startsNumeric(s string) bool {
	r := rune(s[0])
	return unicode.IsDigit(r) || r == 'O'
}

// TripID builds the canonical trip identifier {trainNumber}-{MMDD}. The
// train number must already be normalized.
func TripID(canonicalTrainNumber string, serviceDate time.Time) string {
	return canonicalTrainNumber + "-" + utcdate.MMDD(serviceDate)
}

// TripIDFor normalizes the raw number and builds the trip id in one step.
func TripIDFor(rawTrainNumber string, region Region, serviceDate time.Time) (string, error) {
	n, err := Normalize(rawTrainNumber, region)
	if err != nil {
		return "", err
	}
	return TripID(n, serviceDate), nil
}
