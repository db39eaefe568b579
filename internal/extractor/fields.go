package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"autoclaim/internal/stations"
)

// Candidate is what a strategy found for one field. Raw holds the first
// captured text even when no capture passed the shape check, so callers can
// tell a missing field from a malformed one.
type Candidate struct {
	Value string
	Raw   string
}

func (c Candidate) Missing() bool { return c.Raw == "" && c.Value == "" }
func (c Candidate) Valid() bool   { return c.Value != "" }

// Strategy extracts one field from normalized email text. New confirmation
// templates are supported by adding patterns or swapping a strategy.
type Strategy interface {
	Extract(text string) Candidate
}

// PatternStrategy tries each pattern in order, scanning every match, and
// returns the first capture that cleans to a valid value.
type PatternStrategy struct {
	Patterns []*regexp.Regexp
	Clean    func(string) string
	Shape    *regexp.Regexp
}

func (s PatternStrategy) Extract(text string) Candidate {
	var first string
	for _, re := range s.Patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(lastGroup(m))
			if raw == "" {
				continue
			}
			if first == "" {
				first = raw
			}
			v := raw
			if s.Clean != nil {
				v = s.Clean(v)
			}
			if v == "" {
				continue
			}
			if s.Shape != nil && !s.Shape.MatchString(v) {
				continue
			}
			return Candidate{Value: v, Raw: raw}
		}
	}
	return Candidate{Raw: first}
}

func lastGroup(m []string) string {
	for i := len(m) - 1; i > 0; i-- {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}

var (
	pnrShape   = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	tcnShape   = regexp.MustCompile(`^(?:[A-Z]{2}|\d{2})\d{9}$`)
	trainShape = regexp.MustCompile(`^\d{4}$`)
	nameShape  = regexp.MustCompile(`^\p{L}[\p{L} .'\-]*$`)
	placeShape = regexp.MustCompile(`\p{L}`)
)

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// PNRStrategy reads the 6-character booking reference after its label. There
// is no unlabelled fallback: any 6-letter word would match.
func PNRStrategy() Strategy {
	return PatternStrategy{
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:booking\s*(?:reference|ref\.?)|pnr|confirmation\s*(?:code|number))(?:\s*(?:number|no\.?))?\s*[:#]?\s*([A-Za-z0-9]+)`),
		},
		Clean: upper,
		Shape: pnrShape,
	}
}

// TCNStrategy reads the ticket control number, labelled first and then any
// bare token with the right shape.
func TCNStrategy() Strategy {
	return PatternStrategy{
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:ticket\s*(?:control\s*)?(?:number|no\.?|#)|tcn)\s*[:#]?\s*([A-Za-z0-9]+)`),
			regexp.MustCompile(`\b((?:[A-Z]{2}|\d{2})\d{9})\b`),
		},
		Clean: upper,
		Shape: tcnShape,
	}
}

// TrainNumberStrategy reads the 4-digit service number. The letter O used in
// place of the digit 0 is corrected.
func TrainNumberStrategy() Strategy {
	return PatternStrategy{
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?i:eurostar|train)\s*(?i:number|no\.?|#)?\s*:?\s*([0-9O]{4})\b`),
			regexp.MustCompile(`\b(?:ES|EST)\s*([0-9O]{4})\b`),
		},
		Clean: func(s string) string {
			return strings.ReplaceAll(upper(s), "O", "0")
		},
		Shape: trainShape,
	}
}

var titles = `(?:Mr|Mrs|Ms|Miss|Dr|Mx)`

// PassengerStrategy reads a labelled passenger line, falling back to the
// first honorific followed by capitalized name tokens.
func PassengerStrategy() Strategy {
	return PatternStrategy{
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?im)\bpassenger(?:\s*name)?\s*:\s*([^\n]+)$`),
			regexp.MustCompile(`\b(` + titles + `\.?[ \t]+\p{Lu}[\p{L}'\-]+(?:[ \t]+\p{Lu}[\p{L}'\-]+)*)`),
		},
		Clean: func(s string) string {
			s = strings.Join(strings.Fields(s), " ")
			return strings.TrimRight(s, ",;:")
		},
		Shape: nameShape,
	}
}

var (
	trailingTime = regexp.MustCompile(`(?i)\s*(?:\bat\s+)?\(?\b\d{1,2}[:.h]\d{2}\b.*$`)
	arrowLine    = regexp.MustCompile(`(?m)^\s*([\p{L}][\p{L} .'\-]*?)\s*(?:→|->|=>)\s*([\p{L}][\p{L} .'\-]*?)\s*$`)
)

func cleanStation(s string) string {
	s = trailingTime.ReplaceAllString(s, "")
	s = strings.TrimRight(strings.TrimSpace(s), ",;-")
	return stations.Canonicalize(s)
}

// stationStrategy reads a labelled station line, falling back to one side of
// an "A → B" route line.
type stationStrategy struct {
	labelled PatternStrategy
	side     int
}

func (s stationStrategy) Extract(text string) Candidate {
	c := s.labelled.Extract(text)
	if c.Valid() {
		return c
	}
	for _, m := range arrowLine.FindAllStringSubmatch(text, -1) {
		raw := strings.TrimSpace(m[s.side])
		if v := cleanStation(raw); placeShape.MatchString(v) {
			return Candidate{Value: v, Raw: raw}
		}
	}
	return c
}

func OriginStrategy() Strategy {
	return stationStrategy{
		labelled: PatternStrategy{
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?im)\b(?:depart(?:s|ure|ing)?(?:\s+from)?|origin)(?:\s+station)?\s*:\s*([^\n]+)$`),
			},
			Clean: cleanStation,
			Shape: placeShape,
		},
		side: 1,
	}
}

func DestinationStrategy() Strategy {
	return stationStrategy{
		labelled: PatternStrategy{
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?im)\b(?:arriv(?:es|al|ing)(?:\s+at)?|destination)(?:\s+station)?\s*:\s*([^\n]+)$`),
			},
			Clean: cleanStation,
			Shape: placeShape,
		},
		side: 2,
	}
}

var (
	coachPattern = regexp.MustCompile(`(?i)\bcoach\s*(?:number|no\.?)?\s*:?\s*(\d{1,2})\b`)
	seatPattern  = regexp.MustCompile(`(?i)\bseat\s*(?:number|no\.?)?\s*:?\s*(\d{1,3}[A-Za-z]?)\b`)

	pricePrefix = regexp.MustCompile(`(?i)\b(?:total(?:\s+paid)?|price|fare|amount\s+paid)\s*:?\s*(€|£|EUR|GBP)\s*(\d+(?:[.,]\d{1,2})?)`)
	priceSuffix = regexp.MustCompile(`(?i)\b(?:total(?:\s+paid)?|price|fare|amount\s+paid)\s*:?\s*(\d+(?:[.,]\d{1,2})?)\s*(€|£|EUR|GBP)`)
)

func optionalField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return upper(m[1])
}

// extractPrice returns the ticket price and ISO currency when a total line is
// present. Absence is not an error.
func extractPrice(text string) (*float64, string) {
	var symbol, amount string
	if m := pricePrefix.FindStringSubmatch(text); m != nil {
		symbol, amount = m[1], m[2]
	} else if m := priceSuffix.FindStringSubmatch(text); m != nil {
		amount, symbol = m[1], m[2]
	} else {
		return nil, ""
	}

	v, err := strconv.ParseFloat(strings.Replace(amount, ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return nil, ""
	}

	currency := "EUR"
	switch strings.ToUpper(symbol) {
	case "£", "GBP":
		currency = "GBP"
	}
	return &v, currency
}
