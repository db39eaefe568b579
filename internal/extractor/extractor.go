// Package extractor turns a raw booking confirmation email into a validated
// ParsedBooking or a field-identified ParseError. Extraction is pattern based
// and deterministic: the same body always yields the same result.
package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ParsedBooking is the structured result of a successful extraction.
type ParsedBooking struct {
	PNR                 string    `json:"pnr" validate:"required,pnr"`
	TicketControlNumber string    `json:"tcn" validate:"required,tcn"`
	TrainNumber         string    `json:"trainNumber" validate:"required,trainno"`
	JourneyDate         time.Time `json:"journeyDate" validate:"required"`
	PassengerName       string    `json:"passengerName" validate:"required,min=2,max=100"`
	Origin              string    `json:"origin" validate:"required,max=100"`
	Destination         string    `json:"destination" validate:"required,max=100"`
	Coach               string    `json:"coach,omitempty" validate:"omitempty,max=3"`
	Seat                string    `json:"seat,omitempty" validate:"omitempty,max=4"`
	TicketPrice         *float64  `json:"ticketPrice,omitempty" validate:"omitempty,gt=0"`
	TicketCurrency      string    `json:"ticketCurrency,omitempty" validate:"omitempty,oneof=EUR GBP"`
}

// Extractor holds one strategy per field. The zero value is not usable; build
// one with New.
type Extractor struct {
	PNR         Strategy
	TCN         Strategy
	TrainNumber Strategy
	Passenger   Strategy
	Origin      Strategy
	Destination Strategy
	DateFormats []DateFormat

	now      func() time.Time
	validate *validator.Validate
}

type Option func(*Extractor)

// WithClock fixes "now" for the date plausibility check.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New builds an extractor with the default strategies. It fails only when
// the schema validator cannot be set up.
func New(opts ...Option) (*Extractor, error) {
	v, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("build booking validator: %w", err)
	}
	e := &Extractor{
		PNR:         PNRStrategy(),
		TCN:         TCNStrategy(),
		TrainNumber: TrainNumberStrategy(),
		Passenger:   PassengerStrategy(),
		Origin:      OriginStrategy(),
		Destination: DestinationStrategy(),
		DateFormats: DefaultDateFormats,
		now:         time.Now,
		validate:    v,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type requiredField struct {
	name     string
	label    string
	strategy Strategy
	missing  Code
	invalid  Code
	dest     *string
}

// Extract parses body. Fields are checked in a fixed order and the first
// missing or malformed one is reported.
func (e *Extractor) Extract(body string) (*ParsedBooking, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Code: CodeEmptyInput, Message: "email body is empty"}
	}

	text := normalizeText(body)
	b := &ParsedBooking{}

	head := []requiredField{
		{"pnr", "booking reference", e.PNR, CodeMissingPNR, CodeInvalidPNR, &b.PNR},
		{"tcn", "ticket number", e.TCN, CodeMissingTCN, CodeInvalidTCN, &b.TicketControlNumber},
		{"trainNumber", "train number", e.TrainNumber, CodeMissingTrainNumber, CodeInvalidTrainNumber, &b.TrainNumber},
	}
	tail := []requiredField{
		{"passengerName", "passenger name", e.Passenger, CodeMissingPassenger, CodeInvalidPassenger, &b.PassengerName},
		{"origin", "origin station", e.Origin, CodeMissingOrigin, CodeInvalidOrigin, &b.Origin},
		{"destination", "destination station", e.Destination, CodeMissingDestination, CodeInvalidDestination, &b.Destination},
	}

	if err := extractRequired(text, head); err != nil {
		return nil, err
	}

	dr := extractDate(text, e.DateFormats)
	switch {
	case !dr.found:
		return nil, missing(CodeMissingDate, "journeyDate", "journey date")
	case dr.err != nil:
		return nil, invalid(CodeInvalidDate, "journeyDate", "journey date", dr.raw)
	}
	b.JourneyDate = dr.date

	if err := extractRequired(text, tail); err != nil {
		return nil, err
	}

	b.Coach = optionalField(coachPattern, text)
	b.Seat = optionalField(seatPattern, text)
	b.TicketPrice, b.TicketCurrency = extractPrice(text)

	if perr := validateBooking(e.validate, b, e.now()); perr != nil {
		return nil, perr
	}
	return b, nil
}

func extractRequired(text string, fields []requiredField) *ParseError {
	for _, f := range fields {
		c := f.strategy.Extract(text)
		if c.Missing() {
			return missing(f.missing, f.name, f.label)
		}
		if !c.Valid() {
			return invalid(f.invalid, f.name, f.label, c.Raw)
		}
		*f.dest = c.Value
	}
	return nil
}
