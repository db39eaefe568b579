package claims

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"autoclaim/internal/bookings"
	"autoclaim/internal/stations"
	"autoclaim/pkg/utcdate"
)

// DefaultPortalURL is where passengers file the claim by hand.
const DefaultPortalURL = "https://www.eurostar.com/uk-en/travel-info/service-information/delay-compensation"

// FormData is the claim projected onto the carrier portal's fields. It is
// rebuilt on every request.
type FormData struct {
	FirstName        string  `json:"firstName" validate:"required"`
	LastName         string  `json:"lastName" validate:"required"`
	Email            string  `json:"email" validate:"required,email"`
	BookingReference string  `json:"bookingReference" validate:"required"`
	TicketNumber     string  `json:"ticketNumber" validate:"required"`
	TrainNumber      string  `json:"trainNumber" validate:"required"`
	JourneyDate      string  `json:"journeyDate" validate:"required"`
	DepartureStation string  `json:"departureStation" validate:"required"`
	ArrivalStation   string  `json:"arrivalStation" validate:"required"`
	Coach            string  `json:"coach,omitempty"`
	Seat             string  `json:"seat,omitempty"`
	DelayMinutes     int     `json:"delayMinutes" validate:"gt=0"`
	CashAmount       float64 `json:"cashAmount"`
	VoucherAmount    float64 `json:"voucherAmount"`
	Currency         string  `json:"currency"`
}

// BuildFormData projects a booking and its claim. A nil claim yields zero
// amounts.
func BuildFormData(b *bookings.Booking, c *Claim, contactEmail string) FormData {
	first, last := SplitName(b.PassengerName)

	form := FormData{
		FirstName:        first,
		LastName:         last,
		Email:            strings.TrimSpace(contactEmail),
		BookingReference: b.PNR,
		TicketNumber:     b.TicketControlNumber,
		TrainNumber:      b.TrainNumber,
		JourneyDate:      utcdate.FormatDMY(b.JourneyDate),
		DepartureStation: stations.DisplayName(b.Origin),
		ArrivalStation:   stations.DisplayName(b.Destination),
		Coach:            b.Coach,
		Seat:             b.Seat,
		Currency:         b.TicketCurrency,
	}
	if b.FinalDelayMinutes != nil {
		form.DelayMinutes = *b.FinalDelayMinutes
	}
	if c != nil {
		form.DelayMinutes = c.DelayMinutes
		form.CashAmount = c.EligibleCashAmount
		form.VoucherAmount = c.EligibleVoucherAmount
		form.Currency = c.Currency
	}
	return form
}

// SplitName treats the first token as the first name and everything after
// it as the last name. A leading title counts as a token like any other.
func SplitName(full string) (first, last string) {
	tokens := strings.Fields(full)
	for i, t := range tokens {
		tokens[i] = capitalize(t)
	}

	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	default:
		return tokens[0], strings.Join(tokens[1:], " ")
	}
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateFormData returns every missing or invalid field by its JSON name,
// in declaration order. An empty slice means the form is ready to file.
func ValidateFormData(form FormData) []string {
	issues := []string{}
	err := formValidator.Struct(form)
	if err == nil {
		return issues
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(issues, err.Error())
	}
	for _, fe := range verrs {
		issues = append(issues, fe.Field())
	}
	return issues
}
