package bookings

import (
	"time"

	"autoclaim/internal/eligibility"
	"autoclaim/internal/extractor"
	"autoclaim/internal/shared/utils/response"
)

type BookingResponse struct {
	ID                  string     `json:"id"`
	PNR                 string     `json:"pnr"`
	TicketControlNumber string     `json:"tcn"`
	TrainNumber         string     `json:"train_number"`
	JourneyDate         string     `json:"journey_date"`
	PassengerName       string     `json:"passenger_name"`
	Origin              string     `json:"origin"`
	Destination         string     `json:"destination"`
	Coach               string     `json:"coach,omitempty"`
	Seat                string     `json:"seat,omitempty"`
	TicketPrice         float64    `json:"ticket_price"`
	TicketCurrency      string     `json:"ticket_currency"`
	Stage               Stage      `json:"stage"`
	TrainID             string     `json:"train_id,omitempty"`
	FinalDelayMinutes   *int       `json:"final_delay_minutes,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	response.Page
}

type ParseBookingResponse struct {
	Parsed  *extractor.ParsedBooking `json:"parsed"`
	Booking *BookingResponse         `json:"booking,omitempty"`
}

// EligibilityResponse is computed on request. Status is nil until the
// journey is complete; the deadline is known from the journey date alone.
type EligibilityResponse struct {
	BookingID         string              `json:"booking_id"`
	Stage             Stage               `json:"stage"`
	JourneyComplete   bool                `json:"journey_complete"`
	Deadline          string              `json:"deadline"`
	DaysUntilDeadline int                 `json:"days_until_deadline"`
	Status            *eligibility.Status `json:"status,omitempty"`
}
