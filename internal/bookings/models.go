package bookings

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/compensation"
	"autoclaim/internal/extractor"
	"autoclaim/pkg/utcdate"
)

// Booking is the persisted counterpart of a parsed confirmation email. After
// creation it is only mutated by the sweep: linking a train and recording
// the final delay.
type Booking struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_user_pnr" json:"user_id"`
	PNR                 string     `gorm:"type:varchar(6);not null;uniqueIndex:idx_bookings_user_pnr" json:"pnr"`
	TicketControlNumber string     `gorm:"type:varchar(11);not null" json:"tcn"`
	TrainNumber         string     `gorm:"type:varchar(4);not null" json:"train_number"`
	JourneyDate         time.Time  `gorm:"type:date;not null;index" json:"journey_date"`
	PassengerName       string     `gorm:"not null" json:"passenger_name"`
	Origin              string     `gorm:"not null" json:"origin"`
	Destination         string     `gorm:"not null" json:"destination"`
	Coach               string     `gorm:"type:varchar(4)" json:"coach,omitempty"`
	Seat                string     `gorm:"type:varchar(4)" json:"seat,omitempty"`
	TicketPrice         float64    `gorm:"not null" json:"ticket_price"`
	TicketCurrency      string     `gorm:"type:varchar(3);not null;default:'EUR'" json:"ticket_currency"`
	TrainID             *uuid.UUID `gorm:"type:uuid;index" json:"train_id,omitempty"`
	FinalDelayMinutes   *int       `json:"final_delay_minutes,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	EvaluatedAt         *time.Time `gorm:"index" json:"evaluated_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// NewFromParsed builds an unsaved booking. defaultPrice is used when the
// email carried no ticket price.
func NewFromParsed(userID uuid.UUID, p *extractor.ParsedBooking, defaultPrice float64) *Booking {
	price := defaultPrice
	if p.TicketPrice != nil {
		price = *p.TicketPrice
	}
	currency := strings.ToUpper(p.TicketCurrency)
	if currency == "" {
		currency = string(compensation.BaseCurrency)
	}

	return &Booking{
		UserID:              userID,
		PNR:                 p.PNR,
		TicketControlNumber: p.TicketControlNumber,
		TrainNumber:         p.TrainNumber,
		JourneyDate:         utcdate.StartOfDay(p.JourneyDate),
		PassengerName:       p.PassengerName,
		Origin:              p.Origin,
		Destination:         p.Destination,
		Coach:               p.Coach,
		Seat:                p.Seat,
		TicketPrice:         price,
		TicketCurrency:      currency,
	}
}

// Currency returns the ticket currency, falling back to the base currency
// for rows written before the column existed.
func (b *Booking) Currency() compensation.Currency {
	c, err := compensation.ParseCurrency(b.TicketCurrency)
	if err != nil {
		return compensation.BaseCurrency
	}
	return c
}

func (b *Booking) IsLinked() bool {
	return b.TrainID != nil
}

func (b *Booking) IsComplete() bool {
	return b.FinalDelayMinutes != nil && b.CompletedAt != nil
}

func (b *Booking) IsEvaluated() bool {
	return b.EvaluatedAt != nil
}

// Stage reports where the booking sits in the sweep.
func (b *Booking) Stage() Stage {
	switch {
	case b.IsEvaluated():
		return StageEvaluated
	case b.IsComplete():
		return StageCompleted
	case b.IsLinked():
		return StageLinked
	default:
		return StageAwaitingTrain
	}
}
