package trains

import (
	"time"

	"github.com/google/uuid"
)

// Train is one real-world scheduled run, produced by the feed ingestion and
// read-only to the claim pipeline.
type Train struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TripID             string     `gorm:"type:varchar(16);not null;uniqueIndex:idx_trains_trip_service_date" json:"trip_id"`
	ServiceDate        time.Time  `gorm:"type:date;not null;uniqueIndex:idx_trains_trip_service_date" json:"service_date"`
	TrainNumber        string     `gorm:"type:varchar(4);not null;index" json:"train_number"`
	Region             string     `gorm:"type:varchar(4)" json:"region,omitempty"`
	OriginCode         string     `gorm:"type:varchar(8)" json:"origin_code,omitempty"`
	DestinationCode    string     `gorm:"type:varchar(8)" json:"destination_code,omitempty"`
	ScheduledDeparture time.Time  `gorm:"not null" json:"scheduled_departure"`
	ScheduledArrival   time.Time  `gorm:"not null" json:"scheduled_arrival"`
	ActualDeparture    *time.Time `json:"actual_departure,omitempty"`
	ActualArrival      *time.Time `json:"actual_arrival,omitempty"`
	DelayMinutes       int        `gorm:"not null;default:0" json:"delay_minutes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName sets the table name for Train
func (Train) TableName() string {
	return "trains"
}

// HasArrived reports whether the feed has produced an actual arrival time.
func (t *Train) HasArrived() bool {
	return t.ActualArrival != nil
}

// FeedRecord is the wire shape of one train run from the real-time feed.
type FeedRecord struct {
	TrainNumber        string     `json:"train_number"`
	Region             string     `json:"region,omitempty"`
	ServiceDate        string     `json:"service_date"`
	OriginCode         string     `json:"origin_code,omitempty"`
	DestinationCode    string     `json:"destination_code,omitempty"`
	ScheduledDeparture time.Time  `json:"scheduled_departure"`
	ScheduledArrival   time.Time  `json:"scheduled_arrival"`
	ActualDeparture    *time.Time `json:"actual_departure,omitempty"`
	ActualArrival      *time.Time `json:"actual_arrival,omitempty"`
}
