package claims

import (
	"time"

	"github.com/google/uuid"
)

// Claim is the one-per-booking compensation record. It is never deleted;
// Status only moves through the lifecycle table.
type Claim struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	UserID                uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	DelayMinutes          int        `gorm:"not null" json:"delay_minutes"`
	EligibleCashAmount    float64    `gorm:"not null;default:0" json:"eligible_cash_amount"`
	EligibleVoucherAmount float64    `gorm:"not null;default:0" json:"eligible_voucher_amount"`
	Currency              string     `gorm:"type:varchar(3);not null" json:"currency"`
	TierName              string     `gorm:"type:varchar(32)" json:"tier_name,omitempty"`
	Status                Status     `gorm:"type:varchar(20);not null;index;check:status IN ('pending','eligible','submitted','approved','rejected','expired')" json:"status"`
	Deadline              time.Time  `gorm:"type:date;not null;index" json:"deadline"`
	ClaimWindowOpensAt    *time.Time `json:"claim_window_opens_at,omitempty"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName sets the table name for Claim
func (Claim) TableName() string {
	return "claims"
}

// WindowOpen reports whether the claim window has opened at now.
func (c *Claim) WindowOpen(now time.Time) bool {
	return c.ClaimWindowOpensAt != nil && !now.Before(*c.ClaimWindowOpensAt)
}

// PastDeadline reports whether now is after the filing deadline.
func (c *Claim) PastDeadline(now time.Time) bool {
	return now.After(c.Deadline)
}
