package claims

import (
	"time"

	"autoclaim/internal/shared/utils/response"
)

type ClaimResponse struct {
	ID                    string     `json:"id"`
	BookingID             string     `json:"booking_id"`
	Status                Status     `json:"status"`
	DelayMinutes          int        `json:"delay_minutes"`
	EligibleCashAmount    float64    `json:"eligible_cash_amount"`
	EligibleVoucherAmount float64    `json:"eligible_voucher_amount"`
	Currency              string     `json:"currency"`
	TierName              string     `json:"tier_name,omitempty"`
	Deadline              string     `json:"deadline"`
	DaysUntilDeadline     int        `json:"days_until_deadline"`
	ClaimWindowOpensAt    *time.Time `json:"claim_window_opens_at,omitempty"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type ClaimListResponse struct {
	Claims []ClaimResponse `json:"claims"`
	response.Page
}

// ClaimDetailResponse is everything the passenger needs to file by hand.
type ClaimDetailResponse struct {
	Claim          ClaimResponse `json:"claim"`
	FormData       FormData      `json:"formData"`
	FormIssues     []string      `json:"formIssues"`
	PortalURL      string        `json:"portalUrl"`
	CanBeSubmitted bool          `json:"canBeSubmitted"`
}
