package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/claims"
)

type NotificationType string

const (
	NotificationTypeClaimCreated        NotificationType = "CLAIM_CREATED"
	NotificationTypeClaimSubmitted      NotificationType = "CLAIM_SUBMITTED"
	NotificationTypeClaimStatusChanged  NotificationType = "CLAIM_STATUS_CHANGED"
	NotificationTypeDeadlineApproaching NotificationType = "CLAIM_DEADLINE_APPROACHING"
)

// TypeForEvent maps a claim lifecycle event to the email it triggers.
func TypeForEvent(t claims.EventType) (NotificationType, bool) {
	switch t {
	case claims.EventCreated:
		return NotificationTypeClaimCreated, true
	case claims.EventSubmitted:
		return NotificationTypeClaimSubmitted, true
	case claims.EventStatusChanged:
		return NotificationTypeClaimStatusChanged, true
	case claims.EventDeadlineApproaching:
		return NotificationTypeDeadlineApproaching, true
	default:
		return "", false
	}
}

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "PENDING"
	NotificationStatusQueued   NotificationStatus = "QUEUED"
	NotificationStatusSending  NotificationStatus = "SENDING"
	NotificationStatusSent     NotificationStatus = "SENT"
	NotificationStatusFailed   NotificationStatus = "FAILED"
	NotificationStatusRetrying NotificationStatus = "RETRYING"
	NotificationStatusExpired  NotificationStatus = "EXPIRED"
)

// EmailNotification is the message written to the notification topic.
type EmailNotification struct {
	ID       uuid.UUID            `json:"id"`
	Type     NotificationType     `json:"type"`
	Priority NotificationPriority `json:"priority"`

	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`

	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`

	ClaimID   *uuid.UUID `json:"claim_id,omitempty"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status     NotificationStatus `json:"status"`
	RetryCount int                `json:"retry_count"`
	MaxRetries int                `json:"max_retries"`
	LastError  *string            `json:"last_error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
}

type NotificationBuilder struct {
	notification *EmailNotification
}

func NewNotificationBuilder() *NotificationBuilder {
	now := time.Now().UTC()
	return &NotificationBuilder{
		notification: &EmailNotification{
			ID:           uuid.New(),
			Status:       NotificationStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
			MaxRetries:   3,
			TemplateData: make(map[string]interface{}),
		},
	}
}

func (nb *NotificationBuilder) WithType(notType NotificationType) *NotificationBuilder {
	nb.notification.Type = notType
	nb.notification.Priority = GetDefaultPriority(notType)
	nb.notification.Subject = DefaultSubject(notType)
	return nb
}

func (nb *NotificationBuilder) WithRecipient(userID uuid.UUID, email, name string) *NotificationBuilder {
	nb.notification.RecipientID = userID
	nb.notification.RecipientEmail = email
	nb.notification.RecipientName = name
	return nb
}

func (nb *NotificationBuilder) WithPriority(priority NotificationPriority) *NotificationBuilder {
	nb.notification.Priority = priority
	return nb
}

func (nb *NotificationBuilder) WithSubject(subject string) *NotificationBuilder {
	nb.notification.Subject = subject
	return nb
}

func (nb *NotificationBuilder) WithTemplateData(data map[string]interface{}) *NotificationBuilder {
	nb.notification.TemplateData = data
	return nb
}

func (nb *NotificationBuilder) WithClaimContext(claimID, bookingID uuid.UUID) *NotificationBuilder {
	nb.notification.ClaimID = &claimID
	nb.notification.BookingID = &bookingID
	return nb
}

func (nb *NotificationBuilder) WithExpiration(expiresAt *time.Time) *NotificationBuilder {
	nb.notification.ExpiresAt = expiresAt
	return nb
}

func (nb *NotificationBuilder) Build() *EmailNotification {
	return nb.notification
}

// A reminder about a closing deadline matters more than a receipt.
func GetDefaultPriority(notType NotificationType) NotificationPriority {
	switch notType {
	case NotificationTypeDeadlineApproaching:
		return NotificationPriorityHigh
	case NotificationTypeClaimCreated, NotificationTypeClaimStatusChanged:
		return NotificationPriorityMedium
	default:
		return NotificationPriorityLow
	}
}

func DefaultSubject(notType NotificationType) string {
	switch notType {
	case NotificationTypeClaimCreated:
		return "You may be owed delay compensation"
	case NotificationTypeClaimSubmitted:
		return "Your compensation claim was submitted"
	case NotificationTypeClaimStatusChanged:
		return "Your compensation claim was updated"
	case NotificationTypeDeadlineApproaching:
		return "Your claim deadline is approaching"
	default:
		return "Notification from AutoClaim"
	}
}

func (en *EmailNotification) GetPartitionKey() string {
	return en.RecipientID.String()
}

func (en *EmailNotification) ToJSON() ([]byte, error) {
	return json.Marshal(en)
}

func (en *EmailNotification) IsExpired() bool {
	return en.ExpiresAt != nil && time.Now().After(*en.ExpiresAt)
}

func (en *EmailNotification) ShouldRetry() bool {
	return en.RetryCount < en.MaxRetries &&
		en.Status == NotificationStatusFailed &&
		!en.IsExpired()
}

func (en *EmailNotification) MarkSent() {
	now := time.Now().UTC()
	en.Status = NotificationStatusSent
	en.SentAt = &now
	en.UpdatedAt = now
}

func (en *EmailNotification) MarkFailed(err error) {
	en.Status = NotificationStatusFailed
	en.UpdatedAt = time.Now().UTC()

	errorStr := err.Error()
	en.LastError = &errorStr
}

func (en *EmailNotification) IncrementRetry() {
	en.RetryCount++
	en.UpdatedAt = time.Now().UTC()
	if en.ShouldRetry() {
		en.Status = NotificationStatusRetrying
	} else {
		en.Status = NotificationStatusExpired
	}
}
