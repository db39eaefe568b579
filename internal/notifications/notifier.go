package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/claims"
	"autoclaim/pkg/logger"
	"autoclaim/pkg/utcdate"
)

// RecipientDirectory resolves who a claim's emails go to and whether they
// still want them.
type RecipientDirectory interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (email, firstName, lastName string, err error)
	ClaimEmailsEnabled(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ClaimLookup loads the claim an event refers to for the template.
type ClaimLookup interface {
	GetClaim(ctx context.Context, id uuid.UUID) (*claims.Claim, error)
}

// KafkaNotifier turns claim lifecycle events into queued emails. It is
// registered on the claims event bus.
type KafkaNotifier struct {
	producer  NotificationProducer
	users     RecipientDirectory
	claims    ClaimLookup
	portalURL string
	logger    *logger.Logger
}

func NewKafkaNotifier(producer NotificationProducer, users RecipientDirectory, claimLookup ClaimLookup, portalURL string, log *logger.Logger) *KafkaNotifier {
	if log == nil {
		log = logger.GetDefault()
	}
	if portalURL == "" {
		portalURL = claims.DefaultPortalURL
	}
	return &KafkaNotifier{
		producer:  producer,
		users:     users,
		claims:    claimLookup,
		portalURL: portalURL,
		logger:    log,
	}
}

var _ claims.Observer = (*KafkaNotifier)(nil)

func (n *KafkaNotifier) Notify(ctx context.Context, e claims.Event) error {
	notification, err := n.Build(ctx, e)
	if err != nil {
		return err
	}
	if notification == nil {
		return nil
	}
	return n.producer.PublishNotification(ctx, notification)
}

// Build resolves the recipient and claim details for an event. It returns
// nil for event types that do not send email and for users who opted out.
func (n *KafkaNotifier) Build(ctx context.Context, e claims.Event) (*EmailNotification, error) {
	notType, ok := TypeForEvent(e.Type)
	if !ok {
		return nil, nil
	}

	enabled, err := n.users.ClaimEmailsEnabled(ctx, e.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve preferences for claim %s: %w", e.ClaimID, err)
	}
	if !enabled {
		return nil, nil
	}

	email, firstName, lastName, err := n.users.GetUserByID(ctx, e.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient for claim %s: %w", e.ClaimID, err)
	}

	claim, err := n.claims.GetClaim(ctx, e.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim %s: %w", e.ClaimID, err)
	}

	data := map[string]interface{}{
		"first_name":     firstName,
		"claim_id":       claim.ID.String(),
		"status":         string(e.To),
		"previous":       string(e.From),
		"cash_amount":    fmt.Sprintf("%.2f", claim.EligibleCashAmount),
		"voucher_amount": fmt.Sprintf("%.2f", claim.EligibleVoucherAmount),
		"currency":       claim.Currency,
		"delay_minutes":  claim.DelayMinutes,
		"deadline":       utcdate.FormatDMY(claim.Deadline),
		"days_left":      e.DaysUntilDeadline,
		"portal_url":     n.portalURL,
	}

	builder := NewNotificationBuilder().
		WithType(notType).
		WithRecipient(e.UserID, email, strings.TrimSpace(firstName+" "+lastName)).
		WithClaimContext(e.ClaimID, e.BookingID).
		WithTemplateData(data)

	switch notType {
	case NotificationTypeDeadlineApproaching:
		// A reminder is useless once the deadline day is over.
		expires := utcdate.StartOfDay(claim.Deadline).Add(24 * time.Hour)
		builder.WithExpiration(&expires)
	case NotificationTypeClaimStatusChanged:
		builder.WithSubject(fmt.Sprintf("Your compensation claim is now %s", e.To))
		if e.To == claims.StatusApproved || e.To == claims.StatusRejected {
			builder.WithPriority(NotificationPriorityHigh)
		}
	}

	return builder.Build(), nil
}
