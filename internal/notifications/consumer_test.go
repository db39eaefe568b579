package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

type flakyEmail struct {
	failures int
	calls    int
	to       []string
}

func (f *flakyEmail) SendNotification(ctx context.Context, n *EmailNotification) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp timeout")
	}
	htmlBody, textBody, err := RenderNotification(n)
	if err != nil {
		return err
	}
	return f.SendHTML(ctx, n.RecipientEmail, n.Subject, htmlBody, textBody)
}

func (f *flakyEmail) SendHTML(_ context.Context, to, _, _, _ string) error {
	f.to = append(f.to, to)
	return nil
}

func message(t *testing.T, n *EmailNotification) *sarama.ConsumerMessage {
	t.Helper()
	value, err := n.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	return &sarama.ConsumerMessage{Topic: "claim-notifications", Value: value}
}

func testNotification() *EmailNotification {
	return NewNotificationBuilder().
		WithType(NotificationTypeClaimSubmitted).
		WithRecipient(uuid.New(), "jane@example.com", "Jane Doe").
		WithClaimContext(uuid.New(), uuid.New()).
		WithTemplateData(map[string]interface{}{
			"first_name":  "Jane",
			"currency":    "EUR",
			"cash_amount": "25.00",
		}).
		Build()
}

func testHandler(email EmailService) *ConsumerGroupHandler {
	cfg := DefaultConsumerConfig()
	cfg.RetryBackoffDuration = time.Millisecond
	return NewConsumerGroupHandler(0, email, cfg, nil)
}

func TestProcessMessageRetriesWithBackoff(t *testing.T) {
	email := &flakyEmail{failures: 2}
	n, err := testHandler(email).ProcessMessage(context.Background(), message(t, testNotification()))
	if err != nil {
		t.Fatal(err)
	}
	if email.calls != 3 || n.Status != NotificationStatusSent || n.RetryCount != 2 || n.SentAt == nil {
		t.Fatalf("calls = %d notification = %+v", email.calls, n)
	}
	if len(email.to) != 1 || email.to[0] != "jane@example.com" {
		t.Errorf("delivered to %v", email.to)
	}
}

func TestProcessMessageGivesUp(t *testing.T) {
	email := &flakyEmail{failures: 10}
	notification := testNotification()
	notification.MaxRetries = 1

	n, err := testHandler(email).ProcessMessage(context.Background(), message(t, notification))
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if email.calls != 2 || n.Status != NotificationStatusFailed || n.LastError == nil {
		t.Fatalf("calls = %d notification = %+v", email.calls, n)
	}
}

func TestProcessMessageSkipsExpired(t *testing.T) {
	email := &flakyEmail{}
	past := time.Now().Add(-time.Hour)
	notification := testNotification()
	notification.ExpiresAt = &past

	n, err := testHandler(email).ProcessMessage(context.Background(), message(t, notification))
	if err != nil {
		t.Fatal(err)
	}
	if email.calls != 0 || n.Status != NotificationStatusExpired {
		t.Fatalf("calls = %d status = %s", email.calls, n.Status)
	}
}

func TestProcessMessageRejectsGarbage(t *testing.T) {
	_, err := testHandler(&flakyEmail{}).ProcessMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")})
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildMessageIsMultipart(t *testing.T) {
	now := time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("AutoClaim", "noreply@autoclaim.app", "jane@example.com", "Hello", "<p>hi</p>", "hi", now))

	for _, want := range []string{
		"From: AutoClaim <noreply@autoclaim.app>\r\n",
		"Subject: Hello\r\n",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Type: text/html; charset=UTF-8",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Index(msg, "text/plain") > strings.Index(msg, "text/html") {
		t.Error("text part should precede html part")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	n := testNotification()
	n.TemplateData["first_name"] = "<script>"
	htmlBody, textBody, err := RenderNotification(n)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(htmlBody, "<script>") || !strings.Contains(textBody, "<script>") {
		t.Errorf("html = %s", htmlBody)
	}
}
