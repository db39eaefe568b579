package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"autoclaim/internal/shared/config"
	"autoclaim/pkg/logger"
)

// EmailService delivers a rendered notification.
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

func NewSMTPConfig(cfg config.EmailConfig) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  "AutoClaim",
		UseTLS:    true,
	}
}

func (c *SMTPConfig) Validate() error {
	if c == nil {
		return errors.New("SMTP config is nil")
	}

	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("SMTP host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("SMTP port must be between 1 and 65535"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("SMTP username is required"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("SMTP password is required"))
	}
	if c.FromEmail == "" {
		errs = append(errs, errors.New("from email is required"))
	}
	return errors.Join(errs...)
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

const (
	claimCreatedHTML = `<h2>You may be owed compensation</h2>
<p>Hi {{.first_name}},</p>
<p>Your train was delayed by {{.delay_minutes}} minutes. You are entitled to <strong>{{.currency}} {{.cash_amount}}</strong> in cash or {{.currency}} {{.voucher_amount}} in vouchers.</p>
{{if eq .status "pending"}}<p>The claim window opens 24 hours after your journey. We will let you know when you can file.</p>{{else}}<p>You can file your claim now at <a href="{{.portal_url}}">{{.portal_url}}</a>.</p>{{end}}
<p>Claims must be filed by <strong>{{.deadline}}</strong>.</p>`
	claimCreatedText = `Hi {{.first_name}},

Your train was delayed by {{.delay_minutes}} minutes. You are entitled to {{.currency}} {{.cash_amount}} in cash or {{.currency}} {{.voucher_amount}} in vouchers.
{{if eq .status "pending"}}The claim window opens 24 hours after your journey.{{else}}File your claim at {{.portal_url}}.{{end}}
Claims must be filed by {{.deadline}}.`

	claimSubmittedHTML = `<h2>Claim submitted</h2>
<p>Hi {{.first_name}},</p>
<p>We recorded your claim for {{.currency}} {{.cash_amount}} as submitted. We will email you when the operator responds.</p>`
	claimSubmittedText = `Hi {{.first_name}},

We recorded your claim for {{.currency}} {{.cash_amount}} as submitted. We will email you when the operator responds.`

	claimStatusHTML = `<h2>Claim update</h2>
<p>Hi {{.first_name}},</p>
<p>Your claim moved from <strong>{{.previous}}</strong> to <strong>{{.status}}</strong>.</p>
{{if eq .status "eligible"}}<p>You can now file it at <a href="{{.portal_url}}">{{.portal_url}}</a> before {{.deadline}}.</p>{{end}}`
	claimStatusText = `Hi {{.first_name}},

Your claim moved from {{.previous}} to {{.status}}.
{{if eq .status "eligible"}}File it at {{.portal_url}} before {{.deadline}}.{{end}}`

	deadlineHTML = `<h2>Your claim deadline is close</h2>
<p>Hi {{.first_name}},</p>
<p>You have {{.days_left}} day(s) left to claim {{.currency}} {{.cash_amount}}. The deadline is <strong>{{.deadline}}</strong>.</p>
<p><a href="{{.portal_url}}">File your claim</a></p>`
	deadlineText = `Hi {{.first_name}},

You have {{.days_left}} day(s) left to claim {{.currency}} {{.cash_amount}}. The deadline is {{.deadline}}.
File your claim at {{.portal_url}}`
)

func mustTemplate(name, html, text string) emailTemplate {
	return emailTemplate{
		html: htmltemplate.Must(htmltemplate.New(name).Option("missingkey=zero").Parse(html)),
		text: texttemplate.Must(texttemplate.New(name).Option("missingkey=zero").Parse(text)),
	}
}

var defaultTemplates = map[NotificationType]emailTemplate{
	NotificationTypeClaimCreated:        mustTemplate("claim_created", claimCreatedHTML, claimCreatedText),
	NotificationTypeClaimSubmitted:      mustTemplate("claim_submitted", claimSubmittedHTML, claimSubmittedText),
	NotificationTypeClaimStatusChanged:  mustTemplate("claim_status", claimStatusHTML, claimStatusText),
	NotificationTypeDeadlineApproaching: mustTemplate("deadline", deadlineHTML, deadlineText),
}

// RenderNotification produces the HTML and plain text bodies.
func RenderNotification(notification *EmailNotification) (string, string, error) {
	tmpl, ok := defaultTemplates[notification.Type]
	if !ok {
		return "", "", fmt.Errorf("no template for notification type %s", notification.Type)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, notification.TemplateData); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, notification.TemplateData); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

type SMTPEmailService struct {
	config *SMTPConfig
	logger *logger.Logger
}

func NewSMTPEmailService(cfg *SMTPConfig, log *logger.Logger) (*SMTPEmailService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &SMTPEmailService{config: cfg, logger: log}, nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody, err := RenderNotification(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}
	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := buildMessage(s.config.FromName, s.config.FromEmail, to, subject, htmlBody, textBody, time.Now())

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoWithContext(ctx, "Email sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage assembles a multipart/alternative message with the text part
// first.
func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string, now time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(now.UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(textBody + "\r\n")
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(htmlBody + "\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogEmailService renders notifications and logs them instead of sending.
// It is used when no SMTP server is configured.
type LogEmailService struct {
	logger *logger.Logger
}

func NewLogEmailService(log *logger.Logger) *LogEmailService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &LogEmailService{logger: log}
}

func (s *LogEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody, err := RenderNotification(notification)
	if err != nil {
		return err
	}
	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

func (s *LogEmailService) SendHTML(ctx context.Context, to, subject, _, textBody string) error {
	s.logger.InfoWithContext(ctx, "Email (not sent, SMTP disabled)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    strings.TrimSpace(textBody),
	})
	return nil
}
