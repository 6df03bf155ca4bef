package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"eventix/internal/shared/config"
	"eventix/pkg/logger"
)

// EmailService delivers a rendered notification
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
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

func SMTPConfigFrom(cfg config.EmailConfig) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		UseTLS:    true,
	}
}

func (c *SMTPConfig) validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("SMTP config is nil")
	case c.Host == "":
		return fmt.Errorf("SMTP host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	case c.FromEmail == "":
		return fmt.Errorf("from email is required")
	}
	return nil
}

type emailTemplate struct {
	html *template.Template
	text *texttemplate.Template
}

var emailTemplates = map[NotificationType]emailTemplate{
	NotificationTypeBookingConfirmed: {
		html: template.Must(template.New("confirmed").Parse(`<h2>Booking confirmed</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your booking for <strong>{{index .Data "event_title"}}</strong> is confirmed.</p>
<p>Reference: <strong>{{index .Data "booking_reference"}}</strong><br>
Tickets: {{index .Data "ticket_quantity"}}<br>
Date: {{index .Data "event_date"}} {{index .Data "event_start_time"}}<br>
Venue: {{index .Data "venue_name"}}, {{index .Data "venue_city"}}</p>
<p>The Eventix team</p>`)),
		text: texttemplate.Must(texttemplate.New("confirmed").Parse(`Hi {{.RecipientName}},

Your booking for {{index .Data "event_title"}} is confirmed.
Reference: {{index .Data "booking_reference"}}
Tickets: {{index .Data "ticket_quantity"}}
Date: {{index .Data "event_date"}} {{index .Data "event_start_time"}}
Venue: {{index .Data "venue_name"}}, {{index .Data "venue_city"}}

The Eventix team`)),
	},
	NotificationTypeBookingCancelled: {
		html: template.Must(template.New("cancelled").Parse(`<h2>Booking cancelled</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your booking <strong>{{index .Data "booking_reference"}}</strong> for {{index .Data "event_title"}} has been cancelled.</p>
<p>Refund: {{index .Data "refund_amount"}}</p>
<p>The Eventix team</p>`)),
		text: texttemplate.Must(texttemplate.New("cancelled").Parse(`Hi {{.RecipientName}},

Your booking {{index .Data "booking_reference"}} for {{index .Data "event_title"}} has been cancelled.
Refund: {{index .Data "refund_amount"}}

The Eventix team`)),
	},
	NotificationTypeBookingCheckedIn: {
		html: template.Must(template.New("checkedin").Parse(`<h2>You are checked in</h2>
<p>Hi {{.RecipientName}}, enjoy {{index .Data "event_title"}}!</p>`)),
		text: texttemplate.Must(texttemplate.New("checkedin").Parse(`Hi {{.RecipientName}}, enjoy {{index .Data "event_title"}}!`)),
	},
	NotificationTypePaymentFailed: {
		html: template.Must(template.New("paymentfailed").Parse(`<h2>Payment failed</h2>
<p>Hi {{.RecipientName}},</p>
<p>We could not process your payment for {{index .Data "ticket_quantity"}} ticket(s). No booking was made and you have not been charged.</p>
<p>The Eventix team</p>`)),
		text: texttemplate.Must(texttemplate.New("paymentfailed").Parse(`Hi {{.RecipientName}},

We could not process your payment for {{index .Data "ticket_quantity"}} ticket(s). No booking was made and you have not been charged.

The Eventix team`)),
	},
}

type templateView struct {
	RecipientName string
	Data          map[string]interface{}
}

// renderContent returns the html and plain text bodies for a notification
func renderContent(notification *EmailNotification) (string, string, error) {
	tmpl, ok := emailTemplates[notification.Type]
	if !ok {
		return "", "", fmt.Errorf("no email template for notification type %s", notification.Type)
	}

	view := templateView{RecipientName: notification.RecipientName, Data: notification.TemplateData}
	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, view); err != nil {
		return "", "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, view); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// SMTPEmailService sends notifications through an SMTP relay
type SMTPEmailService struct {
	config *SMTPConfig
	log    *logger.Logger
}

func NewSMTPEmailService(cfg *SMTPConfig) (*SMTPEmailService, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPEmailService{config: cfg, log: logger.GetDefault()}, nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody, err := renderContent(notification)
	if err != nil {
		return err
	}

	message := buildMessage(s.config.FromName, s.config.FromEmail, notification.RecipientEmail, notification.Subject, htmlBody, textBody, time.Now())

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}
	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, notification.RecipientEmail, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{notification.RecipientEmail}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.InfoContext(ctx, "email sent", "type", string(notification.Type), "notification_id", notification.ID.String())
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

// buildMessage assembles a multipart/alternative message with stable header order
func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string, now time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(now.UnixNano(), 10)
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", fromName, fromEmail),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Date":         now.Format(time.RFC1123Z),
		"Content-Type": "multipart/alternative; boundary=" + boundary,
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogEmailService renders notifications and logs them instead of sending; for development
type LogEmailService struct {
	log *logger.Logger
}

func NewLogEmailService() *LogEmailService {
	return &LogEmailService{log: logger.GetDefault()}
}

func (s *LogEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	_, textBody, err := renderContent(notification)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email (not sent)",
		"type", string(notification.Type),
		"subject", notification.Subject,
		"body", textBody,
	)
	return nil
}
