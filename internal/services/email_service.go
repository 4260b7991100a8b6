package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/utils"

	"github.com/wneessen/go-mail"
)

// SMTPConfig is the effective mail configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	FromName string
	ReplyTo  string
}

func (c SMTPConfig) complete() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// EmailService sends booking mails over SMTP.
type EmailService struct {
	Config    *SettingsStore
	RequestID string
	// Send delivers msg; nil means dial the configured SMTP server.
	Send func(ctx context.Context, cfg SMTPConfig, msg *mail.Msg) error
	Now  func() time.Time
}

func (s EmailService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

func (s EmailService) Enabled() bool {
	return s.settings().Bool("EMAIL_ENABLED")
}

func (s EmailService) SMTP() SMTPConfig {
	cfg := s.settings()
	return SMTPConfig{
		Host:     cfg.Get("SMTP_HOST"),
		Port:     cfg.Int("SMTP_PORT", 587),
		Username: cfg.Get("SMTP_USERNAME"),
		Password: cfg.Get("SMTP_PASSWORD"),
		UseTLS:   cfg.Bool("SMTP_USE_TLS"),
		From:     utils.FirstNonEmpty(cfg.Get("FROM_EMAIL"), cfg.Get("SMTP_USERNAME")),
		FromName: utils.FirstNonEmpty(cfg.Get("FROM_NAME"), cfg.Get("AGENCY_NAME")),
		ReplyTo:  cfg.Get("REPLY_TO_EMAIL"),
	}
}

func (s EmailService) ready() (SMTPConfig, error) {
	if !s.Enabled() {
		return SMTPConfig{}, domain.DisabledError{Feature: "Email service"}
	}
	cfg := s.SMTP()
	if !cfg.complete() {
		return SMTPConfig{}, domain.ValidationError{Field: "smtp", Msg: "Incomplete SMTP configuration"}
	}
	return cfg, nil
}

// Attachment is a file attached under Name (the base name of Path when empty).
type Attachment struct {
	Path string
	Name string
}

// NewMessage builds a plain-text message. Missing attachment files are skipped.
func NewMessage(cfg SMTPConfig, to []string, subject, body string, attachments ...Attachment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.FromName, cfg.From); err != nil {
		return nil, domain.Invalid("from", "Invalid sender address %s", cfg.From)
	}
	if err := msg.To(to...); err != nil {
		return nil, domain.Invalid("email", "Please enter a valid email address")
	}
	if cfg.ReplyTo != "" {
		if err := msg.ReplyTo(cfg.ReplyTo); err != nil {
			return nil, domain.Invalid("reply_to", "Invalid reply-to address %s", cfg.ReplyTo)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	for _, a := range attachments {
		if a.Path == "" {
			continue
		}
		if _, err := os.Stat(a.Path); err != nil {
			utils.LogWarn("", "email", "attach", fmt.Sprintf("missing attachment %s", a.Path))
			continue
		}
		msg.AttachFile(a.Path, mail.WithFileName(utils.FirstNonEmpty(a.Name, filepath.Base(a.Path))))
	}
	return msg, nil
}

func dialAndSend(ctx context.Context, cfg SMTPConfig, msg *mail.Msg) error {
	policy := mail.TLSMandatory
	if !cfg.UseTLS {
		policy = mail.TLSOpportunistic
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (s EmailService) deliver(ctx context.Context, cfg SMTPConfig, msg *mail.Msg) error {
	send := s.Send
	if send == nil {
		send = dialAndSend
	}
	if err := send(ctx, cfg, msg); err != nil {
		return domain.UpstreamError{Service: "smtp", Err: err}
	}
	return nil
}

func (s EmailService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BookingEmailBody is the confirmation text sent to the customer.
func BookingEmailBody(b models.Booking, biz BusinessInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\n", utils.FirstNonEmpty(b.Name, "Customer"))
	fmt.Fprintf(&sb, "Thank you for choosing %s! Your booking has been confirmed.\n\n", biz.Name)
	sb.WriteString("Booking Details:\n")
	fmt.Fprintf(&sb, "- Booking ID: #%s\n", utils.FormatBookingID(b.ID))
	fmt.Fprintf(&sb, "- Service Type: %s\n", b.BookingType)
	if b.IsGroupBooking {
		fmt.Fprintf(&sb, "- Travellers: %d\n", len(b.Customers))
	}
	fmt.Fprintf(&sb, "- Total Amount: %s\n", utils.FormatRupee(b.Total))
	fmt.Fprintf(&sb, "- Date: %s\n\n", b.Date)
	sb.WriteString("A detailed invoice is attached to this email.\n\n")
	if biz.Email != "" {
		fmt.Fprintf(&sb, "For any queries, please contact us at %s.\n\n", biz.Email)
	}
	fmt.Fprintf(&sb, "Best regards,\n%s Team\n", biz.Name)
	return sb.String()
}

// SendBookingConfirmation mails the confirmation for b to to (or the booking
// email when to is empty) with the invoice at pdfPath attached.
func (s EmailService) SendBookingConfirmation(ctx context.Context, b models.Booking, to, pdfPath string) error {
	cfg, err := s.ready()
	if err != nil {
		return err
	}
	to = utils.FirstNonEmpty(to, b.Email)
	if to == "" {
		return domain.Invalid("email", "No email address available for this booking")
	}
	if !IsValidEmail(to) {
		return domain.Invalid("email", "Please enter a valid email address")
	}

	subject := fmt.Sprintf("Booking Confirmation - %s", utils.FirstNonEmpty(b.BookingType, "Travel Service"))
	msg, err := NewMessage(cfg, []string{to}, subject, BookingEmailBody(b, s.settings().Business()),
		Attachment{Path: pdfPath, Name: InvoiceFilename(b.ID)})
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, cfg, msg); err != nil {
		utils.LogWarn(s.RequestID, "email", "send_booking", fmt.Sprintf("booking_id=%d err=%v", b.ID, err))
		return err
	}
	utils.LogEvent(s.RequestID, "email", "send_booking", fmt.Sprintf("booking_id=%d to=%s", b.ID, to))
	return nil
}

// SendTestEmail checks the SMTP settings by mailing to.
func (s EmailService) SendTestEmail(ctx context.Context, to string) error {
	cfg, err := s.ready()
	if err != nil {
		return err
	}
	if !IsValidEmail(to) {
		return domain.Invalid("email", "Please enter a valid email address")
	}
	agency := s.settings().Get("AGENCY_NAME")
	body := fmt.Sprintf(`This is a test email from %s booking system.

If you received this email, your email configuration is working correctly!

Configuration Details:
- SMTP Server: %s
- SMTP Port: %d
- Username: %s

Test sent at: %s
`, agency, cfg.Host, cfg.Port, cfg.Username, utils.FormatDateTime(s.now()))

	msg, err := NewMessage(cfg, []string{to}, "Test Email from "+agency, body)
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, cfg, msg); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "email", "send_test", "to="+to)
	return nil
}
