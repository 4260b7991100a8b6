package services

import (
	"context"
	"fmt"
	"strings"

	"travelbooking/internal/domain/models"
	"travelbooking/internal/utils"
)

// NotifyService sends booking notifications. Failures are returned or
// logged; they never touch the stored booking.
type NotifyService struct {
	Config    *SettingsStore
	Docs      DocsService
	Email     EmailService
	WhatsApp  WhatsAppService
	RequestID string
}

func (s NotifyService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

func (s NotifyService) email() EmailService {
	e := s.Email
	if e.Config == nil {
		e.Config = s.Config
	}
	if e.RequestID == "" {
		e.RequestID = s.RequestID
	}
	return e
}

func (s NotifyService) whatsapp() WhatsAppService {
	w := s.WhatsApp
	if w.Config == nil {
		w.Config = s.Config
	}
	if w.RequestID == "" {
		w.RequestID = s.RequestID
	}
	return w
}

func (s NotifyService) docs() DocsService {
	d := s.Docs
	if d.Config == nil {
		d.Config = s.Config
	}
	if d.RequestID == "" {
		d.RequestID = s.RequestID
	}
	return d
}

// AutoReport summarizes the notifications sent after a booking was created.
type AutoReport struct {
	EmailSent    bool   `json:"email_sent"`
	EmailError   string `json:"email_error,omitempty"`
	WhatsAppSent int    `json:"whatsapp_sent"`
	WhatsAppErr  string `json:"whatsapp_error,omitempty"`
}

// OnBookingCreated runs the auto-send rules for a freshly created booking.
func (s NotifyService) OnBookingCreated(ctx context.Context, b models.Booking, pdfPath string) AutoReport {
	cfg := s.settings()
	var rep AutoReport

	if cfg.Bool("EMAIL_ENABLED") && cfg.Bool("EMAIL_SEND_ON_BOOKING") && b.Email != "" {
		if err := s.email().SendBookingConfirmation(ctx, b, "", pdfPath); err != nil {
			rep.EmailError = err.Error()
		} else {
			rep.EmailSent = true
		}
	}

	if cfg.Bool("WHATSAPP_ENABLED") && cfg.Bool("WHATSAPP_SEND_ON_BOOKING") {
		recipients := Recipients(b, cfg.Bool("WHATSAPP_SEND_TO_GROUP_CUSTOMERS"), "")
		if len(recipients) > 0 {
			out, err := s.whatsapp().SendBookingConfirmation(ctx, b, recipients, pdfPath)
			for _, d := range out {
				if d.Success {
					rep.WhatsAppSent++
				}
			}
			if err != nil {
				rep.WhatsAppErr = err.Error()
			}
		}
	}

	if rep.EmailError != "" || rep.WhatsAppErr != "" {
		utils.LogWarn(s.RequestID, "notify", "auto_send",
			fmt.Sprintf("booking_id=%d email_err=%q whatsapp_err=%q", b.ID, rep.EmailError, rep.WhatsAppErr))
	}
	return rep
}

// WhatsAppResult is returned by SendBookingWhatsApp.
type WhatsAppResult struct {
	Message    string     `json:"message"`
	Deliveries []Delivery `json:"deliveries,omitempty"`
}

// SendBookingWhatsApp sends the confirmation with the regenerated invoice,
// or customMessage as branded text when it is set.
func (s NotifyService) SendBookingWhatsApp(ctx context.Context, id int64, phone, customMessage string) (WhatsAppResult, error) {
	wa := s.whatsapp()
	if strings.TrimSpace(customMessage) != "" {
		b, err := s.load(ctx, id)
		if err != nil {
			return WhatsAppResult{}, err
		}
		receipt, err := wa.SendCustom(ctx, utils.FirstNonEmpty(phone, b.Phone), customMessage)
		if err != nil {
			return WhatsAppResult{}, err
		}
		return WhatsAppResult{Message: receipt}, nil
	}

	b, path, err := s.docs().GenerateInvoiceByID(ctx, id)
	if err != nil {
		return WhatsAppResult{}, err
	}
	recipients := Recipients(b, s.settings().Bool("WHATSAPP_SEND_TO_GROUP_CUSTOMERS"), phone)
	out, err := wa.SendBookingConfirmation(ctx, b, recipients, path)
	if err != nil {
		return WhatsAppResult{Deliveries: out}, err
	}
	sent := 0
	for _, d := range out {
		if d.Success {
			sent++
		}
	}
	return WhatsAppResult{
		Message:    fmt.Sprintf("WhatsApp confirmation sent to %d recipient(s)", sent),
		Deliveries: out,
	}, nil
}

// SendBookingEmail mails the confirmation with the regenerated invoice.
func (s NotifyService) SendBookingEmail(ctx context.Context, id int64, email string) (string, error) {
	b, path, err := s.docs().GenerateInvoiceByID(ctx, id)
	if err != nil {
		return "", err
	}
	to := utils.FirstNonEmpty(email, b.Email)
	if err := s.email().SendBookingConfirmation(ctx, b, to, path); err != nil {
		return "", err
	}
	return "Booking confirmation email sent to " + to, nil
}

func (s NotifyService) load(ctx context.Context, id int64) (models.Booking, error) {
	d := s.docs()
	if d.Loader != nil {
		return d.Loader(ctx, id)
	}
	return d.Repo.GetByID(ctx, id)
}
