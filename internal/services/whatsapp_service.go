package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/utils"

	"github.com/tidwall/gjson"
)

// WhatsAppProvider delivers messages through one WhatsApp gateway. Both
// methods return a short provider receipt (message id or note).
type WhatsAppProvider interface {
	Name() string
	SendMessage(ctx context.Context, phone, message string) (string, error)
	SendDocument(ctx context.Context, phone, message, filePath, filename string) (string, error)
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// whatsappNumber strips separators and prefixes the country code to bare
// 10 digit numbers.
func whatsappNumber(phone, countryCode string) string {
	d := utils.DigitsOnly(phone)
	if countryCode != "" && len(d) == 10 && !strings.HasPrefix(d, countryCode) {
		d = countryCode + d
	}
	return d
}

// MockWhatsApp only logs. It is the fallback when no provider is configured.
type MockWhatsApp struct{}

func (MockWhatsApp) Name() string { return "mock" }

func (MockWhatsApp) SendMessage(_ context.Context, phone, message string) (string, error) {
	utils.LogEvent("", "whatsapp", "mock_send", fmt.Sprintf("to=%s chars=%d", phone, len(message)))
	return "Mock WhatsApp message sent successfully", nil
}

func (MockWhatsApp) SendDocument(_ context.Context, phone, message, filePath, filename string) (string, error) {
	if filename == "" {
		filename = filepath.Base(filePath)
	}
	utils.LogEvent("", "whatsapp", "mock_send_document", fmt.Sprintf("to=%s file=%s", phone, filename))
	return fmt.Sprintf("Mock WhatsApp message with attachment '%s' sent successfully", filename), nil
}

func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// TwilioWhatsApp posts to the Twilio Messages API. Twilio needs a public
// media URL for documents, so documents go out as text naming the invoice.
type TwilioWhatsApp struct {
	AccountSID  string
	AuthToken   string
	From        string
	CountryCode string
	BaseURL     string
	Client      *http.Client
}

func (TwilioWhatsApp) Name() string { return "twilio" }

func (p TwilioWhatsApp) endpoint() string {
	base := p.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(base, "/"), p.AccountSID)
}

func (p TwilioWhatsApp) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return defaultHTTPClient
}

func (p TwilioWhatsApp) SendMessage(ctx context.Context, phone, message string) (string, error) {
	form := url.Values{}
	form.Set("To", "whatsapp:+"+whatsappNumber(phone, p.CountryCode))
	form.Set("From", "whatsapp:+"+utils.DigitsOnly(p.From))
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.AccountSID, p.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return "", err
	}
	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}
	sid := gjson.GetBytes(body, "sid").String()
	if resp.StatusCode >= 300 || sid == "" {
		return "", fmt.Errorf("twilio: %s", utils.FirstNonEmpty(gjson.GetBytes(body, "message").String(), resp.Status))
	}
	return "Message sent successfully via Twilio WhatsApp, SID: " + sid, nil
}

func (p TwilioWhatsApp) SendDocument(ctx context.Context, phone, message, filePath, filename string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("file not found: %s", filePath)
	}
	if filename == "" {
		filename = filepath.Base(filePath)
	}
	return p.SendMessage(ctx, phone, message+"\n\nInvoice: "+filename)
}

// BusinessAPIWhatsApp uses the Meta Graph API: documents are uploaded as
// media first and then sent by id.
type BusinessAPIWhatsApp struct {
	Token         string
	PhoneNumberID string
	CountryCode   string
	BaseURL       string
	Client        *http.Client
}

func (BusinessAPIWhatsApp) Name() string { return "business_api" }

func (p BusinessAPIWhatsApp) url(path string) string {
	base := p.BaseURL
	if base == "" {
		base = "https://graph.facebook.com/v18.0"
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), p.PhoneNumberID, path)
}

func (p BusinessAPIWhatsApp) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return defaultHTTPClient
}

func (p BusinessAPIWhatsApp) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+p.Token)
	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whatsapp business api: %s",
			utils.FirstNonEmpty(gjson.GetBytes(body, "error.message").String(), resp.Status))
	}
	return body, nil
}

func (p BusinessAPIWhatsApp) postMessage(ctx context.Context, payload map[string]any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("messages"), bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := p.do(req)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "messages.0.id").String()
	if id == "" {
		return "", errors.New("whatsapp business api: response carried no message id")
	}
	return id, nil
}

func (p BusinessAPIWhatsApp) SendMessage(ctx context.Context, phone, message string) (string, error) {
	id, err := p.postMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                whatsappNumber(phone, p.CountryCode),
		"type":              "text",
		"text":              map[string]string{"body": message},
	})
	if err != nil {
		return "", err
	}
	return "Message sent successfully via WhatsApp Business API, ID: " + id, nil
}

func (p BusinessAPIWhatsApp) upload(ctx context.Context, filePath, filename string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("file not found: %s", filePath)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("messaging_product", "whatsapp")
	_ = w.WriteField("type", "document")
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("media"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	body, err := p.do(req)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", errors.New("whatsapp business api: media upload failed")
	}
	return id, nil
}

func (p BusinessAPIWhatsApp) SendDocument(ctx context.Context, phone, message, filePath, filename string) (string, error) {
	if filename == "" {
		filename = filepath.Base(filePath)
	}
	mediaID, err := p.upload(ctx, filePath, filename)
	if err != nil {
		return "", err
	}
	id, err := p.postMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                whatsappNumber(phone, p.CountryCode),
		"type":              "document",
		"document":          map[string]string{"id": mediaID, "caption": message, "filename": filename},
	})
	if err != nil {
		return "", err
	}
	return "Document sent successfully via WhatsApp Business API, ID: " + id, nil
}

// GreenAPIWhatsApp talks to green-api.com instances.
type GreenAPIWhatsApp struct {
	InstanceID  string
	Token       string
	CountryCode string
	BaseURL     string
	Client      *http.Client
}

func (GreenAPIWhatsApp) Name() string { return "green_api" }

func (p GreenAPIWhatsApp) url(method string) string {
	base := p.BaseURL
	if base == "" {
		base = "https://api.green-api.com"
	}
	return fmt.Sprintf("%s/waInstance%s/%s/%s", strings.TrimRight(base, "/"), p.InstanceID, method, p.Token)
}

func (p GreenAPIWhatsApp) chatID(phone string) string {
	return whatsappNumber(phone, p.CountryCode) + "@c.us"
}

func (p GreenAPIWhatsApp) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return defaultHTTPClient
}

func (p GreenAPIWhatsApp) send(req *http.Request) (string, error) {
	resp, err := p.client().Do(req)
	if err != nil {
		return "", err
	}
	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "idMessage").String()
	if resp.StatusCode >= 300 || id == "" {
		return "", fmt.Errorf("green api: %s", utils.FirstNonEmpty(gjson.GetBytes(body, "message").String(), resp.Status))
	}
	return id, nil
}

func (p GreenAPIWhatsApp) SendMessage(ctx context.Context, phone, message string) (string, error) {
	raw, _ := json.Marshal(map[string]string{"chatId": p.chatID(phone), "message": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("sendMessage"), bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	id, err := p.send(req)
	if err != nil {
		return "", err
	}
	return "Message sent successfully via Green API, ID: " + id, nil
}

func (p GreenAPIWhatsApp) SendDocument(ctx context.Context, phone, message, filePath, filename string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("file not found: %s", filePath)
	}
	defer f.Close()
	if filename == "" {
		filename = filepath.Base(filePath)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("chatId", p.chatID(phone))
	_ = w.WriteField("fileName", filename)
	_ = w.WriteField("caption", message)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url("sendFileByUpload"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	id, err := p.send(req)
	if err != nil {
		return "", err
	}
	return "Document sent successfully via Green API, ID: " + id, nil
}

// NewWhatsAppProvider builds the provider named by WHATSAPP_PROVIDER. A
// provider with missing credentials degrades to MockWhatsApp.
func NewWhatsAppProvider(cfg *SettingsStore) WhatsAppProvider {
	cc := cfg.Get("WHATSAPP_DEFAULT_COUNTRY_CODE")
	name := strings.ToLower(cfg.Get("WHATSAPP_PROVIDER"))
	switch name {
	case "twilio":
		p := TwilioWhatsApp{
			AccountSID:  cfg.Get("TWILIO_ACCOUNT_SID"),
			AuthToken:   cfg.Get("TWILIO_AUTH_TOKEN"),
			From:        cfg.Get("TWILIO_WHATSAPP_NUMBER"),
			CountryCode: cc,
		}
		if p.AccountSID != "" && p.AuthToken != "" && p.From != "" {
			return p
		}
	case "business_api":
		p := BusinessAPIWhatsApp{
			Token:         cfg.Get("WHATSAPP_TOKEN"),
			PhoneNumberID: cfg.Get("WHATSAPP_PHONE_NUMBER_ID"),
			CountryCode:   cc,
		}
		if p.Token != "" && p.PhoneNumberID != "" {
			return p
		}
	case "green_api":
		p := GreenAPIWhatsApp{
			InstanceID:  cfg.Get("GREEN_API_INSTANCE_ID"),
			Token:       cfg.Get("GREEN_API_TOKEN"),
			CountryCode: cc,
		}
		if p.InstanceID != "" && p.Token != "" {
			return p
		}
	case "", "mock":
		return MockWhatsApp{}
	}
	utils.LogWarn("", "whatsapp", "provider", fmt.Sprintf("provider=%s missing credentials, using mock", name))
	return MockWhatsApp{}
}

// WhatsAppService formats booking messages and hands them to a provider.
type WhatsAppService struct {
	Config    *SettingsStore
	Provider  WhatsAppProvider
	RequestID string
}

func (s WhatsAppService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

func (s WhatsAppService) provider() WhatsAppProvider {
	if s.Provider != nil {
		return s.Provider
	}
	return NewWhatsAppProvider(s.settings())
}

func (s WhatsAppService) Enabled() bool {
	return s.settings().Bool("WHATSAPP_ENABLED")
}

// BookingWhatsAppMessage is the confirmation text for recipient name.
func BookingWhatsAppMessage(b models.Booking, biz BusinessInfo, name string, withInvoice bool) string {
	kind := "single"
	if b.IsGroupBooking {
		kind = "group"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Booking Confirmed - %s*\n\n", biz.Name)
	fmt.Fprintf(&sb, "Dear %s,\n\n", utils.FirstNonEmpty(name, "Customer"))
	fmt.Fprintf(&sb, "Your %s %s booking is confirmed!\n\n", kind, b.BookingType)
	sb.WriteString("*Booking Details:*\n")
	fmt.Fprintf(&sb, "Booking ID: #%s\n", utils.FormatBookingID(b.ID))
	if b.ServiceDate != "" {
		fmt.Fprintf(&sb, "Service Date: %s\n", b.ServiceDate)
	}
	fmt.Fprintf(&sb, "Amount: %s\n", utils.FormatRupee(b.Total))
	if withInvoice {
		sb.WriteString("\nPlease find your invoice attached.\n")
	}
	sb.WriteString(contactFooter(biz))
	fmt.Fprintf(&sb, "\nThank you for choosing *%s*", biz.Name)
	if biz.Tagline != "" {
		fmt.Fprintf(&sb, "\n_%s_", biz.Tagline)
	}
	return sb.String()
}

func contactFooter(biz BusinessInfo) string {
	var sb strings.Builder
	if biz.Phone != "" || biz.Email != "" {
		sb.WriteString("\n")
	}
	if biz.Phone != "" {
		fmt.Fprintf(&sb, "For queries, call: %s\n", biz.Phone)
	}
	if biz.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", biz.Email)
	}
	return sb.String()
}

// CustomWhatsAppMessage wraps free text with the agency branding.
func CustomWhatsAppMessage(biz BusinessInfo, message string) string {
	return fmt.Sprintf("*%s*\n\n%s\n%s", biz.Name, strings.TrimSpace(message), contactFooter(biz))
}

// Recipient is one phone to notify.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Recipients returns the primary contact, or every group customer with a
// phone when sendToGroup is set. phoneOverride replaces all of them.
func Recipients(b models.Booking, sendToGroup bool, phoneOverride string) []Recipient {
	if p := strings.TrimSpace(phoneOverride); p != "" {
		return []Recipient{{Name: b.Name, Phone: p}}
	}
	if b.IsGroupBooking && sendToGroup {
		out := []Recipient{}
		for _, c := range b.Customers {
			if strings.TrimSpace(c.Phone) != "" {
				out = append(out, Recipient{Name: c.Name, Phone: c.Phone})
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if strings.TrimSpace(b.Phone) == "" {
		return nil
	}
	return []Recipient{{Name: b.Name, Phone: b.Phone}}
}

// Delivery is the outcome for one recipient.
type Delivery struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendBookingConfirmation sends the confirmation (with the invoice when
// pdfPath is set) to every recipient. It fails only when nothing was sent.
func (s WhatsAppService) SendBookingConfirmation(ctx context.Context, b models.Booking, recipients []Recipient, pdfPath string) ([]Delivery, error) {
	if !s.Enabled() {
		return nil, domain.DisabledError{Feature: "WhatsApp service"}
	}
	if len(recipients) == 0 {
		return nil, domain.Invalid("phone", "No phone number provided")
	}
	provider := s.provider()
	biz := s.settings().Business()

	out := make([]Delivery, 0, len(recipients))
	var lastErr error
	sent := 0
	for _, r := range recipients {
		var (
			receipt string
			err     error
		)
		if pdfPath != "" {
			msg := BookingWhatsAppMessage(b, biz, r.Name, true)
			receipt, err = provider.SendDocument(ctx, r.Phone, msg, pdfPath, InvoiceFilename(b.ID))
		} else {
			receipt, err = provider.SendMessage(ctx, r.Phone, BookingWhatsAppMessage(b, biz, r.Name, false))
		}
		if err != nil {
			lastErr = err
			utils.LogWarn(s.RequestID, "whatsapp", "send_booking",
				fmt.Sprintf("booking_id=%d provider=%s err=%v", b.ID, provider.Name(), err))
			out = append(out, Delivery{Phone: r.Phone, Message: err.Error()})
			continue
		}
		sent++
		out = append(out, Delivery{Phone: r.Phone, Success: true, Message: receipt})
	}
	utils.LogEvent(s.RequestID, "whatsapp", "send_booking",
		fmt.Sprintf("booking_id=%d provider=%s sent=%d/%d", b.ID, provider.Name(), sent, len(recipients)))
	if sent == 0 {
		return out, domain.UpstreamError{Service: "whatsapp", Err: lastErr}
	}
	return out, nil
}

// SendCustom sends a branded free-text message to phone.
func (s WhatsAppService) SendCustom(ctx context.Context, phone, message string) (string, error) {
	if !s.Enabled() {
		return "", domain.DisabledError{Feature: "WhatsApp service"}
	}
	if strings.TrimSpace(phone) == "" {
		return "", domain.Invalid("phone", "Phone number is required")
	}
	if strings.TrimSpace(message) == "" {
		return "", domain.Invalid("message", "Message is required")
	}
	provider := s.provider()
	receipt, err := provider.SendMessage(ctx, phone, CustomWhatsAppMessage(s.settings().Business(), message))
	if err != nil {
		return "", domain.UpstreamError{Service: "whatsapp", Err: err}
	}
	utils.LogEvent(s.RequestID, "whatsapp", "send_custom", fmt.Sprintf("provider=%s", provider.Name()))
	return receipt, nil
}

// TestResult reports a configuration test.
type TestResult struct {
	Provider string `json:"provider"`
	Success  bool   `json:"test_success"`
	Response string `json:"test_response"`
	Enabled  bool   `json:"whatsapp_enabled"`
	AutoSend bool   `json:"auto_send_on_booking"`
}

// SendTest sends a short test message regardless of WHATSAPP_ENABLED.
func (s WhatsAppService) SendTest(ctx context.Context, phone string) TestResult {
	provider := s.provider()
	res := TestResult{
		Provider: provider.Name(),
		Enabled:  s.Enabled(),
		AutoSend: s.settings().Bool("WHATSAPP_SEND_ON_BOOKING"),
	}
	if !IsValidPhone(phone) {
		res.Response = "Please enter a valid phone number (minimum 10 digits)"
		return res
	}
	receipt, err := provider.SendMessage(ctx, phone, "Test WhatsApp message from "+s.settings().Get("AGENCY_NAME")+"!")
	if err != nil {
		res.Response = err.Error()
		return res
	}
	res.Success = true
	res.Response = receipt
	return res
}
