package services

import "travelbooking/internal/domain/models"

const (
	CategoryBusiness = "business"
	CategoryEmail    = "email"
	CategoryWhatsApp = "whatsapp"
	CategoryPDF      = "pdf"
	CategoryBackup   = "backup"
	CategorySecurity = "security"

	gstinPattern = `^\d{2}[A-Z]{5}\d{4}[A-Z][A-Z\d]Z[A-Z\d]$`
	timePattern  = `^([01]\d|2[0-3]):[0-5]\d$`
)

var settingCategories = []models.SettingCategory{
	{Key: CategoryBusiness, Name: "Business Information", Description: "Agency identity, tax registration and contact details"},
	{Key: CategoryEmail, Name: "Email Settings", Description: "SMTP server and booking confirmation emails"},
	{Key: CategoryWhatsApp, Name: "WhatsApp Settings", Description: "WhatsApp provider credentials and notification behaviour"},
	{Key: CategoryPDF, Name: "PDF Settings", Description: "Invoice page format, fonts and margins"},
	{Key: CategoryBackup, Name: "Backup Settings", Description: "Scheduled database snapshots and retention"},
	{Key: CategorySecurity, Name: "Security Settings", Description: "Session lifetime and API rate limiting"},
}

func ptr(v float64) *float64 { return &v }

var settingFields = []models.SettingField{
	// business
	{Key: "AGENCY_NAME", Label: "Agency Name", Type: models.SettingString, Category: CategoryBusiness, Default: "Himanshi Travels", Required: true},
	{Key: "AGENCY_TAGLINE", Label: "Tagline", Type: models.SettingString, Category: CategoryBusiness, Default: "Your Journey, Our Passion"},
	{Key: "GSTIN", Label: "GSTIN", Type: models.SettingString, Category: CategoryBusiness, Default: "29ABCDE1234F2Z5", Pattern: gstinPattern,
		Description: "15 character GST identification number"},
	{Key: "GST_PERCENT", Label: "GST Percent", Type: models.SettingNumber, Category: CategoryBusiness, Default: "5", Required: true, Min: ptr(0), Max: ptr(100),
		Description: "Tax rate applied when a booking has GST enabled"},
	{Key: "BUSINESS_ADDRESS", Label: "Address", Type: models.SettingString, Category: CategoryBusiness, Default: "123 Travel Street, Adventure City, State 123456"},
	{Key: "BUSINESS_PHONE", Label: "Phone", Type: models.SettingPhone, Category: CategoryBusiness, Default: "+91 98765 43210"},
	{Key: "BUSINESS_EMAIL", Label: "Email", Type: models.SettingEmail, Category: CategoryBusiness, Default: "info@himanshitravels.com"},
	{Key: "WEBSITE_URL", Label: "Website", Type: models.SettingURL, Category: CategoryBusiness},
	{Key: "BUSINESS_HOURS", Label: "Business Hours", Type: models.SettingString, Category: CategoryBusiness, Default: "Mon-Sat 9:00 AM - 7:00 PM"},
	{Key: "LOGO_PATH", Label: "Logo Path", Type: models.SettingString, Category: CategoryBusiness, Default: "static/images/logo.png",
		Description: "PNG or JPEG printed on invoices when the file exists"},

	// email
	{Key: "EMAIL_ENABLED", Label: "Enable Email", Type: models.SettingBoolean, Category: CategoryEmail, Default: "false"},
	{Key: "EMAIL_SEND_ON_BOOKING", Label: "Email On Booking", Type: models.SettingBoolean, Category: CategoryEmail, Default: "false"},
	{Key: "SMTP_HOST", Label: "SMTP Host", Type: models.SettingString, Category: CategoryEmail, Default: "smtp.gmail.com"},
	{Key: "SMTP_PORT", Label: "SMTP Port", Type: models.SettingNumber, Category: CategoryEmail, Default: "587", Min: ptr(1), Max: ptr(65535)},
	{Key: "SMTP_USE_TLS", Label: "Use TLS", Type: models.SettingBoolean, Category: CategoryEmail, Default: "true"},
	{Key: "SMTP_USERNAME", Label: "SMTP Username", Type: models.SettingString, Category: CategoryEmail},
	{Key: "SMTP_PASSWORD", Label: "SMTP Password", Type: models.SettingPassword, Category: CategoryEmail, Sensitive: true},
	{Key: "FROM_EMAIL", Label: "From Address", Type: models.SettingEmail, Category: CategoryEmail},
	{Key: "FROM_NAME", Label: "From Name", Type: models.SettingString, Category: CategoryEmail, Default: "Himanshi Travels"},
	{Key: "REPLY_TO_EMAIL", Label: "Reply-To", Type: models.SettingEmail, Category: CategoryEmail},

	// whatsapp
	{Key: "WHATSAPP_ENABLED", Label: "Enable WhatsApp", Type: models.SettingBoolean, Category: CategoryWhatsApp, Default: "false"},
	{Key: "WHATSAPP_SEND_ON_BOOKING", Label: "WhatsApp On Booking", Type: models.SettingBoolean, Category: CategoryWhatsApp, Default: "false"},
	{Key: "WHATSAPP_SEND_TO_GROUP_CUSTOMERS", Label: "Message Every Group Customer", Type: models.SettingBoolean, Category: CategoryWhatsApp, Default: "false"},
	{Key: "WHATSAPP_PROVIDER", Label: "Provider", Type: models.SettingSelect, Category: CategoryWhatsApp, Default: "mock",
		Options: []string{"mock", "twilio", "business_api", "green_api"}},
	{Key: "WHATSAPP_DEFAULT_COUNTRY_CODE", Label: "Default Country Code", Type: models.SettingString, Category: CategoryWhatsApp, Default: "91", Pattern: `^\d{1,4}$`},
	{Key: "WHATSAPP_TOKEN", Label: "Business API Token", Type: models.SettingPassword, Category: CategoryWhatsApp, Sensitive: true},
	{Key: "WHATSAPP_PHONE_NUMBER_ID", Label: "Business Phone Number ID", Type: models.SettingString, Category: CategoryWhatsApp},
	{Key: "TWILIO_ACCOUNT_SID", Label: "Twilio Account SID", Type: models.SettingString, Category: CategoryWhatsApp},
	{Key: "TWILIO_AUTH_TOKEN", Label: "Twilio Auth Token", Type: models.SettingPassword, Category: CategoryWhatsApp, Sensitive: true},
	{Key: "TWILIO_WHATSAPP_NUMBER", Label: "Twilio WhatsApp Number", Type: models.SettingPhone, Category: CategoryWhatsApp},
	{Key: "GREEN_API_INSTANCE_ID", Label: "Green API Instance", Type: models.SettingString, Category: CategoryWhatsApp},
	{Key: "GREEN_API_TOKEN", Label: "Green API Token", Type: models.SettingPassword, Category: CategoryWhatsApp, Sensitive: true},

	// pdf
	{Key: "PDF_PAGE_FORMAT", Label: "Page Format", Type: models.SettingSelect, Category: CategoryPDF, Default: "A4", Options: []string{"A4", "Letter", "Legal", "A5"}},
	{Key: "PDF_FONT_FAMILY", Label: "Font Family", Type: models.SettingSelect, Category: CategoryPDF, Default: "Helvetica", Options: []string{"Helvetica", "Arial", "Times", "Courier"}},
	{Key: "PDF_FONT_SIZE", Label: "Font Size", Type: models.SettingNumber, Category: CategoryPDF, Default: "10", Min: ptr(6), Max: ptr(16)},
	{Key: "PDF_MARGIN_TOP", Label: "Top Margin (mm)", Type: models.SettingNumber, Category: CategoryPDF, Default: "15", Min: ptr(0), Max: ptr(50)},
	{Key: "PDF_MARGIN_BOTTOM", Label: "Bottom Margin (mm)", Type: models.SettingNumber, Category: CategoryPDF, Default: "15", Min: ptr(0), Max: ptr(50)},
	{Key: "PDF_MARGIN_LEFT", Label: "Left Margin (mm)", Type: models.SettingNumber, Category: CategoryPDF, Default: "15", Min: ptr(0), Max: ptr(50)},
	{Key: "PDF_MARGIN_RIGHT", Label: "Right Margin (mm)", Type: models.SettingNumber, Category: CategoryPDF, Default: "15", Min: ptr(0), Max: ptr(50)},

	// backup
	{Key: "BACKUP_ENABLED", Label: "Enable Backups", Type: models.SettingBoolean, Category: CategoryBackup, Default: "false"},
	{Key: "BACKUP_SCHEDULE", Label: "Schedule", Type: models.SettingSelect, Category: CategoryBackup, Default: "daily", Options: []string{"daily", "weekly"}},
	{Key: "BACKUP_TIME", Label: "Run At (HH:MM)", Type: models.SettingString, Category: CategoryBackup, Default: "02:00", Pattern: timePattern},
	{Key: "BACKUP_PATH", Label: "Backup Directory", Type: models.SettingString, Category: CategoryBackup, Default: "backups", Required: true},
	{Key: "BACKUP_RETENTION_DAYS", Label: "Retention (days)", Type: models.SettingNumber, Category: CategoryBackup, Default: "30", Min: ptr(1), Max: ptr(3650)},
	{Key: "BACKUP_COMPRESSION", Label: "Compress Backups", Type: models.SettingBoolean, Category: CategoryBackup, Default: "true"},

	// security
	{Key: "SECURITY_SESSION_TIMEOUT", Label: "Session Timeout (minutes)", Type: models.SettingNumber, Category: CategorySecurity, Default: "60", Min: ptr(5), Max: ptr(1440)},
	{Key: "SECURITY_API_RATE_LIMIT", Label: "API Requests Per Minute", Type: models.SettingNumber, Category: CategorySecurity, Default: "120", Min: ptr(1), Max: ptr(10000)},
}

var settingIndex = func() map[string]models.SettingField {
	m := make(map[string]models.SettingField, len(settingFields))
	for _, f := range settingFields {
		m[f.Key] = f
	}
	return m
}()

// SettingCategories returns categories with their field counts.
func SettingCategories() []models.SettingCategory {
	out := make([]models.SettingCategory, 0, len(settingCategories))
	for _, c := range settingCategories {
		for _, f := range settingFields {
			if f.Category == c.Key {
				c.FieldCount++
			}
		}
		out = append(out, c)
	}
	return out
}

// SettingFields returns the field definitions of one category, or all when category is empty.
func SettingFields(category string) []models.SettingField {
	out := []models.SettingField{}
	for _, f := range settingFields {
		if category == "" || f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

func LookupSetting(key string) (models.SettingField, bool) {
	f, ok := settingIndex[key]
	return f, ok
}

func isSettingCategory(key string) bool {
	for _, c := range settingCategories {
		if c.Key == key {
			return true
		}
	}
	return false
}
