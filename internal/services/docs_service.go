package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"travelbooking/internal/domain/models"
	"travelbooking/internal/repositories"
	"travelbooking/internal/utils"

	"github.com/phpdave11/gofpdf"
)

const DefaultBillsDir = "bills"

// DocsService renders booking invoices to PDF and manages the files under Dir.
type DocsService struct {
	Dir       string
	Config    *SettingsStore
	Repo      repositories.BookingRepository
	RequestID string
	Loader    func(ctx context.Context, id int64) (models.Booking, error)
}

func (s DocsService) dir() string {
	if s.Dir != "" {
		return s.Dir
	}
	return DefaultBillsDir
}

func (s DocsService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

// InvoicePath is where the invoice of booking id is stored.
func (s DocsService) InvoicePath(id int64) string {
	return filepath.Join(s.dir(), fmt.Sprintf("invoice_%d.pdf", id))
}

// InvoiceFilename is the download/attachment name, e.g. "Invoice_000042.pdf".
func InvoiceFilename(id int64) string {
	return fmt.Sprintf("Invoice_%s.pdf", utils.FormatBookingID(id))
}

// GenerateInvoice writes (or overwrites) the invoice file and returns its path.
func (s DocsService) GenerateInvoice(b models.Booking) (string, error) {
	data, err := s.RenderInvoice(b)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return "", fmt.Errorf("create bills dir: %w", err)
	}
	path := s.InvoicePath(b.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write invoice: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write invoice: %w", err)
	}
	utils.LogEvent(s.RequestID, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d bytes=%d", b.ID, len(data)))
	return path, nil
}

// GenerateInvoiceByID loads the booking and regenerates its invoice.
func (s DocsService) GenerateInvoiceByID(ctx context.Context, id int64) (models.Booking, string, error) {
	var (
		b   models.Booking
		err error
	)
	if s.Loader != nil {
		b, err = s.Loader(ctx, id)
	} else {
		b, err = s.Repo.GetByID(ctx, id)
	}
	if err != nil {
		return models.Booking{}, "", err
	}
	path, err := s.GenerateInvoice(b)
	return b, path, err
}

// Remove deletes the invoice of booking id; a missing file is not an error.
func (s DocsService) Remove(id int64) error {
	err := os.Remove(s.InvoicePath(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RenderInvoice builds the invoice PDF in memory.
func (s DocsService) RenderInvoice(b models.Booking) ([]byte, error) {
	cfg := s.settings()
	layout := invoiceLayout{
		Business:     cfg.Business(),
		PageFormat:   cfg.Get("PDF_PAGE_FORMAT"),
		FontFamily:   cfg.Get("PDF_FONT_FAMILY"),
		FontSize:     cfg.Float("PDF_FONT_SIZE", 10),
		MarginTop:    cfg.Float("PDF_MARGIN_TOP", 15),
		MarginBottom: cfg.Float("PDF_MARGIN_BOTTOM", 15),
		MarginLeft:   cfg.Float("PDF_MARGIN_LEFT", 15),
		MarginRight:  cfg.Float("PDF_MARGIN_RIGHT", 15),
	}
	pdf := buildInvoicePDF(b, layout)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

type invoiceLayout struct {
	Business     BusinessInfo
	PageFormat   string
	FontFamily   string
	FontSize     float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

var (
	colorPrimary = [3]int{31, 78, 121}
	colorShade   = [3]int{232, 240, 250}
	colorMuted   = [3]int{110, 110, 110}
)

type invoiceWriter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	font   string
	size   float64
	width  float64
	bottom float64
}

func buildInvoicePDF(b models.Booking, l invoiceLayout) *gofpdf.Fpdf {
	format := l.PageFormat
	if format == "" {
		format = "A4"
	}
	font := l.FontFamily
	if font == "" {
		font = "Helvetica"
	}
	size := l.FontSize
	if size <= 0 {
		size = 10
	}

	pdf := gofpdf.New("P", "mm", format, "")
	pdf.SetMargins(l.MarginLeft, l.MarginTop, l.MarginRight)
	pdf.SetAutoPageBreak(true, l.MarginBottom)
	pdf.AliasNbPages("")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", utils.FormatBookingID(b.ID)), false)
	pdf.SetAuthor(l.Business.Name, false)

	pageW, pageH := pdf.GetPageSize()
	w := &invoiceWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		font:   font,
		size:   size,
		width:  pageW - l.MarginLeft - l.MarginRight,
		bottom: pageH - l.MarginBottom,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "I", size-2)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 4, w.tr(fmt.Sprintf("Thank you for choosing %s! | %s | %s",
			l.Business.Name, l.Business.Phone, l.Business.Email)), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	w.header(l.Business)
	w.title(b)
	w.serviceDetails(b)
	if b.IsGroupBooking && len(b.Customers) > 0 {
		w.customerTable(b.Customers)
	} else {
		w.singleCustomer(b)
	}
	w.billing(b)
	return pdf
}

func (w *invoiceWriter) header(biz BusinessInfo) {
	pdf := w.pdf
	left, top, _, _ := pdf.GetMargins()
	textX, logoBottom := left, top
	if biz.Logo != "" {
		if st, err := os.Stat(biz.Logo); err == nil && !st.IsDir() {
			pdf.ImageOptions(biz.Logo, left, top, 22, 22, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			textX, logoBottom = left+26, top+22
		}
	}

	pdf.SetXY(textX, top)
	pdf.SetFont(w.font, "B", w.size+10)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 9, w.tr(biz.Name), "", 1, "L", false, 0, "")

	pdf.SetX(textX)
	pdf.SetFont(w.font, "I", w.size)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 5, w.tr(biz.Tagline), "", 1, "L", false, 0, "")

	pdf.SetFont(w.font, "", w.size-2)
	for _, line := range []string{
		biz.Address,
		strings.Trim(fmt.Sprintf("Phone: %s | Email: %s", biz.Phone, biz.Email), " |"),
		gstinLine(biz.GSTIN),
	} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.SetX(textX)
		pdf.CellFormat(0, 4, w.tr(line), "", 1, "L", false, 0, "")
	}

	if pdf.GetY() < logoBottom {
		pdf.SetY(logoBottom)
	}
	pdf.Ln(2)
	y := pdf.GetY()
	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(left, y, left+w.width, y)
	pdf.SetLineWidth(0.2)
	pdf.Ln(5)
}

func gstinLine(gstin string) string {
	if strings.TrimSpace(gstin) == "" {
		return ""
	}
	return "GSTIN: " + gstin
}

func (w *invoiceWriter) title(b models.Booking) {
	pdf := w.pdf
	title := "TRAVEL BOOKING INVOICE"
	if b.IsGroupBooking {
		title = "GROUP BOOKING INVOICE"
	}
	pdf.SetFont(w.font, "B", w.size+6)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 9, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	rows := [][2]string{
		{"Invoice #", utils.FormatBookingID(b.ID)},
		{"Date", utils.FormatLongDate(created)},
		{"Booking Type", b.BookingType},
	}
	if b.IsGroupBooking {
		rows = append(rows, [2]string{"Customers", fmt.Sprintf("%d", len(b.Customers))})
	}
	w.keyValueTable(rows)
}

func (w *invoiceWriter) section(label string) {
	pdf := w.pdf
	w.ensureSpace(16)
	pdf.Ln(3)
	pdf.SetFont(w.font, "B", w.size+2)
	pdf.SetTextColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.CellFormat(0, 7, label, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func (w *invoiceWriter) keyValueTable(rows [][2]string) {
	pdf := w.pdf
	keyW := w.width * 0.35
	pdf.SetDrawColor(200, 200, 200)
	for _, r := range rows {
		w.ensureSpace(7)
		pdf.SetFont(w.font, "B", w.size)
		pdf.SetTextColor(40, 40, 40)
		pdf.SetFillColor(colorShade[0], colorShade[1], colorShade[2])
		pdf.CellFormat(keyW, 7, w.tr(r[0]), "1", 0, "L", true, 0, "")
		pdf.SetFont(w.font, "", w.size)
		pdf.CellFormat(w.width-keyW, 7, w.tr(safe(r[1], "-")), "1", 1, "L", false, 0, "")
	}
}

func (w *invoiceWriter) serviceDetails(b models.Booking) {
	bt, _ := models.ParseBookingType(b.BookingType)
	hotel := [][2]string{}
	if b.HotelName != "" {
		hotel = append(hotel, [2]string{"Hotel Name", b.HotelName})
	}
	if loc := joinNonEmpty(", ", b.HotelCity, b.HotelCountry); loc != "" {
		hotel = append(hotel, [2]string{"Location", loc})
	}
	journey := [][2]string{}
	if b.OperatorName != "" {
		journey = append(journey, [2]string{"Operator", b.OperatorName})
	}
	if from := joinNonEmpty(", ", b.FromJourney, b.FromJourneyCountry); from != "" {
		journey = append(journey, [2]string{"From", from})
	}
	if to := joinNonEmpty(", ", b.ToJourney, b.ToJourneyCountry); to != "" {
		journey = append(journey, [2]string{"To", to})
	}

	var rows [][2]string
	if bt.IsJourney() {
		rows = append(journey, hotel...)
	} else {
		rows = append(hotel, journey...)
	}
	if b.VehicleNumber != "" {
		rows = append(rows, [2]string{bt.VehicleLabel(), b.VehicleNumber})
	}
	if b.ServiceDate != "" {
		rows = append(rows, [2]string{"Service Date", b.ServiceDate})
	}
	if b.ServiceTime != "" {
		rows = append(rows, [2]string{"Service Time", b.ServiceTime})
	}
	if len(rows) == 0 {
		return
	}
	w.section("Service Details")
	w.keyValueTable(rows)
}

func (w *invoiceWriter) singleCustomer(b models.Booking) {
	w.section("Customer Details")
	rows := [][2]string{{"Name", b.Name}, {"Email", b.Email}, {"Phone", b.Phone}}
	if b.CustomerAddress != "" {
		rows = append(rows, [2]string{"Address", b.CustomerAddress})
	}
	w.keyValueTable(rows)
}

var customerColumns = []struct {
	title string
	share float64
	align string
}{
	{"#", 0.07, "C"},
	{"Name", 0.28, "L"},
	{"Contact", 0.30, "L"},
	{"Seat/Room", 0.15, "C"},
	{"Amount", 0.20, "R"},
}

func (w *invoiceWriter) customerHeader() {
	pdf := w.pdf
	pdf.SetFont(w.font, "B", w.size)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	for i, c := range customerColumns {
		ln := 0
		if i == len(customerColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(w.width*c.share, 7, c.title, "1", ln, "C", true, 0, "")
	}
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont(w.font, "", w.size-1)
}

// customerTable repeats its header row on every page it spans.
func (w *invoiceWriter) customerTable(customers []models.Customer) {
	w.section(fmt.Sprintf("Customer Details (%d)", len(customers)))
	w.customerHeader()
	pdf := w.pdf
	for i, c := range customers {
		if pdf.GetY()+7 > w.bottom {
			pdf.AddPage()
			w.customerHeader()
		}
		values := []string{
			fmt.Sprintf("%d", i+1),
			c.Name,
			safe(joinNonEmpty(" / ", c.Phone, c.Email), "-"),
			safe(c.SeatRoom, "-"),
			utils.FormatRupee(c.Amount),
		}
		fill := i%2 == 1
		pdf.SetFillColor(colorShade[0], colorShade[1], colorShade[2])
		for j, col := range customerColumns {
			ln := 0
			if j == len(customerColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(w.width*col.share, 7, w.tr(fit(pdf, values[j], w.width*col.share-2)), "1", ln, col.align, fill, 0, "")
		}
	}
}

func (w *invoiceWriter) billing(b models.Booking) {
	pdf := w.pdf
	w.section("Billing Summary")
	w.ensureSpace(24)

	// The rate is taken from the stored amounts; GST_PERCENT may have changed since.
	gstLabel := fmt.Sprintf("GST (%s%%)", trimFloat(utils.EffectiveRate(b.BaseAmount, b.GST)))
	if !b.ApplyGST {
		gstLabel = "GST (not applied)"
	}
	keyW := w.width * 0.65
	rows := [][2]string{
		{"Base Amount", utils.FormatRupee(b.BaseAmount)},
		{gstLabel, utils.FormatRupee(b.GST)},
	}
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetTextColor(40, 40, 40)
	for _, r := range rows {
		pdf.SetFont(w.font, "", w.size)
		pdf.CellFormat(keyW, 7, r[0], "1", 0, "R", false, 0, "")
		pdf.CellFormat(w.width-keyW, 7, r[1], "1", 1, "R", false, 0, "")
	}
	pdf.SetFont(w.font, "B", w.size+2)
	pdf.SetFillColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(keyW, 9, "TOTAL", "1", 0, "R", true, 0, "")
	pdf.CellFormat(w.width-keyW, 9, utils.FormatRupee(b.Total), "1", 1, "R", true, 0, "")
	pdf.SetTextColor(40, 40, 40)
}

func (w *invoiceWriter) ensureSpace(h float64) {
	if w.pdf.GetY()+h > w.bottom {
		w.pdf.AddPage()
	}
}

// fit shortens s with "..." until it fits width mm at the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
