package services

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/repositories"
	"travelbooking/internal/utils"
)

type invoiceRemover interface {
	Remove(id int64) error
}

type BookingService struct {
	Repo      repositories.BookingRepository
	DB        *sql.DB
	Config    *SettingsStore
	Invoices  invoiceRemover
	RequestID string
	Now       func() time.Time
}

func (s BookingService) bookings() repositories.BookingRepository {
	if s.Repo.DB != nil {
		return s.Repo
	}
	return repositories.BookingRepository{DB: s.DB}
}

func (s BookingService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

func (s BookingService) invoices() invoiceRemover {
	if s.Invoices != nil {
		return s.Invoices
	}
	return DocsService{Config: s.Config}
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func trimBooking(b *models.Booking) {
	for _, f := range []*string{
		&b.Name, &b.Email, &b.Phone, &b.BookingType,
		&b.HotelName, &b.HotelCity, &b.HotelCountry,
		&b.OperatorName, &b.FromJourney, &b.FromJourneyCountry,
		&b.ToJourney, &b.ToJourneyCountry, &b.VehicleNumber,
		&b.ServiceDate, &b.ServiceTime, &b.CustomerAddress,
	} {
		*f = strings.TrimSpace(*f)
	}
	b.BaseAmount = utils.RoundMoney(b.BaseAmount)
	for i := range b.Customers {
		c := &b.Customers[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		c.Phone = strings.TrimSpace(c.Phone)
		c.SeatRoom = strings.TrimSpace(c.SeatRoom)
		c.Amount = utils.RoundMoney(c.Amount)
	}
}

// prepare validates b and fills the derived fields: primary contact and base
// amount for groups, then tax and total.
func (s BookingService) prepare(b *models.Booking) error {
	trimBooking(b)
	if b.IsGroupBooking {
		if err := ValidateGroup(b); err != nil {
			return err
		}
		first := b.Customers[0]
		b.Name, b.Email, b.Phone = first.Name, first.Email, first.Phone
		amounts := make([]float64, len(b.Customers))
		for i, c := range b.Customers {
			amounts[i] = c.Amount
		}
		b.BaseAmount = utils.SumAmounts(amounts...)
	} else {
		b.Customers = nil
		if err := ValidateSingle(b); err != nil {
			return err
		}
	}
	b.GST, b.Total = utils.ComputeTotals(b.BaseAmount, s.settings().GSTPercent(), b.ApplyGST)
	return checkAmountCeiling(b)
}

// Create validates draft, computes totals and stores it. Nothing is written
// when validation fails.
func (s BookingService) Create(ctx context.Context, draft models.Booking) (models.Booking, error) {
	b := draft
	b.ID = 0
	if err := s.prepare(&b); err != nil {
		return models.Booking{}, err
	}
	b.CreatedAt = s.now()

	id, err := s.bookings().Create(ctx, b)
	if err != nil {
		return models.Booking{}, err
	}
	b.ID = id
	b.Date = utils.FormatDateTime(b.CreatedAt)
	for i := range b.Customers {
		b.Customers[i].BookingID = id
	}
	utils.LogEvent(s.RequestID, "booking", "create",
		fmt.Sprintf("booking_id=%d type=%s group=%t total=%s", id, b.BookingType, b.IsGroupBooking, utils.FormatMoney(b.Total)))
	return b, nil
}

func (s BookingService) Get(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.Invalid("id", "Invalid booking id")
	}
	return s.bookings().GetByID(ctx, id)
}

// Update applies the present fields of upd to booking id. The returned bool
// is false when the merged booking equals the stored one.
func (s BookingService) Update(ctx context.Context, id int64, upd models.BookingUpdate) (models.Booking, bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Booking{}, false, err
	}
	if upd.Empty() {
		return existing, false, nil
	}

	merged := upd.Apply(existing)
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.Date = existing.Date
	if err := s.prepare(&merged); err != nil {
		return models.Booking{}, false, err
	}
	for i := range merged.Customers {
		merged.Customers[i].BookingID = id
	}
	if sameBooking(existing, merged) {
		return existing, false, nil
	}

	if err := s.bookings().Update(ctx, merged); err != nil {
		return models.Booking{}, false, err
	}
	utils.LogEvent(s.RequestID, "booking", "update",
		fmt.Sprintf("booking_id=%d group=%t total=%s", id, merged.IsGroupBooking, utils.FormatMoney(merged.Total)))
	return merged, true, nil
}

// sameBooking compares stored fields, ignoring customer row ids.
func sameBooking(a, b models.Booking) bool {
	strip := func(in models.Booking) models.Booking {
		out := in
		out.Customers = nil
		for _, c := range in.Customers {
			c.ID = 0
			out.Customers = append(out.Customers, c)
		}
		return out
	}
	return reflect.DeepEqual(strip(a), strip(b))
}

// Delete removes the booking, its customers and its invoice file.
func (s BookingService) Delete(ctx context.Context, id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.Invalid("id", "Invalid booking id")
	}
	b, err := s.bookings().Delete(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if err := s.invoices().Remove(id); err != nil {
		utils.LogWarn(s.RequestID, "booking", "delete_invoice", fmt.Sprintf("booking_id=%d err=%v", id, err))
	}
	utils.LogEvent(s.RequestID, "booking", "delete", fmt.Sprintf("booking_id=%d", id))
	return b, nil
}

// BulkDelete removes every existing booking among ids and returns the deleted ids.
func (s BookingService) BulkDelete(ctx context.Context, ids []int64) ([]int64, error) {
	seen := map[int64]bool{}
	clean := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return nil, domain.Invalid("booking_ids", "No booking IDs provided")
	}

	deleted, err := s.bookings().DeleteMany(ctx, clean)
	if err != nil {
		return nil, err
	}
	for _, id := range deleted {
		if err := s.invoices().Remove(id); err != nil {
			utils.LogWarn(s.RequestID, "booking", "delete_invoice", fmt.Sprintf("booking_id=%d err=%v", id, err))
		}
	}
	utils.LogEvent(s.RequestID, "booking", "bulk_delete", fmt.Sprintf("requested=%d deleted=%d", len(clean), len(deleted)))
	return deleted, nil
}

// SearchResult is one page of bookings.
type SearchResult struct {
	Bookings   []models.BookingSummary `json:"bookings"`
	Pagination domain.Pagination       `json:"pagination"`
}

func (s BookingService) Search(ctx context.Context, query, bookingType string, page domain.PageRequest) (SearchResult, error) {
	page = page.Normalize()
	if bt, ok := models.ParseBookingType(bookingType); ok {
		bookingType = string(bt)
	}
	rows, total, err := s.bookings().Search(ctx, repositories.SearchFilter{
		Query: utils.NormalizeSpace(query),
		Type:  strings.TrimSpace(bookingType),
	}, page)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Bookings: rows, Pagination: domain.NewPagination(page, total)}, nil
}

func (s BookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.bookings().ListAll(ctx)
}

func bookingKind(b models.Booking) string {
	if b.IsGroupBooking {
		return "Group Booking"
	}
	return "Booking"
}

func DeleteMessage(b models.Booking) string {
	return fmt.Sprintf("%s #%s for %s has been deleted successfully", bookingKind(b), utils.FormatBookingID(b.ID), b.Name)
}

func UpdateMessage(id int64) string {
	return fmt.Sprintf("Booking #%s updated successfully", utils.FormatBookingID(id))
}

func BulkDeleteMessage(n int) string {
	return fmt.Sprintf("Successfully deleted %d booking(s)", n)
}

func CreateMessage(b models.Booking) string {
	if b.IsGroupBooking {
		return "Group booking created successfully"
	}
	return "Booking created successfully"
}
