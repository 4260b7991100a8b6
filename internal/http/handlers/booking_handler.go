package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"travelbooking/internal/domain/models"
	"travelbooking/internal/http/middleware"
	"travelbooking/internal/services"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// FlexString tolerates string/number/bool and turns them into a string.
// Objects and arrays are rejected.
type FlexString string

var errNotScalar = errors.New("expected a string, number or boolean")

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null" || len(b) == 0:
		*s = ""
		return nil
	case len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	case b[0] == '{' || b[0] == '[':
		return errNotScalar
	default:
		*s = FlexString(strings.Trim(string(b), `"`))
		return nil
	}
}

func (s FlexString) String() string { return strings.TrimSpace(string(s)) }

// FlexFloat accepts 1500, 1500.5 and "1,500.50". Empty strings are zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s.String() == "" {
		*f = 0
		return nil
	}
	v, err := utils.ParseAmount(s.String())
	if err != nil {
		return fmt.Errorf("invalid amount %q", s.String())
	}
	*f = FlexFloat(v)
	return nil
}

// FlexBool accepts true, 1, "true", "on", "1" and "yes".
type FlexBool bool

func (v *FlexBool) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*v = FlexBool(utils.Truthy(s.String()))
	return nil
}

// FlexID accepts 12 and "12".
type FlexID int64

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := strconv.ParseInt(s.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid booking id %q", s.String())
	}
	*id = FlexID(v)
	return nil
}

func firstNonEmpty(vals ...FlexString) string {
	for _, v := range vals {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

// customerPayload is one group line item. The form posts short names, the
// edit dialog posts the stored column names.
type customerPayload struct {
	Name          FlexString `json:"name"`
	CustomerName  FlexString `json:"customer_name"`
	Email         FlexString `json:"email"`
	CustomerEmail FlexString `json:"customer_email"`
	Phone         FlexString `json:"phone"`
	CustomerPhone FlexString `json:"customer_phone"`
	SeatRoom      FlexString `json:"seat_room"`
	SeatRoomNum   FlexString `json:"seat_room_number"`

	Amount         *FlexFloat `json:"amount"`
	CustomerAmount *FlexFloat `json:"customer_amount"`
}

func (p customerPayload) toCustomer() models.Customer {
	c := models.Customer{
		Name:     firstNonEmpty(p.CustomerName, p.Name),
		Email:    firstNonEmpty(p.CustomerEmail, p.Email),
		Phone:    firstNonEmpty(p.CustomerPhone, p.Phone),
		SeatRoom: firstNonEmpty(p.SeatRoomNum, p.SeatRoom),
	}
	switch {
	case p.CustomerAmount != nil:
		c.Amount = float64(*p.CustomerAmount)
	case p.Amount != nil:
		c.Amount = float64(*p.Amount)
	}
	return c
}

func toCustomers(in []customerPayload) []models.Customer {
	out := make([]models.Customer, 0, len(in))
	for _, p := range in {
		out = append(out, p.toCustomer())
	}
	return out
}

var errCustomerFormat = errors.New("Invalid customer data format")

// parseCustomersData decodes the customers_data form field.
func parseCustomersData(raw string) ([]models.Customer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var items []customerPayload
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errCustomerFormat
	}
	return toCustomers(items), nil
}

// bookingFromForm reads the booking form. Amount parsing problems are
// reported here; everything else is left to the service validators.
func bookingFromForm(c *gin.Context) (models.Booking, string) {
	form := func(key string) string { return strings.TrimSpace(c.PostForm(key)) }

	b := models.Booking{
		IsGroupBooking:     utils.Truthy(form("is_group_booking")),
		Name:               form("name"),
		Email:              form("email"),
		Phone:              form("phone"),
		BookingType:        form("booking_type"),
		ApplyGST:           utils.Truthy(form("apply_gst")),
		CustomerAddress:    form("customer_address"),
		HotelName:          form("hotel_name"),
		HotelCity:          form("hotel_city"),
		HotelCountry:       form("hotel_country"),
		OperatorName:       form("operator_name"),
		FromJourney:        form("from_journey"),
		FromJourneyCountry: form("from_journey_country"),
		ToJourney:          form("to_journey"),
		ToJourneyCountry:   form("to_journey_country"),
		VehicleNumber:      utils.FirstNonEmpty(form("vehicle_number"), form("vehicle_train_flight_hotel_number")),
		ServiceDate:        form("service_date"),
		ServiceTime:        form("service_time"),
	}

	if b.IsGroupBooking {
		customers, err := parseCustomersData(c.PostForm("customers_data"))
		if err != nil {
			return b, err.Error()
		}
		b.Customers = customers
		return b, ""
	}

	if raw := form("base_amount"); raw != "" {
		v, err := utils.ParseAmount(raw)
		if err != nil {
			return b, "Base amount must be a valid number"
		}
		b.BaseAmount = v
	}
	return b, ""
}

// CreateBooking handles the form submission on POST /.
func (a *API) CreateBooking(c *gin.Context) {
	draft, problem := bookingFromForm(c)
	if problem != "" {
		RespondFailure(c, http.StatusBadRequest, problem)
		return
	}

	ctx := c.Request.Context()
	b, err := a.bookings(c).Create(ctx, draft)
	if err != nil {
		respondBookingError(c, "create_booking", err)
		return
	}

	// the booking is stored at this point; invoice and notifications are best effort
	pdfPath, err := a.docs(c).GenerateInvoice(b)
	if err != nil {
		utils.LogWarn(middleware.GetRequestID(c), "booking", "create_invoice", fmt.Sprintf("booking_id=%d err=%v", b.ID, err))
		pdfPath = ""
	}
	report := a.notify(c).OnBookingCreated(ctx, b, pdfPath)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       services.CreateMessage(b),
		"pdf_url":       fmt.Sprintf("/invoice/%d", b.ID),
		"booking_id":    b.ID,
		"notifications": report,
	})
}

// GET /get_booking/:id
func (a *API) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := a.bookings(c).Get(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, "get_booking", err)
		return
	}
	if b.Customers == nil {
		b.Customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// updatePayload keeps key presence: a nil field was not sent.
type updatePayload struct {
	Name               *FlexString        `json:"name"`
	Email              *FlexString        `json:"email"`
	Phone              *FlexString        `json:"phone"`
	BookingType        *FlexString        `json:"booking_type"`
	BaseAmount         *FlexFloat         `json:"base_amount"`
	ApplyGST           *FlexBool          `json:"apply_gst"`
	IsGroupBooking     *FlexBool          `json:"is_group_booking"`
	HotelName          *FlexString        `json:"hotel_name"`
	HotelCity          *FlexString        `json:"hotel_city"`
	HotelCountry       *FlexString        `json:"hotel_country"`
	OperatorName       *FlexString        `json:"operator_name"`
	FromJourney        *FlexString        `json:"from_journey"`
	FromJourneyCountry *FlexString        `json:"from_journey_country"`
	ToJourney          *FlexString        `json:"to_journey"`
	ToJourneyCountry   *FlexString        `json:"to_journey_country"`
	VehicleNumber      *FlexString        `json:"vehicle_number"`
	VehicleAlias       *FlexString        `json:"vehicle_train_flight_hotel_number"`
	ServiceDate        *FlexString        `json:"service_date"`
	ServiceTime        *FlexString        `json:"service_time"`
	CustomerAddress    *FlexString        `json:"customer_address"`
	Customers          *[]customerPayload `json:"customers"`
}

func optString(v *FlexString) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func (p updatePayload) toUpdate() models.BookingUpdate {
	u := models.BookingUpdate{
		Name:               optString(p.Name),
		Email:              optString(p.Email),
		Phone:              optString(p.Phone),
		BookingType:        optString(p.BookingType),
		HotelName:          optString(p.HotelName),
		HotelCity:          optString(p.HotelCity),
		HotelCountry:       optString(p.HotelCountry),
		OperatorName:       optString(p.OperatorName),
		FromJourney:        optString(p.FromJourney),
		FromJourneyCountry: optString(p.FromJourneyCountry),
		ToJourney:          optString(p.ToJourney),
		ToJourneyCountry:   optString(p.ToJourneyCountry),
		VehicleNumber:      optString(p.VehicleNumber),
		ServiceDate:        optString(p.ServiceDate),
		ServiceTime:        optString(p.ServiceTime),
		CustomerAddress:    optString(p.CustomerAddress),
	}
	if p.VehicleAlias != nil && p.VehicleAlias.String() != "" {
		u.VehicleNumber = optString(p.VehicleAlias)
	}
	if p.BaseAmount != nil {
		v := float64(*p.BaseAmount)
		u.BaseAmount = &v
	}
	if p.ApplyGST != nil {
		v := bool(*p.ApplyGST)
		u.ApplyGST = &v
	}
	if p.IsGroupBooking != nil {
		v := bool(*p.IsGroupBooking)
		u.IsGroupBooking = &v
	}
	if p.Customers != nil {
		cs := toCustomers(*p.Customers)
		u.Customers = &cs
	}
	return u
}

// POST /update_booking/:id
func (a *API) UpdateBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		RespondFailure(c, http.StatusBadRequest, "No data provided")
		return
	}
	var p updatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		RespondFailure(c, http.StatusBadRequest, "Invalid booking data: "+err.Error())
		return
	}

	_, changed, err := a.bookings(c).Update(c.Request.Context(), id, p.toUpdate())
	if err != nil {
		respondBookingError(c, "update_booking", err)
		return
	}
	if !changed {
		RespondFailure(c, http.StatusBadRequest, "No changes were made")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    services.UpdateMessage(id),
		"booking_id": id,
	})
}

// POST /delete_booking/:id
func (a *API) DeleteBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := a.bookings(c).Delete(c.Request.Context(), id)
	if err != nil {
		respondBookingError(c, "delete_booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": services.DeleteMessage(b)})
}

type bulkDeleteRequest struct {
	BookingIDs json.RawMessage `json:"booking_ids"`
}

// POST /bulk_delete_bookings
func (a *API) BulkDeleteBookings(c *gin.Context) {
	var req bulkDeleteRequest
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &req) != nil {
		RespondFailure(c, http.StatusBadRequest, "No data provided")
		return
	}
	ids := bytes.TrimSpace(req.BookingIDs)
	if len(ids) == 0 || string(ids) == "null" || string(ids) == "[]" {
		RespondFailure(c, http.StatusBadRequest, "No booking IDs provided")
		return
	}
	var list []FlexID
	if ids[0] != '[' || json.Unmarshal(ids, &list) != nil {
		RespondFailure(c, http.StatusBadRequest, "Invalid booking IDs format")
		return
	}
	clean := make([]int64, 0, len(list))
	for _, id := range list {
		clean = append(clean, int64(id))
	}

	deleted, err := a.bookings(c).BulkDelete(c.Request.Context(), clean)
	if err != nil {
		respondBookingError(c, "bulk_delete", err)
		return
	}
	if len(deleted) == 0 {
		RespondFailure(c, http.StatusBadRequest, "No bookings were deleted")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       services.BulkDeleteMessage(len(deleted)),
		"deleted_count": len(deleted),
	})
}
