package models

import (
	"strings"
	"time"
)

// BookingType is the kind of service booked.
type BookingType string

const (
	TypeHotel     BookingType = "Hotel"
	TypeFlight    BookingType = "Flight"
	TypeTrain     BookingType = "Train"
	TypeBus       BookingType = "Bus"
	TypeTransport BookingType = "Transport"
	TypeTour      BookingType = "Tour"
	TypeOther     BookingType = "Other"
)

var BookingTypes = []BookingType{TypeHotel, TypeFlight, TypeTrain, TypeBus, TypeTransport, TypeTour, TypeOther}

// ParseBookingType matches case-insensitively and returns the canonical spelling.
func ParseBookingType(s string) (BookingType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range BookingTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// IsJourney reports whether the type uses operator/from/to fields instead of hotel fields.
func (t BookingType) IsJourney() bool {
	switch t {
	case TypeFlight, TypeTrain, TypeBus, TypeTransport:
		return true
	}
	return false
}

// VehicleLabel is the caption used for vehicle_number on invoices.
func (t BookingType) VehicleLabel() string {
	switch t {
	case TypeHotel:
		return "Room Number"
	case TypeFlight:
		return "Flight Number"
	case TypeTrain:
		return "Train Number"
	case TypeBus:
		return "Bus Number"
	default:
		return "Vehicle Number"
	}
}

// Booking is one reservation. Group bookings carry Customers and derive
// BaseAmount from them; single bookings have no customers.
type Booking struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	BookingType        string     `json:"booking_type"`
	BaseAmount         float64    `json:"base_amount"`
	GST                float64    `json:"gst"`
	Total              float64    `json:"total"`
	CreatedAt          time.Time  `json:"-"`
	Date               string     `json:"date"`
	HotelName          string     `json:"hotel_name"`
	HotelCity          string     `json:"hotel_city"`
	HotelCountry       string     `json:"hotel_country"`
	OperatorName       string     `json:"operator_name"`
	FromJourney        string     `json:"from_journey"`
	FromJourneyCountry string     `json:"from_journey_country"`
	ToJourney          string     `json:"to_journey"`
	ToJourneyCountry   string     `json:"to_journey_country"`
	VehicleNumber      string     `json:"vehicle_number"`
	ServiceDate        string     `json:"service_date"`
	ServiceTime        string     `json:"service_time"`
	CustomerAddress    string     `json:"customer_address"`
	ApplyGST           bool       `json:"apply_gst"`
	IsGroupBooking     bool       `json:"is_group_booking"`
	Customers          []Customer `json:"customers"`
}

// Customer is one line item of a group booking.
type Customer struct {
	ID        int64   `json:"id"`
	BookingID int64   `json:"booking_id"`
	Name      string  `json:"customer_name"`
	Email     string  `json:"customer_email"`
	Phone     string  `json:"customer_phone"`
	SeatRoom  string  `json:"seat_room_number"`
	Amount    float64 `json:"customer_amount"`
}

// BookingSummary is a search result row.
type BookingSummary struct {
	Booking
	CustomerCount int      `json:"customer_count"`
	CustomerNames []string `json:"customer_names"`
}

// BookingUpdate supports PATCH-style updates via key presence.
type BookingUpdate struct {
	Name               *string
	Email              *string
	Phone              *string
	BookingType        *string
	BaseAmount         *float64
	ApplyGST           *bool
	IsGroupBooking     *bool
	HotelName          *string
	HotelCity          *string
	HotelCountry       *string
	OperatorName       *string
	FromJourney        *string
	FromJourneyCountry *string
	ToJourney          *string
	ToJourneyCountry   *string
	VehicleNumber      *string
	ServiceDate        *string
	ServiceTime        *string
	CustomerAddress    *string
	Customers          *[]Customer
}

// Apply merges the present fields of u into b and returns the result.
func (u BookingUpdate) Apply(b Booking) Booking {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setStr(&b.Name, u.Name)
	setStr(&b.Email, u.Email)
	setStr(&b.Phone, u.Phone)
	setStr(&b.BookingType, u.BookingType)
	setStr(&b.HotelName, u.HotelName)
	setStr(&b.HotelCity, u.HotelCity)
	setStr(&b.HotelCountry, u.HotelCountry)
	setStr(&b.OperatorName, u.OperatorName)
	setStr(&b.FromJourney, u.FromJourney)
	setStr(&b.FromJourneyCountry, u.FromJourneyCountry)
	setStr(&b.ToJourney, u.ToJourney)
	setStr(&b.ToJourneyCountry, u.ToJourneyCountry)
	setStr(&b.VehicleNumber, u.VehicleNumber)
	setStr(&b.ServiceDate, u.ServiceDate)
	setStr(&b.ServiceTime, u.ServiceTime)
	setStr(&b.CustomerAddress, u.CustomerAddress)
	if u.BaseAmount != nil {
		b.BaseAmount = *u.BaseAmount
	}
	if u.ApplyGST != nil {
		b.ApplyGST = *u.ApplyGST
	}
	if u.IsGroupBooking != nil {
		b.IsGroupBooking = *u.IsGroupBooking
	}
	if u.Customers != nil {
		b.Customers = append([]Customer(nil), (*u.Customers)...)
	}
	if !b.IsGroupBooking {
		b.Customers = nil
	}
	return b
}

// Empty reports whether no field is present.
func (u BookingUpdate) Empty() bool {
	return u == (BookingUpdate{})
}
