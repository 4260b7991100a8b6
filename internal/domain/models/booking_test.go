package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingType(t *testing.T) {
	bt, ok := ParseBookingType(" hotel ")
	assert.True(t, ok)
	assert.Equal(t, TypeHotel, bt)

	_, ok = ParseBookingType("Cruise")
	assert.False(t, ok)
}

func TestVehicleLabel(t *testing.T) {
	assert.Equal(t, "Room Number", TypeHotel.VehicleLabel())
	assert.Equal(t, "Flight Number", TypeFlight.VehicleLabel())
	assert.Equal(t, "Vehicle Number", TypeTransport.VehicleLabel())
	assert.Equal(t, "Vehicle Number", TypeTour.VehicleLabel())
}

func TestBookingUpdateApplyKeepsUnspecifiedFields(t *testing.T) {
	b := Booking{
		ID:          7,
		Name:        "Asha",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		BookingType: "Hotel",
		BaseAmount:  1000,
		HotelName:   "Sea View",
		ApplyGST:    true,
	}
	phone := " 9123456780 "
	merged := BookingUpdate{Phone: &phone}.Apply(b)

	assert.Equal(t, "9123456780", merged.Phone)
	assert.Equal(t, "Asha", merged.Name)
	assert.Equal(t, "Sea View", merged.HotelName)
	assert.Equal(t, 1000.0, merged.BaseAmount)
	assert.True(t, merged.ApplyGST)
}

func TestBookingUpdateSwitchToSingleDropsCustomers(t *testing.T) {
	b := Booking{IsGroupBooking: true, Customers: []Customer{{Name: "A", Amount: 10}}}
	no := false
	merged := BookingUpdate{IsGroupBooking: &no}.Apply(b)
	assert.False(t, merged.IsGroupBooking)
	assert.Empty(t, merged.Customers)
}

func TestBookingUpdateEmpty(t *testing.T) {
	assert.True(t, BookingUpdate{}.Empty())
	name := "x"
	assert.False(t, BookingUpdate{Name: &name}.Empty())
}
