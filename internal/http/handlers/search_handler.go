package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/services"
	"travelbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// GET /api/search_bookings
func (a *API) SearchBookings(c *gin.Context) {
	page := domain.PageRequest{
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", domain.DefaultPerPage),
	}
	res, err := a.bookings(c).Search(c.Request.Context(), c.Query("q"), c.Query("type"), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bookingTypeNames() []string {
	out := make([]string, 0, len(models.BookingTypes))
	for _, t := range models.BookingTypes {
		out = append(out, string(t))
	}
	return out
}

func (a *API) pageData() gin.H {
	cfg := a.settings()
	return gin.H{
		"gst_percent":   cfg.GSTPercent(),
		"business":      cfg.Business(),
		"booking_types": bookingTypeNames(),
	}
}

// GET /
func (a *API) BookingForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", a.pageData())
}

// GET /bookings
func (a *API) BookingsPage(c *gin.Context) {
	c.HTML(http.StatusOK, "bookings.html", a.pageData())
}

// GET /search is kept for old links.
func (a *API) SearchRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, "/bookings")
}

var exportHeaders = []string{
	"ID", "Name", "Email", "Phone", "Booking Type", "Base Amount", "GST", "Total", "Date",
	"Hotel Name", "Hotel City", "Operator", "From", "To",
}

// GET /export_bookings
func (a *API) ExportBookings(c *gin.Context) {
	rows, err := a.bookings(c).ListAll(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeaders)
	for _, b := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(b.ID, 10),
			b.Name,
			b.Email,
			b.Phone,
			b.BookingType,
			utils.FormatMoney(b.BaseAmount),
			utils.FormatMoney(b.GST),
			utils.FormatMoney(b.Total),
			b.Date,
			b.HotelName,
			b.HotelCity,
			b.OperatorName,
			b.FromJourney,
			b.ToJourney,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		RespondDomainError(c, err)
		return
	}

	filename := services.AgencySlug(a.settings()) + "_bookings_" + utils.DayStamp(a.now()) + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
