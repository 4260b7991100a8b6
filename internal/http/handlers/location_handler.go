package handlers

import (
	"net/http"

	"travelbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/cities?q=&limit=&country=
func (a *API) Cities(c *gin.Context) {
	limit := services.ClampLimit(queryInt(c, "limit", services.DefaultSuggestionLimit))
	out := a.locations(c).Cities(c.Request.Context(), c.Query("q"), limit, c.Query("country"))
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

// GET /api/countries?q=&limit=
func (a *API) Countries(c *gin.Context) {
	limit := services.ClampLimit(queryInt(c, "limit", services.DefaultSuggestionLimit))
	c.JSON(http.StatusOK, gin.H{"suggestions": a.locations(c).Countries(c.Query("q"), limit)})
}

// GET /api/hotel_areas/:city
func (a *API) HotelAreas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"areas": a.locations(c).HotelAreas(c.Param("city"))})
}

// GET /api/popular_routes
func (a *API) PopularRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": a.locations(c).PopularRoutes()})
}
