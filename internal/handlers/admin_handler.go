package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func bookingFilterFrom(c *gin.Context) models.BookingFilter {
	return models.BookingFilter{
		TravelerID: c.Query("traveler_id"),
		GuideID:    c.Query("guide_id"),
		Status:     c.Query("status"),
		Limit:      queryInt(c, "limit", 0),
	}
}

func AdminStats(a *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		stats, err := a.Stats(c.Request.Context(), actor)
		if err != nil {
			fail(c, err, "Failed to load dashboard stats")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", stats)
	}
}

func AdminBookings(a *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		bookings, err := a.ListBookings(c.Request.Context(), actor, bookingFilterFrom(c))
		if err != nil {
			fail(c, err, "Failed to list bookings")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", bookings)
	}
}

// ExportBookings buffers the workbook so a failure can still be reported as
// JSON instead of a truncated download.
func ExportBookings(a *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if _, err := a.ExportBookings(c.Request.Context(), actor, bookingFilterFrom(c), &buf); err != nil {
			fail(c, err, "Failed to export bookings")
			return
		}

		filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
