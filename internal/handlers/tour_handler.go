package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func tourID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid tour ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func ListTours(t *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.TourFilter{
			Location: c.Query("location"),
			Category: c.Query("category"),
			MinPrice: queryFloat(c, "min_price"),
			MaxPrice: queryFloat(c, "max_price"),
			GuideID:  c.Query("guide_id"),
			Page:     queryInt(c, "page", 1),
			Limit:    queryInt(c, "limit", 20),
		}
		if filter.GuideID != "" {
			if _, err := uuid.Parse(filter.GuideID); err != nil {
				helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid guide ID format", nil)
				return
			}
		}

		page, err := t.ListTours(c.Request.Context(), filter)
		if err != nil {
			fail(c, err, "Failed to list tours")
			return
		}
		helpers.PaginatedResponse(c, http.StatusOK, page.Tours, page.Page, page.Limit, page.Total)
	}
}

func GetTour(t *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := tourID(c)
		if !ok {
			return
		}
		tour, err := t.GetTour(c.Request.Context(), id)
		if err != nil {
			fail(c, err, "Failed to load tour")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", tour)
	}
}

func CreateTour(t *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.CreateTourRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		tour, err := t.CreateTour(c.Request.Context(), actor, &req)
		if err != nil {
			fail(c, err, "Failed to create tour")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "Tour created", tour)
	}
}

func UpdateTour(t *services.TourService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, ok := tourID(c)
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		tour, err := t.UpdateTour(c.Request.Context(), actor, id, fields)
		if err != nil {
			fail(c, err, "Failed to update tour")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Tour updated", tour)
	}
}

// SetTourActive serves both the activate and deactivate routes.
func SetTourActive(t *services.TourService, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		id, ok := tourID(c)
		if !ok {
			return
		}

		tour, err := t.SetActive(c.Request.Context(), actor, id, active)
		if err != nil {
			fail(c, err, "Failed to update tour")
			return
		}
		message := "Tour deactivated"
		if active {
			message = "Tour activated"
		}
		helpers.SuccessResponse(c, http.StatusOK, message, tour)
	}
}

func ListTourReviews(r *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := tourID(c)
		if !ok {
			return
		}
		reviews, err := r.ListForTour(c.Request.Context(), id.String(), queryInt(c, "limit", 0))
		if err != nil {
			fail(c, err, "Failed to list reviews")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", reviews)
	}
}
