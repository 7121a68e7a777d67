package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func SaveTour(f *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		saved, err := f.SaveTour(c.Request.Context(), actor, helpers.StringTrim(c.Param("id")))
		if err != nil {
			fail(c, err, "Failed to save tour")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Tour saved", saved)
	}
}

func RemoveSavedTour(f *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if err := f.RemoveTour(c.Request.Context(), actor, helpers.StringTrim(c.Param("id"))); err != nil {
			fail(c, err, "Failed to remove saved tour")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Tour removed from favourites", nil)
	}
}

func ListSavedTours(f *services.FavouriteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		saved, err := f.List(c.Request.Context(), actor)
		if err != nil {
			fail(c, err, "Failed to list saved tours")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", saved)
	}
}
