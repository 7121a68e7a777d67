package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func StartCheckout(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		draft, err := cs.Start(c.Request.Context(), actor, &req)
		if err != nil {
			fail(c, err, "Failed to start checkout")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "Checkout started", draft)
	}
}

func GetCheckout(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		draft, err := cs.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to load checkout")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", draft)
	}
}

func PayCheckout(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req struct {
			PaymentMethod string `json:"payment_method" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		res, err := cs.Complete(c.Request.Context(), actor, c.Param("id"), req.PaymentMethod)
		if err != nil {
			fail(c, err, "Payment failed")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "Booking confirmed", res)
	}
}

func MyBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		bookings, err := b.ListForTraveler(c.Request.Context(), actor)
		if err != nil {
			fail(c, err, "Failed to list bookings")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", bookings)
	}
}

func GuideBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		bookings, err := b.ListForGuide(c.Request.Context(), actor)
		if err != nil {
			fail(c, err, "Failed to list bookings")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", bookings)
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		booking, err := b.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to load booking")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", booking)
	}
}

func RefundQuote(r *services.RefundService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		decision, err := r.Quote(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to quote refund")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", decision)
	}
}

func RequestRefund(r *services.RefundService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		res, err := r.Request(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Refund failed")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Booking cancelled", res)
	}
}

func CreateReview(r *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.CreateReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		review, err := r.Create(c.Request.Context(), actor, c.Param("id"), &req)
		if err != nil {
			fail(c, err, "Failed to submit review")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "Review submitted", review)
	}
}
