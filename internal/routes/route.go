package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/container"
	"github.com/joshua-takyi/tourbay/internal/handlers"
	"github.com/joshua-takyi/tourbay/internal/middleware"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     c.Config.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	frontend := c.Config.FrontendURL

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "tourbay-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.SignUp(c.UserService))
		v1.POST("/login", handlers.Login(c.UserService))
		v1.POST("/logout", handlers.Logout(c.UserService))
		v1.POST("/refresh", handlers.Refresh(c.UserService))
		v1.POST("/password/reset", handlers.PasswordReset(c.UserService))
		v1.GET("/auth/google", handlers.GoogleAuth(c.UserService, frontend))
		v1.GET("/auth/google/callback", handlers.GoogleAuthCallback(frontend))

		v1.GET("/tours", handlers.ListTours(c.TourService))
		v1.GET("/tours/:id", handlers.GetTour(c.TourService))
		v1.GET("/tours/:id/reviews", handlers.ListTourReviews(c.ReviewService))
		v1.GET("/guides", handlers.ListGuides(c.GuideService))
		v1.GET("/guides/:id", handlers.GetGuide(c.GuideService))
		v1.GET("/guides/:id/reviews", handlers.ListGuideReviews(c.ReviewService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(c.TokenValidator, c.UserService, c.Logger))

	protected.GET("/profile", handlers.Profile(c.UserService))
	protected.POST("/auth/verify/resend", handlers.ResendVerification(c.UserService))
	protected.POST("/auth/reauthenticate", handlers.Reauthenticate(c.UserService))

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("/:id", handlers.GetUser(c.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(c.UserService))
		userRoutes.DELETE("/:id", handlers.DeleteUser(c.UserService))
		userRoutes.POST("/:id/avatar", handlers.UploadAvatar(c.UserService))
	}

	guideOnly := middleware.RequireRole(models.RoleGuide)

	guideRoutes := protected.Group("/guides/me", guideOnly)
	{
		guideRoutes.PATCH("", handlers.UpdateMyGuide(c.GuideService))
		guideRoutes.POST("/documents", handlers.UploadDocument(c.GuideService))
	}

	registerTourRoutes(protected.Group("/tours"), c.TourService)

	favRoutes := protected.Group("/favourites")
	{
		favRoutes.GET("", handlers.ListSavedTours(c.FavouriteService))
		favRoutes.PUT("/:id", handlers.SaveTour(c.FavouriteService))
		favRoutes.DELETE("/:id", handlers.RemoveSavedTour(c.FavouriteService))
	}

	checkoutRoutes := protected.Group("/checkout")
	{
		checkoutRoutes.POST("", handlers.StartCheckout(c.CheckoutService))
		checkoutRoutes.GET("/:id", handlers.GetCheckout(c.CheckoutService))
		checkoutRoutes.POST("/:id/pay", handlers.PayCheckout(c.CheckoutService))
	}

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.GET("/me", handlers.MyBookings(c.BookingService))
		bookingRoutes.GET("/guide", guideOnly, handlers.GuideBookings(c.BookingService))
		bookingRoutes.GET("/:id", handlers.GetBooking(c.BookingService))
		bookingRoutes.GET("/:id/refund", handlers.RefundQuote(c.RefundService))
		bookingRoutes.POST("/:id/refund", handlers.RequestRefund(c.RefundService))
		bookingRoutes.POST("/:id/review", handlers.CreateReview(c.ReviewService))
	}

	convRoutes := protected.Group("/conversations")
	{
		convRoutes.GET("", handlers.ListConversations(c.MessageService))
		convRoutes.POST("", handlers.StartConversation(c.MessageService))
		convRoutes.GET("/:id/messages", handlers.ListMessages(c.MessageService))
		convRoutes.POST("/:id/messages", handlers.SendMessage(c.MessageService))
		convRoutes.POST("/:id/read", handlers.MarkRead(c.MessageService))
		convRoutes.GET("/:id/stream", handlers.StreamMessages(c.MessageService))
	}

	adminRoutes := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		adminRoutes.GET("/stats", handlers.AdminStats(c.AdminService))
		adminRoutes.GET("/bookings", handlers.AdminBookings(c.AdminService))
		adminRoutes.GET("/bookings/export", handlers.ExportBookings(c.AdminService))
	}

	return r
}

// registerTourRoutes mounts the tour write routes. Guides manage their own
// tours; admins may also toggle activity on any tour.
func registerTourRoutes(g *gin.RouterGroup, tours *services.TourService) {
	guideOnly := middleware.RequireRole(models.RoleGuide)
	guideOrAdmin := middleware.RequireRole(models.RoleGuide, models.RoleAdmin)

	g.POST("", guideOnly, handlers.CreateTour(tours))
	g.PATCH("/:id", guideOnly, handlers.UpdateTour(tours))
	g.POST("/:id/deactivate", guideOrAdmin, handlers.SetTourActive(tours, false))
	g.POST("/:id/activate", guideOrAdmin, handlers.SetTourActive(tours, true))
}
