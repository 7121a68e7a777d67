package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/tourbay/internal/cache"
	"github.com/joshua-takyi/tourbay/internal/config"
	"github.com/joshua-takyi/tourbay/internal/events"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/payments"
	"github.com/joshua-takyi/tourbay/internal/services"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients are the connections opened in main. Redis and Nats may be nil, in
// which case in-process stand-ins are used. SupabaseService may be nil too.
type Clients struct {
	Supabase        *supabase.Client
	SupabaseService *supabase.Client
	Mongo           *mongo.Client
	Cloudinary      *cloudinary.Cloudinary
	Redis           *redis.Client
	Nats            *nats.Conn
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Mongo          *models.MongodbRepo
	TokenValidator *helpers.TokenValidator
	Bus            events.Bus
	Cache          cache.Store

	UserService      *services.UserService
	GuideService     *services.GuideService
	TourService      *services.TourService
	FavouriteService *services.FavouriteService
	BookingService   *services.BookingService
	CheckoutService  *services.CheckoutService
	RefundService    *services.RefundService
	ReviewService    *services.ReviewService
	MessageService   *services.MessageService
	AdminService     *services.AdminService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, clients Clients) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.StorageBucket)
	if clients.SupabaseService != nil {
		supa.WithServiceClient(clients.SupabaseService)
	} else {
		logger.Warn("SUPABASE_SERVICE_ROLE_KEY not set, tour ratings are written with the anon key")
	}
	mongoRepo := models.MongodbNewRepo(clients.Mongo, cfg.MongoDBName)

	var store cache.Store
	if clients.Redis != nil {
		store = cache.NewRedisStore(clients.Redis)
	} else {
		logger.Warn("Redis not configured, using in-memory cache")
		store = cache.NewMemoryStore()
	}

	var bus events.Bus
	if clients.Nats != nil {
		bus = events.NewNatsBus(clients.Nats)
	} else {
		logger.Warn("NATS not configured, using in-process event bus")
		bus = events.NewLocalBus()
	}

	loc := cfg.Location()
	uploader := services.NewCloudinaryUploader(clients.Cloudinary)
	gateway := payments.NewSimulatedGateway()

	guideService := services.NewGuideService(mongoRepo, supa, supa, logger)
	userService := services.NewUserService(supa, guideService, uploader, logger)
	tourService := services.NewTourService(supa, store, uploader, cfg.Booking.TourCacheTTL, logger)
	bookingService := services.NewBookingService(mongoRepo, supa, mongoRepo, bus, loc, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Mongo:          mongoRepo,
		TokenValidator: helpers.NewTokenValidator(cfg.SupabaseURL, cfg.IsDevelopment()),
		Bus:            bus,
		Cache:          store,

		UserService:      userService,
		GuideService:     guideService,
		TourService:      tourService,
		FavouriteService: services.NewFavouriteService(mongoRepo, supa, logger),
		BookingService:   bookingService,
		CheckoutService: services.NewCheckoutService(store, bookingService, mongoRepo, mongoRepo, gateway,
			cfg.Booking.CheckoutTTL, cfg.Booking.Currency, logger),
		RefundService:  services.NewRefundService(mongoRepo, mongoRepo, gateway, bus, loc, logger),
		ReviewService:  services.NewReviewService(mongoRepo, mongoRepo, mongoRepo, tourService, logger),
		MessageService: services.NewMessageService(mongoRepo, supa, bus, logger),
		AdminService:   services.NewAdminService(supa, mongoRepo, mongoRepo, logger),
	}
}
