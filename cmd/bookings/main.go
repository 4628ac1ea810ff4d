package main

import (
	"gymcore/internal/bookings/handler"
	"gymcore/internal/bookings/repository"
	"gymcore/internal/bookings/service"
	"gymcore/internal/bookings/validator"
	qualificationsrepo "gymcore/internal/qualifications/repository"
	schedulesrepo "gymcore/internal/schedules/repository"
	"gymcore/pkg/app"
	"gymcore/pkg/clock"
	"gymcore/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	cfg.SetKafka()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandler(cfg))
	serverApp.Run()
}

func initHandler(cfg *config.Config) *handler.BookingHandler {
	clk := clock.NewRealClock()

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)
	if cfg.RedisEnabled() {
		lockRepo = repository.NewRedisBookingLockRepository(cfg)
	}
	windowRepo := schedulesrepo.NewMongoAvailabilityWindowRepository(cfg)
	qualificationRepo := qualificationsrepo.NewMongoQualificationRepository(cfg)

	checker := service.NewAvailabilityChecker(bookingRepo, windowRepo, cfg)
	search := service.NewTrainerSearch(qualificationRepo, checker, cfg)

	events := service.NewNoopEventPublisher()
	if cfg.Client.Bookings != nil {
		events = service.NewKafkaEventPublisher(cfg.Client.Bookings, clk, cfg)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		checker,
		validator.NewBookingValidator(cfg.Log),
		events,
		clk,
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"events_enabled", cfg.Client.Bookings != nil,
		"redis_locks", cfg.RedisEnabled(),
	)
	return handler.NewBookingHandler(bookingService, checker, search, cfg.Log)
}
