package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/eventtide/ticketcore/config"
	"github.com/eventtide/ticketcore/internal/gateway"
	"github.com/eventtide/ticketcore/internal/handlers"
	"github.com/eventtide/ticketcore/internal/middleware"
	"github.com/eventtide/ticketcore/internal/notify"
	"github.com/eventtide/ticketcore/internal/services"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.RedisURL != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		publisher = notify.NewRedisPublisher(rdb, cfg.ActivatedChannel)
	}

	var gw gateway.Gateway
	switch cfg.GatewayMode {
	case "http":
		gw = gateway.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayClientID, cfg.GatewaySecret)
	default:
		gw = gateway.NewStubGateway()
	}

	reservations := services.NewReservationService(db)
	orders := services.NewOrderService(db, gw, cfg.Currency)
	refunds := services.NewRefundService(db, gw)
	reconciler := services.NewReconcileService(db, cfg.GatewaySecret, refunds, publisher)
	resale := services.NewResaleService(db)
	reaper := services.NewReaperService(db)
	checkins := services.NewCheckinService(db, services.CheckInPolicy{
		Enforce:    cfg.CheckInEnforce,
		EarlyEntry: cfg.CheckInEarly,
		LateEntry:  cfg.CheckInLate,
	})

	eventHandler := handlers.NewEventHandler(cfg.DefaultHoldWindow)
	bookingHandler := handlers.NewBookingHandler(reservations)
	paymentHandler := handlers.NewPaymentHandler(orders, reconciler, refunds)
	resaleHandler := handlers.NewResaleHandler(resale)
	checkinHandler := handlers.NewCheckinHandler(checkins)
	adminHandler := handlers.NewAdminHandler(reaper)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			if _, err := reaper.SweepExpired(context.Background()); err != nil {
				slog.Error("scheduled expiry sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			slog.Error("scheduler shutdown failed", "error", err)
		}
	}()

	r := gin.Default()
	r.Use(middleware.DatabaseMiddleware(db))

	v1 := r.Group("/v1")
	{
		public := v1.Group("/")
		{
			public.POST("/register", handlers.Register)
			public.POST("/login", handlers.Login)
			public.GET("/events", eventHandler.ListEvents)
			public.GET("/events/:id", eventHandler.GetEvent)
			public.POST("/payments/webhook", paymentHandler.Webhook)
			public.GET("/metrics", gin.WrapH(promhttp.Handler()))
			public.GET("/health", func(c *gin.Context) {
				status := gin.H{"status": "ok"}
				if rdb != nil {
					if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
						status["redis"] = "unreachable"
					}
				}
				c.JSON(http.StatusOK, status)
			})
		}

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuthMiddleware())
		{
			protected.POST("/events", middleware.RequireRole("organizer", "admin"), eventHandler.CreateEvent)
			protected.POST("/events/:id/classes", middleware.RequireRole("organizer", "admin"), eventHandler.CreateTicketClass)

			protected.POST("/bookings", bookingHandler.Book)
			protected.POST("/orders", paymentHandler.CreateOrder)
			protected.POST("/tickets/:id/return", paymentHandler.ReturnTicket)
			protected.GET("/tickets/:id/qr", checkinHandler.TicketQR)

			protected.POST("/listings", resaleHandler.List)
			protected.DELETE("/listings/:id", resaleHandler.Cancel)

			protected.POST("/checkin", middleware.RequireRole("organizer", "admin"), checkinHandler.CheckIn)
			protected.POST("/admin/release-expired", middleware.RequireRole("admin"), adminHandler.ReleaseExpired)
		}
	}

	slog.Info("server listening", "port", cfg.Port)
	return r.Run(":" + cfg.Port)
}
