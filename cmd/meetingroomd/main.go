package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/config"
	httptransport "github.com/example/meetingroom/internal/http"
	"github.com/example/meetingroom/internal/logging"
	"github.com/example/meetingroom/internal/obs"
	"github.com/example/meetingroom/internal/persistence/sqlite"
	"github.com/example/meetingroom/internal/token"
)

func main() {
	// A .env file is optional; the environment wins when both are set.
	_ = godotenv.Load()

	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, nil)
	if err != nil {
		logger.Error("failed to build token issuer", "error", err)
		os.Exit(1)
	}

	obs.Init()

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	roomRepo := sqlite.NewRoomRepository(storage)
	meetingRepo := sqlite.NewMeetingRepository(storage)
	minuteRepo := sqlite.NewMinuteRepository(storage)
	attachmentRepo := sqlite.NewAttachmentRepository(storage)
	notificationRepo := sqlite.NewNotificationRepository(storage)
	refreshTokenRepo := sqlite.NewRefreshTokenRepository(storage)
	analyticsRepo := sqlite.NewAnalyticsRepository(storage)

	userService := application.NewUserService(userRepo, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, refreshTokenRepo, issuer, nil, token.NewRefreshToken, idGenerator, now, cfg.RefreshTokenTTL, logger)
	roomService := application.NewRoomService(roomRepo, meetingRepo, idGenerator, now, logger)
	meetingService := application.NewMeetingService(meetingRepo, roomRepo, userRepo, notificationRepo, idGenerator, now, logger)
	minuteService := application.NewMinuteService(minuteRepo, meetingRepo, userRepo, notificationRepo, idGenerator, now, logger)
	attachmentService := application.NewAttachmentService(attachmentRepo, meetingRepo, minuteRepo, cfg.MaxUploadBytes, idGenerator, now, logger)
	notificationService := application.NewNotificationService(notificationRepo, userRepo, idGenerator, now)
	analyticsService := application.NewAnalyticsService(analyticsRepo, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Rooms:         httptransport.NewRoomHandler(roomService, logger),
		Meetings:      httptransport.NewMeetingHandler(meetingService, roomService, logger),
		Minutes:       httptransport.NewMinuteHandler(minuteService, logger),
		Attachments:   httptransport.NewAttachmentHandler(attachmentService, cfg.MaxUploadBytes, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Analytics:     httptransport.NewAnalyticsHandler(analyticsService, logger),
		Metrics:       obs.Handler(),
	})

	protected := httptransport.RequireAuth(issuer, logger)(router)
	gate := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httptransport.IsPublicRoute(r) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	handler := httptransport.RequestLogger(logger)(obs.Instrument(corsMiddleware.Handler(gate)))

	go purgeExpiredTokens(ctx, authService, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meeting room API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// purgeExpiredTokens drops stale refresh tokens hourly until shutdown.
func purgeExpiredTokens(ctx context.Context, auth *application.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredTokens(ctx); err != nil {
				logger.Error("failed to purge expired refresh tokens", "error", err)
			}
		}
	}
}
