package container

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/config"
	"github.com/FACorreiaa/trexense-api/internal/api/ads"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/api/hotel"
	"github.com/FACorreiaa/trexense-api/internal/api/plan"
	"github.com/FACorreiaa/trexense-api/internal/api/recommendation"
	"github.com/FACorreiaa/trexense-api/internal/api/user"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/platform/moderation"
	"github.com/FACorreiaa/trexense-api/internal/platform/storage"
	"github.com/FACorreiaa/trexense-api/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool
	Gate         *auth.Gate
	AuthHandler  *auth.HandlerImpl
	UserHandler  *user.HandlerImpl
	HotelHandler *hotel.HandlerImpl
	PlanHandler  *plan.HandlerImpl
	AdsHandler   *ads.HandlerImpl

	uploader  *storage.GCSUploader
	annotator *moderation.VisionAnnotator
}

// NewContainer opens the pool and the Google clients, then builds every
// repository, service and handler on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	credentials, err := decodeCredential(cfg.GCP.Credential)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.uploader, err = storage.NewGCSUploader(ctx, credentials, cfg.GCP.Bucket, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.annotator, err = moderation.NewVisionAnnotator(ctx, credentials)
	if err != nil {
		c.Close()
		return nil, err
	}

	ml := recommendation.NewMLClient(cfg.ML.BaseURL, cfg.ML.Timeout, logger)
	bot, err := newBot(ctx, cfg, ml, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	mail := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
	}, logger)
	tokens := auth.NewTokenService(cfg.JWT)

	// auth
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, tokens, mail, cfg.Server.BackendURL, cfg.JWT.VerifyEmailTTL, logger)
	c.AuthHandler = auth.NewHandlerImpl(authService, logger)
	c.Gate = auth.NewGate(tokens, authRepo, logger)

	// user
	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, tokens, mail, c.uploader, cfg.Server.BackendURL, cfg.JWT.ResetPasswordTTL, logger)
	c.UserHandler = user.NewHandlerImpl(userService, logger)

	// hotels
	places := hotel.NewHereClient(cfg.HERE.APIKey, cfg.HERE.GeocodeURL, cfg.HERE.DiscoverURL, cfg.HERE.Timeout, cfg.HERE.CacheTTL, logger)
	hotelRepo := hotel.NewRepository(pool, logger)
	hotelService := hotel.NewService(hotelRepo, places, ml, logger)
	c.HotelHandler = hotel.NewHandlerImpl(hotelService, logger)

	// plans
	planRepo := plan.NewRepository(pool, logger)
	planService := plan.NewService(planRepo, ml, bot, logger)
	c.PlanHandler = plan.NewHandlerImpl(planService, logger)

	// ads
	adsRepo := ads.NewRepository(pool, logger)
	adsService := ads.NewService(adsRepo, moderation.NewSafeSearch(c.annotator, logger), c.uploader, logger)
	c.AdsHandler = ads.NewHandlerImpl(adsService, logger)

	return c, nil
}

// RouterConfig hands the handlers to the router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		Logger:        c.Logger,
		Gate:          c.Gate,
		AuthHandler:   c.AuthHandler,
		UserHandler:   c.UserHandler,
		HotelHandler:  c.HotelHandler,
		PlanHandler:   c.PlanHandler,
		AdsHandler:    c.AdsHandler,
		AuthRateLimit: 20,
	}
}

// newBot picks the chat backend. The ML service answers unless bot.provider is "gemini".
func newBot(ctx context.Context, cfg *config.Config, ml *recommendation.MLClient, logger *slog.Logger) (recommendation.Bot, error) {
	if cfg.Bot.Provider != "gemini" {
		return ml, nil
	}
	if cfg.Bot.GeminiAPIKey == "" {
		return nil, errors.New("bot.geminiAPIKey must be set when bot.provider is gemini")
	}
	logger.Info("Using Gemini for the travel bot", slog.String("model", cfg.Bot.GeminiModel))
	return recommendation.NewGeminiBot(ctx, cfg.Bot.GeminiAPIKey, cfg.Bot.GeminiModel, logger)
}

func decodeCredential(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("gcp.credential must be set")
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("gcp.credential is not valid base64: %w", err)
	}
	return decoded, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.uploader != nil {
		if err := c.uploader.Close(); err != nil {
			c.Logger.Warn("Failed to close storage client", slog.Any("error", err))
		}
	}
	if c.annotator != nil {
		if err := c.annotator.Close(); err != nil {
			c.Logger.Warn("Failed to close vision client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
