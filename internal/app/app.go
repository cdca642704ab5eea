package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cratey/cratey/internal/adapters/email"
	"github.com/cratey/cratey/internal/adapters/httpserver"
	"github.com/cratey/cratey/internal/adapters/payments/stripe"
	"github.com/cratey/cratey/internal/adapters/ratelimit"
	pgrepo "github.com/cratey/cratey/internal/adapters/repo/postgres"
	"github.com/cratey/cratey/internal/adapters/report"
	"github.com/cratey/cratey/internal/domain"
	"github.com/cratey/cratey/internal/usecase"
	"github.com/cratey/cratey/internal/views"
)

const accessLinkWindow = 60 * time.Second

type App struct {
	Config        Config
	DB            *gorm.DB
	Redis         *redis.Client
	Tmpl          *template.Template
	Gateway       *stripe.Gateway
	ProductUC     *usecase.ProductUC
	ArtistUC      *usecase.ArtistUC
	CheckoutUC    *usecase.CheckoutUC
	LibraryUC     *usecase.LibraryUC
	FulfillmentUC *usecase.FulfillmentUC
	AdminUC       *usecase.AdminUC
	ReaccessUC    *usecase.ReaccessUC
}

func OpenDB(cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if cfg.IsProduction() {
		gcfg.Logger = logger.Default.LogMode(logger.Warn)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func NewApp(ctx context.Context, cfg Config, db *gorm.DB) (*App, error) {
	prodRepo := pgrepo.NewProductRepo(db)
	artistRepo := pgrepo.NewArtistRepo(db)
	orderRepo := pgrepo.NewOrderRepo(db)
	libRepo := pgrepo.NewLibraryRepo(db)
	tokenRepo := pgrepo.NewAccessTokenRepo(db)
	store := pgrepo.NewFulfillmentStore(db)

	tmpl, err := views.EmailTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	mailer, err := email.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP not configured, buyer emails will be skipped")
	}

	app := &App{Config: cfg, DB: db, Tmpl: tmpl}

	var limiter domain.RateLimiter
	if cfg.RedisURL != "" {
		client, err := ratelimit.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.Redis = client
		limiter = ratelimit.NewRedis(client, accessLinkWindow)
	} else {
		limiter = ratelimit.NewMemory(accessLinkWindow)
	}

	gateway := stripe.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if !gateway.WebhookConfigured() {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, webhook will answer 500")
	}
	if cfg.SecretKey == "" {
		log.Warn().Msg("SECRET_KEY not set, signed audio URLs are disabled")
	}
	app.Gateway = gateway

	notifier := &usecase.Notifier{Mailer: mailer, Artists: artistRepo, Tmpl: tmpl, BaseURL: cfg.BaseURL}
	app.ProductUC = &usecase.ProductUC{Products: prodRepo, Library: libRepo}
	app.ArtistUC = &usecase.ArtistUC{Artists: artistRepo, Products: prodRepo}
	app.CheckoutUC = &usecase.CheckoutUC{
		Products: prodRepo,
		Library:  libRepo,
		Gateway:  gateway,
		BaseURL:  cfg.BaseURL,
		Currency: cfg.Currency,
	}
	app.LibraryUC = &usecase.LibraryUC{
		Library:  libRepo,
		Tokens:   tokenRepo,
		Limiter:  limiter,
		Notifier: notifier,
		Secret:   cfg.SecretKey,
		BaseURL:  cfg.BaseURL,
	}
	app.FulfillmentUC = &usecase.FulfillmentUC{
		Products:        prodRepo,
		Library:         libRepo,
		Store:           store,
		Notifier:        notifier,
		MissingProducts: cfg.MissingProducts,
	}
	app.AdminUC = &usecase.AdminUC{
		Orders:   orderRepo,
		Gateway:  gateway,
		Exporter: report.NewXLSX(),
		Backups:  pgrepo.NewBackupRepo(db),
	}
	app.ReaccessUC = &usecase.ReaccessUC{Library: libRepo, Notifier: notifier}
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Verifier:    a.Gateway,
		Fulfillment: a.FulfillmentUC,
		Checkout:    a.CheckoutUC,
		Library:     a.LibraryUC,
		Products:    a.ProductUC,
		Artists:     a.ArtistUC,
		Admin:       a.AdminUC,
		AdminKey:    a.Config.AdminAPIKey,
	})
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.Artist{}, &domain.Product{}, &domain.Order{}, &domain.LibraryItem{}, &domain.LibraryAccessToken{},
	); err != nil {
		return err
	}

	if err := a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_library_items_buyer_product ON library_items (buyer_email, product_id)").Error; err != nil {
		return err
	}

	if a.DB.Dialector.Name() == "postgres" {
		_ = a.DB.Exec("ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_split").Error
		_ = a.DB.Exec("ALTER TABLE orders ADD CONSTRAINT chk_orders_split CHECK (platform_fee_cents + artist_payout_cents = amount_cents)").Error
		_ = a.DB.Exec("ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_edition").Error
		_ = a.DB.Exec("ALTER TABLE products ADD CONSTRAINT chk_products_edition CHECK (edition_type <> 'limited' OR total_sales <= edition_limit)").Error
		_ = a.DB.Exec("ALTER TABLE library_access_tokens DROP COLUMN IF EXISTS used").Error
	}

	if a.Config.SeedDemo {
		var count int64
		if err := a.DB.Model(&domain.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return seedDemo(context.Background(), a)
		}
	}
	return nil
}
