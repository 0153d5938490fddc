package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"property-marketplace/config"
	"property-marketplace/generator"
	"property-marketplace/handlers"
	"property-marketplace/metrics"
	"property-marketplace/notify"
	"property-marketplace/routes"
	"property-marketplace/scraper"
	"property-marketplace/services"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

const usage = `usage: property-marketplace [command]

commands:
  serve                    run the HTTP API (default)
  seed <file.yaml>         store listings and bookings from a seed file
  import <url>...          import listings from public listing pages
  report                   print marketplace insights
  export-bookings <path>   write bookings to a .csv or .xlsx file
`

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	store, err := openStore(cfg, logger, retry)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(2)
	}

	logger.Info("=== Property Marketplace: %s ===", cmd)
	logger.Info("Config: store: %s | concurrency: %d | rate: %dms | retries: %d",
		cfg.StoreDriver, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	if err := store.Connect(ctx); err != nil {
		logger.Error("Failed to connect to the %s store: %v", cfg.StoreDriver, err)
		if cfg.StoreDriver == config.DriverPostgres {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		os.Exit(1)
	}
	defer store.Close()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, store, logger, retry)
	case "seed":
		err = runSeed(ctx, args, store, logger)
	case "import":
		err = runImport(ctx, cfg, args, store, logger, retry)
	case "report":
		err = runReport(store, logger)
	case "export-bookings":
		err = runExport(args, store, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		logger.Error("%s failed: %v", cmd, err)
		store.Close()
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger *utils.Logger, retry *utils.RetryConfig) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return storage.NewPostgresStore(cfg.DSN(), cfg.PostgresListen, logger, retry), nil
	case config.DriverMongo:
		return storage.NewMongoStore(cfg.MongoURI, cfg.MongoDatabase, logger, retry), nil
	case config.DriverMemory:
		logger.Warn("Using the in-memory store; data is lost on exit")
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q (want postgres, mongo or memory)", cfg.StoreDriver)
}

func serve(ctx context.Context, cfg *config.Config, store storage.Store, logger *utils.Logger, retry *utils.RetryConfig) error {
	metrics.Register()

	catalog := services.NewCatalog(store, logger)
	defer catalog.Close()

	listings := services.NewListingService(store, logger)
	bookings := services.NewBookingService(store, logger)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiryHours)
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; admin endpoints are unavailable")
	}

	ctrl := routes.Controllers{
		Listings:     handlers.NewListingController(catalog, listings, store, logger),
		Bookings:     handlers.NewBookingController(catalog, bookings, logger),
		Admin:        handlers.NewAdminController(issuer, cfg.AdminPassword, catalog, services.NewInsightService(logger), logger),
		Descriptions: handlers.NewDescriptionController(descriptionService(cfg, logger, retry)),
	}

	if notifier := bookingNotifier(cfg, logger); notifier != nil {
		unsubscribe := notifier.Start(store)
		defer notifier.Wait()
		defer unsubscribe()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	routes.RegisterRoutes(e, ctrl, issuer)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Port)
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func descriptionService(cfg *config.Config, logger *utils.Logger, retry *utils.RetryConfig) *services.DescriptionService {
	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY not set; description generation is disabled")
		return nil
	}

	var gen generator.Generator = generator.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		ttl := time.Duration(cfg.DescriptionCacheTTL) * time.Minute
		gen = generator.NewCachedGenerator(gen, client, ttl, logger)
		logger.Info("Caching descriptions in Redis at %s for %v", cfg.RedisAddr, ttl)
	}
	return services.NewDescriptionService(gen, retry, logger)
}

func bookingNotifier(cfg *config.Config, logger *utils.Logger) *notify.BookingNotifier {
	if cfg.TelegramBotToken == "" || len(cfg.TelegramAdminChatIDs) == 0 {
		return nil
	}
	bot, err := notify.NewTelegramSender(cfg.TelegramBotToken)
	if err != nil {
		logger.Warn("Booking notifications disabled: %v", err)
		return nil
	}
	logger.Info("Notifying %d admin chats about new bookings", len(cfg.TelegramAdminChatIDs))
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)
	return notify.NewBookingNotifier(bot, cfg.TelegramAdminChatIDs, pool, logger)
}

func runSeed(ctx context.Context, args []string, store storage.Store, logger *utils.Logger) error {
	if len(args) != 1 {
		return errors.New("seed needs exactly one file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	seed, err := services.LoadSeed(f)
	if err != nil {
		return err
	}
	summary, err := services.Seed(ctx, seed,
		services.NewListingService(store, logger), services.NewBookingService(store, logger))
	logger.Info("Seeded %d listings and %d bookings (%d rejected)",
		summary.Listings, summary.Bookings, summary.Rejected)
	return err
}

func runImport(ctx context.Context, cfg *config.Config, args []string, store storage.Store, logger *utils.Logger, retry *utils.RetryConfig) error {
	if len(args) == 0 {
		return errors.New("import needs at least one URL")
	}
	s := scraper.New(cfg.ChromeBin, logger, retry)
	defer s.Close()

	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)
	importer := services.NewImporter(s, services.NewListingService(store, logger), pool, logger)

	failed := 0
	for _, r := range importer.Import(ctx, args) {
		if r.Err != nil {
			failed++
			logger.Error("  %s: %v", r.URL, r.Err)
			continue
		}
		logger.Info("  %s → %q (%s)", r.URL, r.Listing.Name, r.Listing.ID)
	}
	if failed == len(args) {
		return errors.New("no listings were imported")
	}
	return nil
}

func runReport(store storage.Store, logger *utils.Logger) error {
	catalog := services.NewCatalog(store, logger)
	defer catalog.Close()

	insights := services.NewInsightService(logger)
	insights.Print(os.Stdout, insights.Generate(catalog.Listings(), catalog.Bookings()))
	return nil
}

func runExport(args []string, store storage.Store, logger *utils.Logger) error {
	if len(args) != 1 {
		return errors.New("export-bookings needs exactly one output path")
	}
	path := args[0]

	catalog := services.NewCatalog(store, logger)
	defer catalog.Close()

	var (
		exporter storage.BookingExporter
		err      error
	)
	if strings.HasSuffix(strings.ToLower(path), "."+storage.FormatXLSX) {
		exporter, err = storage.NewXLSXFileWriter(path)
	} else {
		exporter, err = storage.NewCSVFileWriter(path)
	}
	if err != nil {
		return err
	}

	bookings := catalog.Bookings()
	if err := exporter.WriteBookings(bookings); err != nil {
		_ = exporter.Close()
		return err
	}
	if err := exporter.Close(); err != nil {
		return err
	}

	fmt.Printf("  Done. %d bookings → %s\n\n", len(bookings), path)
	return nil
}
