package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pdgupta/website/internal/aggregate"
	"pdgupta/website/internal/cache"
	"pdgupta/website/internal/config"
	"pdgupta/website/internal/content"
	"pdgupta/website/internal/database"
	"pdgupta/website/internal/form"
	"pdgupta/website/internal/models"
	"pdgupta/website/internal/server"
	"pdgupta/website/internal/server/api"
	"pdgupta/website/internal/server/pages"
	"pdgupta/website/internal/ticker"
	"pdgupta/website/internal/tui"
	"pdgupta/website/internal/wordpress"
)

const memoryPurgeInterval = time.Hour

const usage = `Usage: website [command] [options]
Commands: server, fetch, purge, ticker

For command-specific options, use: website [command] -h`

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.DefaultConfig()

	var sources, domains string

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("SITE_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: SITE_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("SITE_PORT", config.DefaultServerPort),
		"Port to listen on (env: SITE_PORT)")
	sourceFlags(serverCmd, cfg, &sources, &domains)
	serverCmd.DurationVar(&cfg.Revalidate, "revalidate", config.GetEnvDuration("SITE_REVALIDATE", config.DefaultRevalidate),
		"Revalidation window for source responses, 0 disables caching (env: SITE_REVALIDATE)")
	serverCmd.StringVar(&cfg.LatestMode, "latest", config.GetEnvString("SITE_LATEST_MODE", config.DefaultLatest),
		"Latest-updates mode: fresh or cached (env: SITE_LATEST_MODE)")
	serverCmd.StringVar(&cfg.CacheDBPath, "cache-db", config.GetEnvString("SITE_CACHE_DB", config.DefaultCacheDBPath),
		"Path to the SQLite cache database, empty for in-memory (env: SITE_CACHE_DB)")
	serverCmd.IntVar(&cfg.CacheRetentionDays, "retention", config.GetEnvInt("SITE_CACHE_RETENTION_DAYS", config.DefaultCacheRetentionDays),
		"Number of days to retain cache entries (env: SITE_CACHE_RETENTION_DAYS)")
	serverCmd.Float64Var(&cfg.FormRate, "form-rate", config.GetEnvFloat("SITE_FORM_RATE", config.DefaultFormRate),
		"Form submissions per second per client (env: SITE_FORM_RATE)")
	serverCmd.IntVar(&cfg.FormBurst, "form-burst", config.GetEnvInt("SITE_FORM_BURST", config.DefaultFormBurst),
		"Form submission burst per client (env: SITE_FORM_BURST)")
	serverLogLevel := logFlags(serverCmd, cfg)

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	sourceFlags(fetchCmd, cfg, &sources, &domains)
	var primaryOnly bool
	fetchCmd.BoolVar(&primaryOnly, "primary", false, "Fetch only the first configured source")
	fetchLogLevel := logFlags(fetchCmd, cfg)

	purgeCmd := flag.NewFlagSet("purge", flag.ExitOnError)
	purgeCmd.StringVar(&cfg.CacheDBPath, "cache-db", config.GetEnvString("SITE_CACHE_DB", config.DefaultCacheDBPath),
		"Path to the SQLite cache database (env: SITE_CACHE_DB)")
	purgeCmd.IntVar(&cfg.CacheRetentionDays, "retention", config.GetEnvInt("SITE_CACHE_RETENTION_DAYS", config.DefaultCacheRetentionDays),
		"Number of days to retain cache entries (env: SITE_CACHE_RETENTION_DAYS)")
	var purgeAll bool
	purgeCmd.BoolVar(&purgeAll, "all", false, "Delete the whole cache database instead of old entries")
	purgeLogLevel := logFlags(purgeCmd, cfg)

	tickerCmd := flag.NewFlagSet("ticker", flag.ExitOnError)
	tickerCmd.StringVar(&cfg.TickerURL, "url", config.GetEnvString("SITE_TICKER_URL", config.DefaultTickerURL),
		"Base URL of the running website (env: SITE_TICKER_URL)")
	var tickerInterval time.Duration
	tickerCmd.DurationVar(&tickerInterval, "interval", ticker.RefreshInterval, "Refresh interval")
	tickerLogLevel := logFlags(tickerCmd, cfg)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "server":
		serverCmd.Parse(os.Args[2:])
		applyFlags(cfg, *serverLogLevel, sources, domains)

		if err = runServer(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
		}

	case "fetch":
		fetchCmd.Parse(os.Args[2:])
		applyFlags(cfg, *fetchLogLevel, sources, domains)

		if err = runFetch(cfg, primaryOnly); err != nil {
			log.Error().Err(err).Msg("Fetch failed")
		}

	case "purge":
		purgeCmd.Parse(os.Args[2:])
		applyFlags(cfg, *purgeLogLevel, "", "")

		if err = runPurge(cfg, purgeAll); err != nil {
			log.Error().Err(err).Msg("Purge failed")
		}

	case "ticker":
		tickerCmd.Parse(os.Args[2:])
		applyFlags(cfg, *tickerLogLevel, "", "")

		if err = runTicker(cfg, tickerInterval); err != nil {
			log.Error().Err(err).Msg("Ticker failed")
		}

	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}

// sourceFlags registers the flags shared by every command that talks to the
// monitored sites.
func sourceFlags(fs *flag.FlagSet, cfg *config.Config, sources, domains *string) {
	fs.StringVar(sources, "sources", strings.Join(cfg.Sources, ","),
		"Comma separated source base URLs (env: SITE_SOURCES)")
	fs.StringVar(domains, "domains", strings.Join(cfg.MonitoredDomains, ","),
		"Comma separated monitored domains, derived from sources when empty (env: SITE_MONITORED_DOMAINS)")
	fs.IntVar(&cfg.PerSource, "per-source", config.GetEnvInt("SITE_PER_SOURCE", config.DefaultPerSource),
		"Posts requested from each source (env: SITE_PER_SOURCE)")
	fs.DurationVar(&cfg.FetchTimeout, "timeout", config.GetEnvDuration("SITE_FETCH_TIMEOUT", 0),
		"Per-request timeout for source fetches, 0 for none (env: SITE_FETCH_TIMEOUT)")
	fs.StringVar(&cfg.UserAgent, "user-agent", config.GetEnvString("SITE_USER_AGENT", config.DefaultUserAgent),
		"User-Agent sent to sources (env: SITE_USER_AGENT)")
}

func logFlags(fs *flag.FlagSet, cfg *config.Config) *string {
	return fs.String("log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: SITE_LOG_LEVEL)")
}

// applyFlags copies the string flags into cfg and sets up logging.
func applyFlags(cfg *config.Config, logLevel, sources, domains string) {
	if level, err := zerolog.ParseLevel(logLevel); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if config.GetEnvBool("SITE_LOG_JSON", false) {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if sources != "" {
		cfg.Sources = config.SplitList(sources)
	}
	if domains != "" {
		cfg.MonitoredDomains = config.SplitList(domains)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openCacheStore returns the SQLite store when a path is configured and the
// in-memory store otherwise.
func openCacheStore(cfg *config.Config) (cache.Store, *database.CacheStore, func(), error) {
	if cfg.CacheDBPath == "" {
		log.Info().Msg("Using in-memory revalidation cache")
		return cache.NewMemoryStore(), nil, func() {}, nil
	}

	db, err := database.NewDB(database.NewConfig(cfg.CacheDBPath))
	if err != nil {
		log.Error().Err(err).Str("path", cfg.CacheDBPath).Msg("Failed to initialize database")
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info().Str("path", cfg.CacheDBPath).Msg("Using SQLite revalidation cache")

	store := database.NewCacheStore(db)
	return store, store, func() { db.Close() }, nil
}

func newAggregator(cfg *config.Config, reval *cache.Revalidator) *aggregate.Aggregator {
	client := wordpress.NewClient(wordpress.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
		Window:    cfg.Revalidate,
		Cache:     reval,
		Logger:    log.Logger,
	})

	latest := client
	if cfg.LatestMode == config.LatestModeFresh {
		latest = client.WithWindow(0)
	}

	return aggregate.New(aggregate.Options{
		Sites:        cfg.Sites(),
		PerSource:    cfg.PerSource,
		Client:       client,
		LatestClient: latest,
		Logger:       log.Logger,
	})
}

// runServer starts the website with the provided configuration.
func runServer(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Debug().Msg("Starting server with debug logging enabled")

	ctx, stop := signalContext()
	defer stop()

	store, sqlStore, closeStore, err := openCacheStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	purgeEvery := memoryPurgeInterval
	if sqlStore != nil {
		purgeEvery = 24 * time.Hour
	}
	go cache.PurgeLoop(ctx, store, time.Duration(cfg.CacheRetentionDays)*24*time.Hour, purgeEvery, log.Logger)

	agg := newAggregator(cfg, cache.NewRevalidator(store, log.Logger))
	sanitizer := content.NewSanitizer(content.NewLinkRewriter(cfg.Sites().Domains))

	p, err := pages.New(agg, sanitizer)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	var mailer form.Mailer = &form.LogMailer{Logger: log.Logger}
	if cfg.SMTPHost != "" {
		mailer = &form.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		}
	} else {
		log.Warn().Msg("SITE_SMTP_HOST not set, form emails will only be logged")
	}
	forms := form.NewService(mailer, cfg.MailFrom, cfg.MailTo, log.Logger)

	var limiter *server.RateLimiter
	if cfg.FormRate > 0 {
		limiter = server.NewRateLimiter(ctx, rate.Limit(cfg.FormRate), max(cfg.FormBurst, 1))
	}

	h := server.NewHandler(server.Handlers{
		Pages:        p,
		Latest:       api.NewLatestHandler(agg, cfg.LatestMode == config.LatestModeFresh),
		Forms:        api.NewFormHandler(forms),
		FormLimiter:  limiter,
		MetricsToken: cfg.MetricsToken,
	}, log.Logger)

	log.Info().
		Int("sources", len(cfg.Sites().Sources)).
		Dur("revalidate", cfg.Revalidate).
		Str("latest_mode", cfg.LatestMode).
		Msg("Website configured")

	return server.RunServer(ctx, h, cfg.ListenAddr(), log.Logger)
}

// runFetch aggregates the sources once and prints the cards as JSON.
func runFetch(cfg *config.Config, primaryOnly bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	cfg.Revalidate = 0
	agg := newAggregator(cfg, cache.NewRevalidator(cache.NewMemoryStore(), log.Logger))

	start := time.Now()
	var cards []models.PostCard
	if primaryOnly {
		cards = agg.Primary(ctx, cfg.PerSource)
	} else {
		cards = agg.FetchAll(ctx)
	}
	fetched, failed := agg.Stats()
	log.Info().
		Int("posts", len(cards)).
		Int64("sources_ok", fetched).
		Int64("sources_failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Fetch finished")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cards)
}

// runPurge deletes cache entries older than the retention period, or the
// whole database when all is set.
func runPurge(cfg *config.Config, all bool) error {
	if cfg.CacheDBPath == "" {
		return fmt.Errorf("no cache database configured: set -cache-db or SITE_CACHE_DB")
	}
	if _, err := os.Stat(cfg.CacheDBPath); err != nil {
		return fmt.Errorf("cache database %s: %w", cfg.CacheDBPath, err)
	}

	if all {
		if err := database.DeleteDB(cfg.CacheDBPath); err != nil {
			log.Error().Err(err).Str("path", cfg.CacheDBPath).Msg("Failed to delete cache database")
			return fmt.Errorf("failed to delete cache database: %w", err)
		}
		log.Info().Str("path", cfg.CacheDBPath).Msg("Deleted cache database")
		return nil
	}

	_, store, closeStore, err := openCacheStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := store.PurgeOlderThan(ctx, cfg.CacheRetentionDays)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	if n > 0 {
		log.Info().Int64("purged_count", n).Msg("Successfully purged old cache entries")
	} else {
		log.Info().Msg("No old cache entries needed purging")
	}
	return nil
}

// runTicker shows the live ticker of a running website in the terminal.
func runTicker(cfg *config.Config, interval time.Duration) error {
	ctx, stop := signalContext()
	defer stop()

	// Logs would tear the alt screen.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	return tui.Run(ctx, ticker.NewFeedClient(cfg.TickerURL, 15*time.Second), interval)
}
