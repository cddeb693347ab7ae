package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdgupta/website/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	ServerHost   string
	ServerPort   int
	MetricsToken string

	// Monitored WordPress sites
	Sources          []string
	MonitoredDomains []string

	// Content mirroring settings
	PerSource    int
	Revalidate   time.Duration
	LatestMode   string
	FetchTimeout time.Duration
	UserAgent    string

	// Revalidation cache settings
	CacheDBPath        string
	CacheRetentionDays int

	// Form mail settings
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	MailFrom  string
	MailTo    string
	FormRate  float64
	FormBurst int

	// Terminal ticker settings
	TickerURL string

	// Log settings
	LogLevel zerolog.Level
}

// Sites is the immutable monitored-site configuration shared by the
// aggregator and the link rewriter. Sources and Domains describe the
// same sites: Sources as base URLs, Domains as bare host names.
type Sites struct {
	Sources []models.Source
	Domains []string
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)
	logLevel = GetEnvLogLevel("SITE_LOG_LEVEL", logLevel)

	return &Config{
		ServerHost:         DefaultServerHost,
		ServerPort:         DefaultServerPort,
		MetricsToken:       GetEnvString("SITE_METRICS_TOKEN", ""),
		Sources:            GetEnvList("SITE_SOURCES", DefaultSources),
		MonitoredDomains:   GetEnvList("SITE_MONITORED_DOMAINS", ""),
		PerSource:          DefaultPerSource,
		Revalidate:         DefaultRevalidate,
		LatestMode:         DefaultLatest,
		UserAgent:          DefaultUserAgent,
		CacheDBPath:        DefaultCacheDBPath,
		CacheRetentionDays: DefaultCacheRetentionDays,
		SMTPHost:           GetEnvString("SITE_SMTP_HOST", ""),
		SMTPPort:           GetEnvInt("SITE_SMTP_PORT", DefaultSMTPPort),
		SMTPUser:           GetEnvString("SITE_SMTP_USER", ""),
		SMTPPass:           GetEnvString("SITE_SMTP_PASS", ""),
		MailFrom:           GetEnvString("SITE_MAIL_FROM", ""),
		MailTo:             GetEnvString("SITE_MAIL_TO", ""),
		FormRate:           DefaultFormRate,
		FormBurst:          DefaultFormBurst,
		TickerURL:          DefaultTickerURL,
		LogLevel:           logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Sites builds the monitored-site configuration. When no monitored domains
// are configured they are derived from the sources (host and www. variant).
func (c *Config) Sites() Sites {
	sources := make([]models.Source, 0, len(c.Sources))
	for _, raw := range c.Sources {
		raw = strings.TrimRight(strings.TrimSpace(raw), "/")
		if raw == "" {
			continue
		}
		sources = append(sources, models.Source{BaseURL: raw})
	}

	domains := make([]string, 0, len(c.MonitoredDomains))
	for _, d := range c.MonitoredDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		domains = DomainsFromSources(sources)
	}

	return Sites{Sources: sources, Domains: domains}
}

// Validate reports configuration problems. Every source host must be
// present in the monitored domains, otherwise links to that source would
// survive sanitization untouched.
func (c *Config) Validate() error {
	sites := c.Sites()
	if len(sites.Sources) == 0 {
		return fmt.Errorf("no monitored sources configured")
	}
	if c.PerSource <= 0 {
		return fmt.Errorf("per-source page size must be positive, got %d", c.PerSource)
	}
	if c.LatestMode != LatestModeFresh && c.LatestMode != LatestModeCached {
		return fmt.Errorf("invalid latest-updates mode %q: use %q or %q", c.LatestMode, LatestModeFresh, LatestModeCached)
	}
	if c.CacheRetentionDays <= 0 {
		return fmt.Errorf("cache retention must be positive, got %d days", c.CacheRetentionDays)
	}
	if c.SMTPHost != "" {
		var unset []string
		if strings.TrimSpace(c.MailFrom) == "" {
			unset = append(unset, "SITE_MAIL_FROM")
		}
		if strings.TrimSpace(c.MailTo) == "" {
			unset = append(unset, "SITE_MAIL_TO")
		}
		if len(unset) > 0 {
			return fmt.Errorf("SITE_SMTP_HOST is set but %s missing", strings.Join(unset, " and "))
		}
	}

	known := make(map[string]bool, len(sites.Domains))
	for _, d := range sites.Domains {
		known[d] = true
	}

	var missing []string
	for _, src := range sites.Sources {
		host := src.Host()
		if host == "" {
			return fmt.Errorf("invalid source URL %q", src.BaseURL)
		}
		if !known[host] {
			missing = append(missing, host)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("sources not listed in monitored domains: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DomainsFromSources derives monitored domains from source base URLs,
// listing both the bare and the www. variant of each host.
func DomainsFromSources(sources []models.Source) []string {
	seen := make(map[string]bool)
	var domains []string
	add := func(d string) {
		if d != "" && !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}

	for _, src := range sources {
		u, err := url.Parse(src.BaseURL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		bare := strings.TrimPrefix(host, "www.")
		add(bare)
		add("www." + bare)
	}
	return domains
}
