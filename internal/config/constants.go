package config

import "time"

// Constants defining default values for application configuration
const (
	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultSources    = "https://studycafe.in"
	DefaultPerSource  = 50
	DefaultRevalidate = 24 * time.Hour
	DefaultUserAgent  = "PDGuptaSite/1.0"

	// LatestModeFresh serves /api/latest-updates without caching,
	// LatestModeCached applies the regular revalidation window.
	LatestModeFresh  = "fresh"
	LatestModeCached = "cached"
	DefaultLatest    = LatestModeFresh

	DefaultCacheDBPath        = "" // Empty string means in-memory cache
	DefaultCacheRetentionDays = 7

	DefaultSMTPPort  = 587
	DefaultFormRate  = 0.2 // requests per second per client
	DefaultFormBurst = 5

	DefaultTickerURL = "http://localhost:8080"

	DefaultLogLevel = "info"
)
