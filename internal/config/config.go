package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultIndexURL       = "https://data-argo.ifremer.fr/ar_index_global_prof.txt"
	defaultArchiveBaseURL = "https://data-argo.ifremer.fr"
)

// Config holds all service settings, populated from environment variables
// (optionally seeded from a .env file). It is an immutable value handed to
// constructors; nothing reads the environment after Load returns.
type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	CORSOrigins     string
	ShutdownTimeout time.Duration

	// Archive endpoints. IndexURL points at the global profile index
	// (plain or gzipped); ArchiveBaseURL is the host relative profile
	// paths are joined to.
	IndexURL       string
	ArchiveBaseURL string

	// Bulk job knobs, consumed only by cmd/ingest and cmd/backfill.
	IngestDaysBack int
	IngestRegion   string
	IngestLimit    int

	// Timeouts are set explicitly and independently: index fetches read
	// small text files, profile fetches read multi-megabyte NetCDF.
	ConnectTimeout     time.Duration
	IndexReadTimeout   time.Duration
	ProfileReadTimeout time.Duration

	// ExtractWorkers bounds concurrent NetCDF decodes.
	ExtractWorkers int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	connectTimeout, err := envDuration("ARCHIVE_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	indexReadTimeout, err := envDuration("INDEX_READ_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	profileReadTimeout, err := envDuration("PROFILE_READ_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	daysBack, err := envInt("INGEST_DAYS_BACK", 7, 0)
	if err != nil {
		return nil, err
	}
	ingestLimit, err := envInt("INGEST_LIMIT", 500, 1)
	if err != nil {
		return nil, err
	}
	extractWorkers, err := envInt("EXTRACT_WORKERS", 4, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		CORSOrigins:        envOrDefault("CORS_ORIGINS", "*"),
		ShutdownTimeout:    shutdownTimeout,
		IndexURL:           envOrDefault("ARGO_INDEX_URL", defaultIndexURL),
		ArchiveBaseURL:     strings.TrimRight(envOrDefault("ARGO_ARCHIVE_BASE_URL", defaultArchiveBaseURL), "/"),
		IngestDaysBack:     daysBack,
		IngestRegion:       strings.TrimSpace(os.Getenv("INGEST_REGION")),
		IngestLimit:        ingestLimit,
		ConnectTimeout:     connectTimeout,
		IndexReadTimeout:   indexReadTimeout,
		ProfileReadTimeout: profileReadTimeout,
		ExtractWorkers:     extractWorkers,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.IndexURL == "" {
		return nil, errors.New("ARGO_INDEX_URL must not be empty")
	}

	return cfg, nil
}

// Origins splits the CORS origin list. "*" (the default) means any.
func (c *Config) Origins() []string {
	if c.CORSOrigins == "" || c.CORSOrigins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func envInt(key string, fallback, minimum int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
