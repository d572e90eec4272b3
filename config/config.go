package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	CatalogTable    string
	SparePartsTable string
	ScrapeJobsTable string
	MediaBucket     string

	QRNamespace    string
	PartsNamespace string

	DebugDir string

	RedisHost string
	RedisPort string

	ChromeRemoteURL  string
	NavTimeout       time.Duration
	ChallengeTimeout time.Duration

	SignedURLTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		CatalogTable:    os.Getenv("CATALOG_TABLE"),
		SparePartsTable: os.Getenv("SPARE_PARTS_TABLE"),
		ScrapeJobsTable: os.Getenv("SCRAPE_JOBS_TABLE"),
		MediaBucket:     os.Getenv("MEDIA_BUCKET"),
		QRNamespace:     os.Getenv("QR_NAMESPACE"),
		PartsNamespace:  os.Getenv("PARTS_NAMESPACE"),
		DebugDir:        os.Getenv("DEBUG_DIR"),
		RedisHost:       os.Getenv("REDIS_HOST"),
		RedisPort:       os.Getenv("REDIS_PORT"),
		ChromeRemoteURL: os.Getenv("CHROME_REMOTE_URL"),
	}

	if cfg.CatalogTable == "" {
		return nil, fmt.Errorf("CATALOG_TABLE is required")
	}
	if cfg.SparePartsTable == "" {
		return nil, fmt.Errorf("SPARE_PARTS_TABLE is required")
	}
	if cfg.MediaBucket == "" {
		return nil, fmt.Errorf("MEDIA_BUCKET is required")
	}

	if cfg.QRNamespace == "" {
		cfg.QRNamespace = "qr-codes"
	}
	if cfg.PartsNamespace == "" {
		cfg.PartsNamespace = "spare-parts"
	}
	if cfg.DebugDir == "" {
		cfg.DebugDir = "."
	}
	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}

	navSeconds, err := intEnv("NAV_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.NavTimeout = time.Duration(navSeconds) * time.Second

	challengeSeconds, err := intEnv("CHALLENGE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ChallengeTimeout = time.Duration(challengeSeconds) * time.Second

	ttlMinutes, err := intEnv("SIGNED_URL_TTL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.SignedURLTTL = time.Duration(ttlMinutes) * time.Minute

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}
	return val, nil
}
