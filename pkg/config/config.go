package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings that are not owned by a single package.
// Database and JWT settings are read by pkg/database and pkg/jwt directly.
type Config struct {
	Port                  string
	ShippingFee           int64
	FreeShippingThreshold int64
	PublicBaseURL         string
	StorageDir            string
	DownloadURLTTL        time.Duration
	FFmpegPath            string
	SampleSeconds         int
	SampleTimeout         time.Duration
	CORSOrigins           string
}

// Load reads the configuration from the environment, falling back to defaults
// for anything missing or malformed.
func Load() *Config {
	return &Config{
		Port:                  getString("PORT", "3000"),
		ShippingFee:           getInt64("SHIPPING_FEE", 3000),
		FreeShippingThreshold: getInt64("FREE_SHIPPING_THRESHOLD", 0),
		PublicBaseURL:         strings.TrimRight(getString("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		StorageDir:            getString("STORAGE_DIR", "./storage"),
		DownloadURLTTL:        getDuration("DOWNLOAD_URL_TTL", 10*time.Minute),
		FFmpegPath:            getString("FFMPEG_PATH", "ffmpeg"),
		SampleSeconds:         int(getInt64("SAMPLE_SECONDS", 20)),
		SampleTimeout:         getDuration("SAMPLE_TIMEOUT", 2*time.Minute),
		CORSOrigins:           getString("CORS_ORIGINS", "*"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
