// Package config loads pipeline settings from the environment with sensible
// defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CatalogBaseURL string
	CacheTTL       time.Duration
	CacheCapacity  int
	RatePerSecond  float64
	Burst          int
	Workers        int
	MinConfidence  float64
	MaxDimension   int
	Languages      []string
}

// Load reads configuration from the environment, falling back to defaults
// suitable for the public Scryfall API and a local Tesseract install.
func Load() *Config {
	return &Config{
		CatalogBaseURL: getEnv("CARDKIT_CATALOG_URL", "https://api.scryfall.com"),
		CacheTTL:       getEnvDuration("CARDKIT_CACHE_TTL", 15*time.Minute),
		CacheCapacity:  getEnvInt("CARDKIT_CACHE_CAPACITY", 2048),
		RatePerSecond:  getEnvFloat("CARDKIT_RATE_PER_SECOND", 10),
		Burst:          getEnvInt("CARDKIT_RATE_BURST", 1),
		Workers:        getEnvInt("CARDKIT_WORKERS", 3),
		MinConfidence:  getEnvFloat("CARDKIT_MIN_CONFIDENCE", 0.4),
		MaxDimension:   getEnvInt("CARDKIT_MAX_DIMENSION", 1600),
		Languages:      getEnvList("CARDKIT_OCR_LANGUAGES", []string{"eng"}),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
