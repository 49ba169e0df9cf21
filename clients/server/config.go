// config.go — Server configuration from the environment and an optional
// .env file.
package server

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/xob0t/eventdp/pkg/compose"
)

// Config holds everything the HTTP server needs to start.
type Config struct {
	Port string

	DatabaseURL    string // empty: in-memory events
	ClerkSecretKey string // empty: organizer routes disabled

	ArtifactDir       string
	DriveFolderID     string
	GoogleCredentials string
	FlyerDir          string
	FontDir           string
	CacheDir          string

	MetricsUser string
	MetricsPass string

	PublicBaseURL    string
	MaxCanvasHeight  float64
	ExportPixelRatio float64
	RateLimitRPS     float64
	RateLimitBurst   int
}

// DefaultConfig returns the values used when a variable is unset.
func DefaultConfig() Config {
	return Config{
		Port:             "8080",
		ArtifactDir:      "data/artifacts",
		FlyerDir:         "data/flyers",
		CacheDir:         "cache/images",
		PublicBaseURL:    "http://localhost:8080",
		MaxCanvasHeight:  compose.DefaultMaxHeight,
		ExportPixelRatio: compose.DefaultPixelRatio,
		RateLimitRPS:     5,
		RateLimitBurst:   30,
	}
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := DefaultConfig()
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("CLERK_SECRET_KEY", &cfg.ClerkSecretKey)
	str("ARTIFACT_DIR", &cfg.ArtifactDir)
	str("DRIVE_FOLDER_ID", &cfg.DriveFolderID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.GoogleCredentials)
	str("FLYER_DIR", &cfg.FlyerDir)
	str("FONT_DIR", &cfg.FontDir)
	str("CACHE_DIR", &cfg.CacheDir)
	str("METRICS_USER", &cfg.MetricsUser)
	str("METRICS_PASS", &cfg.MetricsPass)
	str("PUBLIC_BASE_URL", &cfg.PublicBaseURL)

	floats := []struct {
		key string
		dst *float64
	}{
		{"MAX_CANVAS_HEIGHT", &cfg.MaxCanvasHeight},
		{"EXPORT_PIXEL_RATIO", &cfg.ExportPixelRatio},
		{"RATE_LIMIT_RPS", &cfg.RateLimitRPS},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: expected a positive number, got %q", f.key, v)
		}
		*f.dst = n
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST: expected a positive integer, got %q", v)
		}
		cfg.RateLimitBurst = n
	}
	return cfg, nil
}
