package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderFal       = "fal"
	ProviderReplicate = "replicate"

	defaultPrompt = "Use these photos as reference to generate a cinematic wallpaper."
)

type Config struct {
	AppEnv string
	Port   string

	// Generation backend: "fal" (default) or "replicate"
	Provider string

	FalAPIKey     string
	FalRunURL     string // synchronous model endpoint, e.g. https://fal.run
	FalStorageURL string // file upload REST API, e.g. https://rest.alpha.fal.ai

	ReplicateToken string

	// Model identifiers for the selected provider (e.g. fal-ai/flux/dev/image-to-image)
	ImageModelID string
	VideoModelID string

	DefaultPrompt     string
	DefaultImageCount int

	StorageRoot   string
	PublicBaseURL string // optional absolute prefix for returned media URLs

	// CORS: comma-separated origins. "*" allows any origin.
	CORSOrigins string

	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	GenerationTimeout time.Duration

	RateLimitPerMin int // 0 disables
}

// Load reads configuration from the environment. Required values depend on the
// selected provider; a missing one is reported by its variable name.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		Provider:          strings.ToLower(getEnv("GENERATION_PROVIDER", ProviderFal)),
		FalAPIKey:         trimQuotes(getEnv("FAL_API_KEY", getEnv("FAL_KEY", ""))),
		FalRunURL:         strings.TrimSuffix(getEnv("FAL_RUN_URL", "https://fal.run"), "/"),
		FalStorageURL:     strings.TrimSuffix(getEnv("FAL_STORAGE_URL", "https://rest.alpha.fal.ai"), "/"),
		ReplicateToken:    trimQuotes(getEnv("REPLICATE_API_TOKEN", "")),
		DefaultPrompt:     getEnv("DEFAULT_PROMPT", defaultPrompt),
		DefaultImageCount: getEnvInt("DEFAULT_IMAGE_COUNT", 4),
		StorageRoot:       getEnv("STORAGE_ROOT", "storage"),
		PublicBaseURL:     strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", ""), "/"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 120)),
		GenerationTimeout: time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 300)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
	}

	switch cfg.Provider {
	case ProviderFal:
		cfg.ImageModelID = getEnv("FAL_IMAGE_MODEL_ID", "")
		cfg.VideoModelID = getEnv("FAL_VIDEO_MODEL_ID", "")
		if err := requireEnv(
			"FAL_API_KEY", cfg.FalAPIKey,
			"FAL_IMAGE_MODEL_ID", cfg.ImageModelID,
			"FAL_VIDEO_MODEL_ID", cfg.VideoModelID,
		); err != nil {
			return nil, err
		}
	case ProviderReplicate:
		cfg.ImageModelID = getEnv("REPLICATE_MODEL_IMAGE", "")
		cfg.VideoModelID = getEnv("REPLICATE_MODEL_VIDEO", "")
		if err := requireEnv(
			"REPLICATE_API_TOKEN", cfg.ReplicateToken,
			"REPLICATE_MODEL_IMAGE", cfg.ImageModelID,
			"REPLICATE_MODEL_VIDEO", cfg.VideoModelID,
		); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("GENERATION_PROVIDER must be %q or %q, got %q", ProviderFal, ProviderReplicate, cfg.Provider)
	}

	if cfg.DefaultImageCount < 1 {
		return nil, fmt.Errorf("DEFAULT_IMAGE_COUNT must be positive, got %d", cfg.DefaultImageCount)
	}
	return cfg, nil
}

// AllowedOrigins splits CORSOrigins; empty means allow any origin.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func requireEnv(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

func getEnv(k, defaultV string) string {
	if v := os.Getenv(k); v != "" {
		return strings.TrimSpace(v)
	}
	return defaultV
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func getEnvInt(k string, defaultV int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultV
}
