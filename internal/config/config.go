package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string // PRESTATAIRES_DATABASE_URL (required unless Demo)
	Demo        bool   // set by `vd serve --demo`, not from the environment
	GRPCAddr    string // PRESTATAIRES_GRPC_ADDR (default ":9090")
	HTTPAddr    string // PRESTATAIRES_HTTP_ADDR (default ":8080")
	NATSURL     string // PRESTATAIRES_NATS_URL (optional, empty = in-process events)
	JWTSecret   string // PRESTATAIRES_JWT_SECRET (optional, empty = auth disabled)
	PageSize    int    // PRESTATAIRES_PAGE_SIZE (default 12)

	// Cache settings
	RedisAddr      string        // PRESTATAIRES_REDIS_ADDR (empty = in-memory cache)
	RedisPassword  string        // PRESTATAIRES_REDIS_PASSWORD
	RedisDB        int           // PRESTATAIRES_REDIS_DB (default 0)
	CachePrefix    string        // PRESTATAIRES_CACHE_PREFIX (default "prestataires")
	CacheStaleTime time.Duration // PRESTATAIRES_CACHE_STALE_TIME (default 5m)
	CacheGCTime    time.Duration // PRESTATAIRES_CACHE_GC_TIME (default 10m)

	// Photo storage
	PhotoS3Bucket   string // PRESTATAIRES_PHOTO_S3_BUCKET (enables uploads when set)
	PhotoS3Endpoint string // PRESTATAIRES_PHOTO_S3_ENDPOINT (custom endpoint for MinIO)
	PhotoS3Region   string // PRESTATAIRES_PHOTO_S3_REGION (default "eu-west-3")
	PhotoPublicURL  string // PRESTATAIRES_PHOTO_PUBLIC_URL (base URL of stored photos)

	// Sync settings
	SyncInterval time.Duration // PRESTATAIRES_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket string        // PRESTATAIRES_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Key    string        // PRESTATAIRES_SYNC_S3_KEY (default "catalogue/prestataires.jsonl")
	SyncFile     string        // PRESTATAIRES_SYNC_FILE (enables file export when set)
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory are applied first without overriding ones
// already set. PRESTATAIRES_ENV_FILE selects another file.
func Load() (*Config, error) {
	return load(false)
}

// LoadDemo is Load for `serve --demo`: no database is required.
func LoadDemo() (*Config, error) {
	return load(true)
}

func load(demo bool) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	c := &Config{
		DatabaseURL:     os.Getenv("PRESTATAIRES_DATABASE_URL"),
		Demo:            demo,
		GRPCAddr:        envOrDefault("PRESTATAIRES_GRPC_ADDR", ":9090"),
		HTTPAddr:        envOrDefault("PRESTATAIRES_HTTP_ADDR", ":8080"),
		NATSURL:         os.Getenv("PRESTATAIRES_NATS_URL"),
		JWTSecret:       os.Getenv("PRESTATAIRES_JWT_SECRET"),
		RedisAddr:       os.Getenv("PRESTATAIRES_REDIS_ADDR"),
		RedisPassword:   os.Getenv("PRESTATAIRES_REDIS_PASSWORD"),
		CachePrefix:     envOrDefault("PRESTATAIRES_CACHE_PREFIX", "prestataires"),
		PhotoS3Bucket:   os.Getenv("PRESTATAIRES_PHOTO_S3_BUCKET"),
		PhotoS3Endpoint: os.Getenv("PRESTATAIRES_PHOTO_S3_ENDPOINT"),
		PhotoS3Region:   envOrDefault("PRESTATAIRES_PHOTO_S3_REGION", "eu-west-3"),
		PhotoPublicURL:  os.Getenv("PRESTATAIRES_PHOTO_PUBLIC_URL"),
		SyncS3Bucket:    os.Getenv("PRESTATAIRES_SYNC_S3_BUCKET"),
		SyncS3Key:       envOrDefault("PRESTATAIRES_SYNC_S3_KEY", "catalogue/prestataires.jsonl"),
		SyncFile:        os.Getenv("PRESTATAIRES_SYNC_FILE"),
	}
	if c.DatabaseURL == "" && !demo {
		return nil, fmt.Errorf("PRESTATAIRES_DATABASE_URL is required")
	}

	var err error
	if c.PageSize, err = envInt("PRESTATAIRES_PAGE_SIZE", 12); err != nil {
		return nil, err
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return nil, fmt.Errorf("PRESTATAIRES_PAGE_SIZE: must be between 1 and 100, got %d", c.PageSize)
	}
	if c.RedisDB, err = envInt("PRESTATAIRES_REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.CacheStaleTime, err = envDuration("PRESTATAIRES_CACHE_STALE_TIME", "5m"); err != nil {
		return nil, err
	}
	if c.CacheGCTime, err = envDuration("PRESTATAIRES_CACHE_GC_TIME", "10m"); err != nil {
		return nil, err
	}
	if c.CacheStaleTime <= 0 || c.CacheGCTime < c.CacheStaleTime {
		return nil, fmt.Errorf("PRESTATAIRES_CACHE_GC_TIME (%s) must be at least PRESTATAIRES_CACHE_STALE_TIME (%s), both positive",
			c.CacheGCTime, c.CacheStaleTime)
	}
	if c.SyncInterval, err = envDuration("PRESTATAIRES_SYNC_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.SyncInterval < 0 {
		return nil, fmt.Errorf("PRESTATAIRES_SYNC_INTERVAL: must not be negative")
	}

	return c, nil
}

func loadEnvFile() error {
	path := envOrDefault("PRESTATAIRES_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
