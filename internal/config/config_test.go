package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"PRESTATAIRES_DATABASE_URL", "PRESTATAIRES_GRPC_ADDR", "PRESTATAIRES_HTTP_ADDR",
	"PRESTATAIRES_NATS_URL", "PRESTATAIRES_JWT_SECRET", "PRESTATAIRES_PAGE_SIZE",
	"PRESTATAIRES_REDIS_ADDR", "PRESTATAIRES_REDIS_PASSWORD", "PRESTATAIRES_REDIS_DB",
	"PRESTATAIRES_CACHE_PREFIX", "PRESTATAIRES_CACHE_STALE_TIME", "PRESTATAIRES_CACHE_GC_TIME",
	"PRESTATAIRES_PHOTO_S3_BUCKET", "PRESTATAIRES_PHOTO_S3_ENDPOINT", "PRESTATAIRES_PHOTO_S3_REGION",
	"PRESTATAIRES_PHOTO_PUBLIC_URL", "PRESTATAIRES_SYNC_INTERVAL", "PRESTATAIRES_SYNC_S3_BUCKET",
	"PRESTATAIRES_SYNC_S3_KEY", "PRESTATAIRES_SYNC_FILE",
}

// clearAllEnv blanks every variable and points the .env lookup at a file
// that does not exist.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
	t.Setenv("PRESTATAIRES_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantGRPCAddr string
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"PRESTATAIRES_DATABASE_URL": "postgres://localhost/prestataires"},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"PRESTATAIRES_DATABASE_URL": "postgres://db:5432/prestataires",
				"PRESTATAIRES_GRPC_ADDR":    ":5050",
				"PRESTATAIRES_HTTP_ADDR":    ":3000",
				"PRESTATAIRES_NATS_URL":     "nats://localhost:4222",
			},
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
		{
			name: "BadPageSize",
			env: map[string]string{
				"PRESTATAIRES_DATABASE_URL": "postgres://localhost/prestataires",
				"PRESTATAIRES_PAGE_SIZE":    "twelve",
			},
			wantErr: true,
		},
		{
			name: "PageSizeAboveMax",
			env: map[string]string{
				"PRESTATAIRES_DATABASE_URL": "postgres://localhost/prestataires",
				"PRESTATAIRES_PAGE_SIZE":    "500",
			},
			wantErr: true,
		},
		{
			name: "GCShorterThanStale",
			env: map[string]string{
				"PRESTATAIRES_DATABASE_URL":     "postgres://localhost/prestataires",
				"PRESTATAIRES_CACHE_STALE_TIME": "10m",
				"PRESTATAIRES_CACHE_GC_TIME":    "5m",
			},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["PRESTATAIRES_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["PRESTATAIRES_DATABASE_URL"])
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PRESTATAIRES_DATABASE_URL", "postgres://localhost/prestataires")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PageSize != 12 {
		t.Errorf("PageSize = %d, want 12", cfg.PageSize)
	}
	if cfg.CacheStaleTime != 5*time.Minute || cfg.CacheGCTime != 10*time.Minute {
		t.Errorf("cache windows = %v/%v, want 5m/10m", cfg.CacheStaleTime, cfg.CacheGCTime)
	}
	if cfg.CachePrefix != "prestataires" {
		t.Errorf("CachePrefix = %q", cfg.CachePrefix)
	}
	if cfg.PhotoS3Region != "eu-west-3" {
		t.Errorf("PhotoS3Region = %q, want %q", cfg.PhotoS3Region, "eu-west-3")
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.SyncInterval)
	}
	if cfg.SyncS3Key != "catalogue/prestataires.jsonl" {
		t.Errorf("SyncS3Key = %q", cfg.SyncS3Key)
	}
	if cfg.JWTSecret != "" || cfg.RedisAddr != "" {
		t.Errorf("optional settings should be empty: %+v", cfg)
	}
}

func TestLoadCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PRESTATAIRES_DATABASE_URL", "postgres://localhost/prestataires")
	t.Setenv("PRESTATAIRES_PAGE_SIZE", "24")
	t.Setenv("PRESTATAIRES_REDIS_ADDR", "redis:6379")
	t.Setenv("PRESTATAIRES_REDIS_DB", "2")
	t.Setenv("PRESTATAIRES_CACHE_STALE_TIME", "1m")
	t.Setenv("PRESTATAIRES_CACHE_GC_TIME", "2m")
	t.Setenv("PRESTATAIRES_SYNC_INTERVAL", "10m")
	t.Setenv("PRESTATAIRES_SYNC_S3_BUCKET", "backups")
	t.Setenv("PRESTATAIRES_PHOTO_S3_ENDPOINT", "http://minio:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PageSize != 24 {
		t.Errorf("PageSize = %d", cfg.PageSize)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q/%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.CacheStaleTime != time.Minute || cfg.CacheGCTime != 2*time.Minute {
		t.Errorf("cache windows = %v/%v", cfg.CacheStaleTime, cfg.CacheGCTime)
	}
	if cfg.SyncInterval != 10*time.Minute || cfg.SyncS3Bucket != "backups" {
		t.Errorf("sync = %v/%q", cfg.SyncInterval, cfg.SyncS3Bucket)
	}
	if cfg.PhotoS3Endpoint != "http://minio:9000" {
		t.Errorf("PhotoS3Endpoint = %q", cfg.PhotoS3Endpoint)
	}
}

func TestLoadInvalidDurations(t *testing.T) {
	for _, key := range []string{"PRESTATAIRES_SYNC_INTERVAL", "PRESTATAIRES_CACHE_STALE_TIME", "PRESTATAIRES_CACHE_GC_TIME"} {
		t.Run(key, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("PRESTATAIRES_DATABASE_URL", "postgres://localhost/prestataires")
			t.Setenv(key, "not-a-duration")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}

func TestLoadDemo(t *testing.T) {
	clearAllEnv(t)
	cfg, err := LoadDemo()
	if err != nil {
		t.Fatalf("LoadDemo without database: %v", err)
	}
	if !cfg.Demo {
		t.Error("Demo = false")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := "PRESTATAIRES_DATABASE_URL=postgres://fromfile/prestataires\nPRESTATAIRES_HTTP_ADDR=:7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRESTATAIRES_ENV_FILE", path)
	// godotenv only fills unset variables; clearAllEnv registered their
	// restoration.
	os.Unsetenv("PRESTATAIRES_DATABASE_URL")
	os.Unsetenv("PRESTATAIRES_HTTP_ADDR")
	t.Setenv("PRESTATAIRES_GRPC_ADDR", ":6000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://fromfile/prestataires" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr = %q, want value from file", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != ":6000" {
		t.Errorf("GRPCAddr = %q, environment must win over file", cfg.GRPCAddr)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
