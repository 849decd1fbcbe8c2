package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "artists.db" {
			t.Errorf("expected database path artists.db, got %s", config.Database.Path)
		}

		if config.Tracker.LookbackDays != 90 {
			t.Errorf("expected 90 day lookback, got %d", config.Tracker.LookbackDays)
		}

		if config.Tracker.MaxWorkers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Tracker.MaxWorkers)
		}

		if config.Tracker.RateLimit != 5.0 {
			t.Errorf("expected rate limit 5.0, got %f", config.Tracker.RateLimit)
		}

		if config.Metrics.Addr != "" {
			t.Errorf("expected metrics disabled by default, got %s", config.Metrics.Addr)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[tracker]
lookback_days = 30
max_workers = 4
rate_limit = 2.5
max_retries = 5
max_tracks = 10

[metrics]
addr = "localhost:9187"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Tracker.LookbackDays != 30 {
			t.Errorf("expected 30 day lookback, got %d", config.Tracker.LookbackDays)
		}

		if config.Metrics.Addr != "localhost:9187" {
			t.Errorf("expected metrics addr localhost:9187, got %s", config.Metrics.Addr)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
