package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.URL != "http://localhost:8000" {
			t.Errorf("expected api url http://localhost:8000, got %s", config.API.URL)
		}

		if config.API.WSURL != "ws://localhost:8000/ws" {
			t.Errorf("expected ws url ws://localhost:8000/ws, got %s", config.API.WSURL)
		}

		if config.Live.ReconnectDelay() != 3*time.Second {
			t.Errorf("expected reconnect delay 3s, got %v", config.Live.ReconnectDelay())
		}

		if config.Query.Retry != 1 {
			t.Errorf("expected one query retry, got %d", config.Query.Retry)
		}

		if config.Database.Path != "./pullsense.db" {
			t.Errorf("expected database path ./pullsense.db, got %s", config.Database.Path)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.API.URL != DefaultConfig().API.URL {
			t.Errorf("created config api url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
url = "http://review.internal:9000"
timeout_seconds = 5

[live]
reconnect_delay_ms = 500

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.URL != "http://review.internal:9000" {
			t.Errorf("expected overridden api url, got %s", config.API.URL)
		}
		if config.API.Timeout() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", config.API.Timeout())
		}
		if config.Live.ReconnectDelay() != 500*time.Millisecond {
			t.Errorf("expected 500ms reconnect delay, got %v", config.Live.ReconnectDelay())
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.API.WSURL != "ws://localhost:8000/ws" {
			t.Errorf("expected ws url to keep default, got %s", config.API.WSURL)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Run("Prefers PULLSENSE Names", func(t *testing.T) {
			env := map[string]string{
				"PULLSENSE_API_URL": "http://a:1",
				"VITE_API_URL":      "http://b:2",
				"VITE_WS_URL":       "ws://b:2/ws",
				"PULLSENSE_TOKEN":   "tok",
			}
			config := DefaultConfig()
			ApplyEnv(config, func(k string) string { return env[k] })

			if config.API.URL != "http://a:1" {
				t.Errorf("expected PULLSENSE_API_URL to win, got %s", config.API.URL)
			}
			if config.API.WSURL != "ws://b:2/ws" {
				t.Errorf("expected VITE_WS_URL fallback, got %s", config.API.WSURL)
			}
			if config.API.Token != "tok" {
				t.Errorf("expected token from env, got %q", config.API.Token)
			}
		})

		t.Run("Empty Environment Keeps Config", func(t *testing.T) {
			config := DefaultConfig()
			ApplyEnv(config, func(string) string { return "" })

			if config.API.URL != "http://localhost:8000" {
				t.Errorf("expected default api url, got %s", config.API.URL)
			}
		})
	})
}
