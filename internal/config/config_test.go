package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	envVars := []string{
		"PORT", "LOG_LEVEL", "MAX_CONCURRENT_APPLIES", "CONFIRM_TIMEOUT",
		"ATS_FORM_FILL_TIMEOUT", "CHROME_PATH", "BROWSER_IDLE_TIMEOUT",
		"DASHBOARD_JWT_ISSUER", "ALLOW_UNAUTHENTICATED", "LLM_COMMAND",
	}
	origEnv := make(map[string]string)
	for _, v := range envVars {
		origEnv[v] = os.Getenv(v)
	}
	defer func() {
		for k, v := range origEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		for _, v := range envVars {
			os.Unsetenv(v)
		}

		cfg := Load()

		if cfg.Port != 8080 {
			t.Errorf("Port = %d, want 8080", cfg.Port)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
		}
		if cfg.MaxConcurrentApplies != 1 {
			t.Errorf("MaxConcurrentApplies = %d, want 1", cfg.MaxConcurrentApplies)
		}
		if cfg.ConfirmTimeout != 300*time.Second {
			t.Errorf("ConfirmTimeout = %v, want 300s", cfg.ConfirmTimeout)
		}
		if cfg.ATSFormFillTimeout != 120*time.Second {
			t.Errorf("ATSFormFillTimeout = %v, want 120s", cfg.ATSFormFillTimeout)
		}
		if cfg.AllowUnauthenticated != false {
			t.Errorf("AllowUnauthenticated = %v, want false", cfg.AllowUnauthenticated)
		}
		if cfg.LLMCommand != "claude" {
			t.Errorf("LLMCommand = %q, want %q", cfg.LLMCommand, "claude")
		}
	})

	t.Run("from env", func(t *testing.T) {
		os.Setenv("PORT", "9000")
		os.Setenv("LOG_LEVEL", "debug")
		os.Setenv("MAX_CONCURRENT_APPLIES", "3")
		os.Setenv("CONFIRM_TIMEOUT", "90s")
		os.Setenv("ATS_FORM_FILL_TIMEOUT", "45s")
		os.Setenv("CHROME_PATH", "/usr/bin/chromium")
		os.Setenv("ALLOW_UNAUTHENTICATED", "true")

		cfg := Load()

		if cfg.Port != 9000 {
			t.Errorf("Port = %d, want 9000", cfg.Port)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
		}
		if cfg.MaxConcurrentApplies != 3 {
			t.Errorf("MaxConcurrentApplies = %d, want 3", cfg.MaxConcurrentApplies)
		}
		if cfg.ConfirmTimeout != 90*time.Second {
			t.Errorf("ConfirmTimeout = %v, want 90s", cfg.ConfirmTimeout)
		}
		// ATSFormFillTimeout is clamped to [10s, 600s]; 45s is within range.
		if cfg.ATSFormFillTimeout != 45*time.Second {
			t.Errorf("ATSFormFillTimeout = %v, want 45s", cfg.ATSFormFillTimeout)
		}
		if cfg.ChromePath != "/usr/bin/chromium" {
			t.Errorf("ChromePath = %q, want %q", cfg.ChromePath, "/usr/bin/chromium")
		}
		if cfg.AllowUnauthenticated != true {
			t.Errorf("AllowUnauthenticated = %v, want true", cfg.AllowUnauthenticated)
		}
	})

	t.Run("max concurrent applies is clamped", func(t *testing.T) {
		os.Setenv("MAX_CONCURRENT_APPLIES", "99")
		cfg := Load()
		if cfg.MaxConcurrentApplies != 5 {
			t.Errorf("MaxConcurrentApplies = %d, want clamped 5", cfg.MaxConcurrentApplies)
		}

		os.Setenv("MAX_CONCURRENT_APPLIES", "0")
		cfg = Load()
		if cfg.MaxConcurrentApplies != 1 {
			t.Errorf("MaxConcurrentApplies = %d, want clamped 1", cfg.MaxConcurrentApplies)
		}
	})

	t.Run("invalid values use defaults", func(t *testing.T) {
		os.Setenv("PORT", "not-a-number")
		os.Setenv("BROWSER_IDLE_TIMEOUT", "invalid-duration")

		cfg := Load()

		if cfg.Port != 8080 {
			t.Errorf("Port with invalid value = %d, want default 8080", cfg.Port)
		}
		if cfg.BrowserIdleTimeout != 10*time.Minute {
			t.Errorf("BrowserIdleTimeout with invalid value = %v, want default 10m", cfg.BrowserIdleTimeout)
		}
	})
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %q, want %q", got, "test-value")
	}

	if got := getEnv("NONEXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() for missing var = %q, want %q", got, "default")
	}
}

func TestGetEnvInt(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")

	if got := getEnvInt("TEST_INT", 0); got != 42 {
		t.Errorf("getEnvInt() = %d, want %d", got, 42)
	}

	os.Setenv("TEST_INT", "not-a-number")
	if got := getEnvInt("TEST_INT", 10); got != 10 {
		t.Errorf("getEnvInt() with invalid value = %d, want default %d", got, 10)
	}

	if got := getEnvInt("NONEXISTENT_VAR", 99); got != 99 {
		t.Errorf("getEnvInt() for missing var = %d, want %d", got, 99)
	}
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DUR", "5m")
	defer os.Unsetenv("TEST_DUR")

	if got := getEnvDuration("TEST_DUR", time.Second); got != 5*time.Minute {
		t.Errorf("getEnvDuration() = %v, want %v", got, 5*time.Minute)
	}

	os.Setenv("TEST_DUR", "invalid")
	if got := getEnvDuration("TEST_DUR", time.Hour); got != time.Hour {
		t.Errorf("getEnvDuration() with invalid value = %v, want default %v", got, time.Hour)
	}

	if got := getEnvDuration("NONEXISTENT_VAR", 30*time.Second); got != 30*time.Second {
		t.Errorf("getEnvDuration() for missing var = %v, want %v", got, 30*time.Second)
	}
}
