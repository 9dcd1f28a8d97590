package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestCacheConfig_EnabledRequiresPath(t *testing.T) {
	cfg := CacheConfig{Enabled: true, Path: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled cache without path should fail")
	}
	cfg = CacheConfig{Enabled: false, Path: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled cache may omit path: %v", err)
	}
}

func TestAutomationConfig_Backoff(t *testing.T) {
	cfg := AutomationConfig{ProgID: "SolidEdge.Application", RetryBackoffMS: 100, MaxRetries: 50}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Backoff(); got != 100*time.Millisecond {
		t.Fatalf("Backoff() = %v, want 100ms", got)
	}
}

func TestAutomationConfig_RequiresProgID(t *testing.T) {
	cfg := AutomationConfig{RetryBackoffMS: 100}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty prog_id should fail validation")
	}
}

func TestSearchConfig_RequiresRootAndPrefix(t *testing.T) {
	cfg := SearchConfig{Root: "", Prefix: "NOMEX_LAYERS"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty root should fail validation")
	}
	cfg = SearchConfig{Root: ".", Prefix: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty prefix should fail validation")
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	cfg := HTTPConfig{Port: 8080}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Address(); got != ":8080" {
		t.Fatalf("Address() = %q", got)
	}
}

func TestNewDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Search.Prefix != "NOMEX_LAYERS" {
		t.Errorf("default prefix = %q", cfg.Search.Prefix)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should default to disabled")
	}
	if cfg.Cache.Enabled {
		t.Error("cache should default to disabled")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Config.Validate must surface auth section errors")
	}

	cfg = NewDefaultConfig()
	cfg.Automation.ProgID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Config.Validate must surface automation section errors")
	}
}
