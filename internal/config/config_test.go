package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := Load()
	if cfg.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.LogLevel)
	}
	if !cfg.CacheEnabled {
		t.Error("cache should default to enabled")
	}
	if cfg.CacheMaxSizeMB != 64 || cfg.CacheMaxEntries != 1000 || cfg.CacheTTLMin != 60 {
		t.Errorf("unexpected cache defaults: %d MB, %d entries, %d min",
			cfg.CacheMaxSizeMB, cfg.CacheMaxEntries, cfg.CacheTTLMin)
	}
	if cfg.PackerMaxIterations != 0 {
		t.Error("packer tunables should default to zero (engine default)")
	}
	if cfg.OTELEnabled {
		t.Error("tracing should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PACKER_MIN_SPACING", "2.5")
	t.Setenv("PACKER_MAX_ITERATIONS", "500")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := Load()
	if cfg.PackerMinSpacing != 2.5 {
		t.Errorf("PackerMinSpacing = %g, want 2.5", cfg.PackerMinSpacing)
	}
	if cfg.PackerMaxIterations != 500 {
		t.Errorf("PackerMaxIterations = %d, want 500", cfg.PackerMaxIterations)
	}
	if cfg.CacheEnabled {
		t.Error("CACHE_ENABLED=false not honored")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lowercased debug", cfg.LogLevel)
	}
}

func TestLoadCaches(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	a := Load()
	b := Load()
	if a != b {
		t.Error("Load should return the cached instance")
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val        string
		defaultVal bool
		want       bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"0", true, false},
		{"false", true, false},
		{"no", true, false},
		{"", true, true},
		{"garbage", false, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := GetEnvAsBool("TEST_BOOL", tt.defaultVal); got != tt.want {
			t.Errorf("GetEnvAsBool(%q, %v) = %v, want %v", tt.val, tt.defaultVal, got, tt.want)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := GetEnvAsInt("TEST_INT", 7); got != 42 {
		t.Errorf("GetEnvAsInt = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "not-a-number")
	if got := GetEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("GetEnvAsInt fallback = %d, want 7", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.85")
	if got := GetEnvAsFloat("TEST_FLOAT", 1); got != 0.85 {
		t.Errorf("GetEnvAsFloat = %g, want 0.85", got)
	}
	t.Setenv("TEST_FLOAT", "")
	if got := GetEnvAsFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("GetEnvAsFloat fallback = %g, want 1", got)
	}
}
