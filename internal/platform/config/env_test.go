package config

import (
	"testing"
	"time"
)

type testConfig struct {
	Addr    string        `env:"TESTCFG_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"TESTCFG_TIMEOUT" envDefault:"5s"`
	Debug   bool          `env:"TESTCFG_DEBUG"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Timeout != 5*time.Second || cfg.Debug {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("TESTCFG_ADDR", "127.0.0.1:9000")
	t.Setenv("TESTCFG_TIMEOUT", "250ms")
	t.Setenv("TESTCFG_DEBUG", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.Timeout != 250*time.Millisecond || !cfg.Debug {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseEnvBadValue(t *testing.T) {
	t.Setenv("TESTCFG_TIMEOUT", "not-a-duration")
	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}
