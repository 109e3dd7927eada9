package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"leadline/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Buyer.Mode != config.ModeMock {
		t.Fatalf("default mode = %s, want mock", cfg.Buyer.Mode)
	}
	if cfg.Lead.SourcePrefix != "CC" || cfg.Lead.PubID != "CCBFTX" {
		t.Fatalf("lead defaults = %+v", cfg.Lead)
	}
	if cfg.Transfer.DID == "" {
		t.Fatalf("transfer DID missing")
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	if err != nil {
		t.Fatalf("parse generated default: %v", err)
	}
	if cfg.Buyer.Endpoint == "" {
		t.Fatalf("endpoint missing")
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := config.Default()
	cfg.Buyer.Mode = "dry-run"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected mode error")
	}
}

func TestValidateLiveNeedsEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Buyer.Mode = config.ModeLive
	cfg.Buyer.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected endpoint error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Buyer.Mode != config.ModeMock {
		t.Fatalf("missing file should yield defaults")
	}

	custom := `buyer:
  endpoint: https://example.com/enrich/1
  mode: live
  timeout: 5s
lead:
  source_prefix: ZZ
  pub_id: TESTPUB
transfer:
  did: 800-000-0000
`
	if err := os.WriteFile(filepath.Join(dir, "leadline.yml"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Lead.SourcePrefix != "ZZ" || cfg.Buyer.Mode != config.ModeLive {
		t.Fatalf("custom config not applied: %+v", cfg)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := config.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
