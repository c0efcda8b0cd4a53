package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Catalog:  CatalogConfig{DSN: "file::memory:"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_InvalidCatalogDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Driver = "mongo"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid catalog driver")
	}

	expected := `catalog.driver must be "postgres" or "sqlite", got "mongo"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default above max", func(c *Config) { c.Recommend.DefaultLimit = 100 }},
		{"semantic weight above one", func(c *Config) { c.Recommend.SemanticWeight = 1.5 }},
		{"department boost above half", func(c *Config) { c.Recommend.MaxDepartmentBoost = 0.8 }},
		{"negative review share", func(c *Config) { c.Eligibility.MinReviewShare = -0.1 }},
		{"review share above one", func(c *Config) { c.Eligibility.MinReviewShare = 2 }},
		{"unknown budget action", func(c *Config) { c.Embedding.Budget.Action = "block" }},
		{"negative daily budget", func(c *Config) { c.Embedding.Budget.DailyTokenLimit = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Catalog.Driver != "postgres" {
		t.Errorf("expected Driver=postgres, got %q", cfg.Catalog.Driver)
	}
	if cfg.Index.KeyPrefix != "courserec:emb:" {
		t.Errorf("expected KeyPrefix='courserec:emb:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Recommend.Fusion.K != 60 {
		t.Errorf("expected fusion K=60, got %g", cfg.Recommend.Fusion.K)
	}
	if cfg.Recommend.Fusion.VectorWeight != 3.0 || cfg.Recommend.Fusion.KeywordWeight != 0.25 {
		t.Errorf("unexpected fusion weights: %g / %g",
			cfg.Recommend.Fusion.VectorWeight, cfg.Recommend.Fusion.KeywordWeight)
	}
	if cfg.Recommend.Fusion.CandidateMultiplier != 3 {
		t.Errorf("expected CandidateMultiplier=3, got %d", cfg.Recommend.Fusion.CandidateMultiplier)
	}
	if cfg.Recommend.MinPeerOverlap != 3 {
		t.Errorf("expected MinPeerOverlap=3, got %d", cfg.Recommend.MinPeerOverlap)
	}
	if cfg.Recommend.MinAverageRating != 5.5 || cfg.Recommend.MinReviewCount != 3 {
		t.Errorf("unexpected department thresholds: %g / %d",
			cfg.Recommend.MinAverageRating, cfg.Recommend.MinReviewCount)
	}
	if cfg.Embedding.Budget.Action != "warn" {
		t.Errorf("expected budget Action=warn, got %q", cfg.Embedding.Budget.Action)
	}
	if strings.Join(cfg.Exclusions.ReservedSuffixes, ",") != "UR,URG" {
		t.Errorf("unexpected reserved suffixes: %v", cfg.Exclusions.ReservedSuffixes)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Catalog:    CatalogConfig{Driver: "sqlite"},
		Index:      IndexConfig{HNSWM: 32, KeyPrefix: "custom:"},
		Recommend:  RecommendConfig{DefaultLimit: 5, Fusion: FusionConfig{K: 10}},
		Exclusions: ExclusionsConfig{ReservedSuffixes: []string{}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Catalog.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %q", cfg.Catalog.Driver)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Recommend.DefaultLimit != 5 || cfg.Recommend.Fusion.K != 10 {
		t.Errorf("recommend overrides lost: %+v", cfg.Recommend)
	}
	if len(cfg.Exclusions.ReservedSuffixes) != 0 {
		t.Errorf("explicit empty suffix list must be kept, got %v", cfg.Exclusions.ReservedSuffixes)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("COURSEREC_TEST_DSN", "host=db user=app")

	raw := []byte(`
http:
  port: ${COURSEREC_TEST_PORT:-9090}
database:
  addrs: ["localhost:6379"]
catalog:
  driver: postgres
  dsn: "${COURSEREC_TEST_DSN}"
exclusions:
  foundational: ["18.01", "8.01"]
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Catalog.DSN != "host=db user=app" {
		t.Errorf("unexpected dsn: %q", cfg.Catalog.DSN)
	}
	if len(cfg.Exclusions.Foundational) != 2 {
		t.Errorf("unexpected foundational list: %v", cfg.Exclusions.Foundational)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
