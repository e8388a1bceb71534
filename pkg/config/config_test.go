package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	if cfg.Vectorizer.MaxFeatures != 3000 {
		t.Errorf("MaxFeatures = %d, expected 3000", cfg.Vectorizer.MaxFeatures)
	}
	if cfg.Training.TestSize != 0.2 || cfg.Training.Seed != 42 || cfg.Training.Alpha != 1.0 {
		t.Errorf("unexpected training defaults: %+v", cfg.Training)
	}
	if cfg.Model.VectorizerFile != "vectorizer.json" || cfg.Model.ClassifierFile != "spam_model.json" {
		t.Errorf("unexpected artifact names: %+v", cfg.Model)
	}
	if cfg.Dataset.LabelColumn != "v1" || cfg.Dataset.TextColumn != "v2" {
		t.Errorf("unexpected dataset columns: %+v", cfg.Dataset)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zsms.yaml")
	yamlData := `
dataset:
  path: data/sms.tsv
  label_column: label
  encoding: latin-1
vectorizer:
  max_features: 500
training:
  seed: 7
model:
  backend: redis
  redis:
    url: redis://cache:6379
    key_prefix: test:model
    timeout: 3s
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Dataset.Path != "data/sms.tsv" || cfg.Dataset.LabelColumn != "label" || cfg.Dataset.Encoding != "latin-1" {
		t.Errorf("dataset section not applied: %+v", cfg.Dataset)
	}
	// unset keys keep their defaults
	if cfg.Dataset.TextColumn != "v2" || cfg.Training.TestSize != 0.2 {
		t.Errorf("defaults lost: %+v %+v", cfg.Dataset, cfg.Training)
	}
	if cfg.Vectorizer.MaxFeatures != 500 || cfg.Training.Seed != 7 {
		t.Errorf("overrides not applied: %+v %+v", cfg.Vectorizer, cfg.Training)
	}
	if cfg.Model.Backend != "redis" || cfg.Model.Redis.URL != "redis://cache:6379" || cfg.Model.Redis.Timeout != 3*time.Second {
		t.Errorf("model section not applied: %+v", cfg.Model)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging section not applied: %+v", cfg.Logging)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ZSMS_MODEL_DIR", "/var/lib/zsms")
	t.Setenv("ZSMS_LOG_LEVEL", "warn")
	t.Setenv("ZSMS_SEED", "1234")
	t.Setenv("ZSMS_REDIS_TIMEOUT", "750ms")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Model.Dir != "/var/lib/zsms" {
		t.Errorf("Model.Dir = %q", cfg.Model.Dir)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Training.Seed != 1234 {
		t.Errorf("Training.Seed = %d", cfg.Training.Seed)
	}
	if cfg.Model.Redis.Timeout != 750*time.Millisecond {
		t.Errorf("Redis.Timeout = %v", cfg.Model.Redis.Timeout)
	}
	// untouched settings keep their defaults
	if cfg.Model.Backend != "file" || cfg.Performance.MaxConcurrent != 4 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Model, cfg.Performance)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("ZSMS_MAX_CONCURRENT", "many")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected non-numeric override to fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZSMS_DOTENV_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ZSMS_DOTENV_TEST_VALUE") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv failed: %v", err)
	}
	if got := os.Getenv("ZSMS_DOTENV_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("variable not loaded, got %q", got)
	}

	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"test size negative", func(c *Config) { c.Training.TestSize = -0.1 }, "TestSize"},
		{"test size one", func(c *Config) { c.Training.TestSize = 1 }, "TestSize"},
		{"alpha", func(c *Config) { c.Training.Alpha = 0 }, "Alpha"},
		{"backend", func(c *Config) { c.Model.Backend = "s3" }, "Backend"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
		{"workers", func(c *Config) { c.Performance.MaxConcurrent = 0 }, "MaxConcurrent"},
		{"input length", func(c *Config) { c.Inference.MaxInputLength = 0 }, "MaxInputLength"},
		{"norm", func(c *Config) { c.Vectorizer.Norm = "l3" }, "vectorizer"},
		{"encoding", func(c *Config) { c.Dataset.Encoding = "ebcdic" }, "dataset"},
		{"same artifact", func(c *Config) { c.Model.ClassifierFile = c.Model.VectorizerFile }, "must differ"},
		{"redis url", func(c *Config) { c.Model.Backend = "redis"; c.Model.Redis.URL = "" }, "redis url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "zsms.yaml")

	cfg := DefaultConfig()
	cfg.Vectorizer.MaxFeatures = 1234
	cfg.Model.Redis.Timeout = 2 * time.Second
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Vectorizer.MaxFeatures != 1234 || loaded.Model.Redis.Timeout != 2*time.Second {
		t.Errorf("round trip lost values: %+v %+v", loaded.Vectorizer, loaded.Model.Redis)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
