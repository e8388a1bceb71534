package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/vectorizer"
)

// EnvPrefix prefixes every environment override, e.g. ZSMS_MODEL_DIR
const EnvPrefix = "ZSMS"

// Config represents ZSMS configuration
type Config struct {
	// Training data location and layout
	Dataset DatasetConfig `yaml:"dataset"`

	// TF-IDF settings
	Vectorizer vectorizer.Config `yaml:"vectorizer"`

	// Split and classifier settings
	Training TrainingConfig `yaml:"training"`

	// Artifact storage
	Model ModelConfig `yaml:"model"`

	// Classification settings
	Inference InferenceConfig `yaml:"inference"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// DatasetConfig locates the labeled dataset
type DatasetConfig struct {
	Path            string `yaml:"path"`
	dataset.Options `yaml:",inline"`
}

// TrainingConfig contains split and classifier parameters
type TrainingConfig struct {
	TestSize float64 `yaml:"test_size" validate:"gte=0,lt=1"`
	Seed     int64   `yaml:"seed"`
	Alpha    float64 `yaml:"alpha" validate:"gt=0"`
	FitPrior bool    `yaml:"fit_prior"`
}

// ModelConfig selects where artifacts are stored
type ModelConfig struct {
	Backend        string            `yaml:"backend" validate:"oneof=file redis"` // file, redis
	Dir            string            `yaml:"dir"`
	VectorizerFile string            `yaml:"vectorizer_file"`
	ClassifierFile string            `yaml:"classifier_file"`
	Redis          model.RedisConfig `yaml:"redis"`
}

// InferenceConfig contains classification settings
type InferenceConfig struct {
	MaxInputLength int    `yaml:"max_input_length" validate:"min=1"` // bytes
	SpamLabelText  string `yaml:"spam_label_text"`
	HamLabelText   string `yaml:"ham_label_text"`
}

// PerformanceConfig contains performance tuning
type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" validate:"min=1,max=256"`
	CacheSize     int `yaml:"cache_size" validate:"min=0"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file"`
	Format     string `yaml:"format" validate:"oneof=json console text"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
}

// envOverrides lists the settings that can be changed from the environment.
// Unset variables leave the pointer nil.
type envOverrides struct {
	DatasetPath    *string        `envconfig:"DATASET_PATH"`
	ModelBackend   *string        `envconfig:"MODEL_BACKEND"`
	ModelDir       *string        `envconfig:"MODEL_DIR"`
	RedisURL       *string        `envconfig:"REDIS_URL"`
	RedisKeyPrefix *string        `envconfig:"REDIS_KEY_PREFIX"`
	RedisDB        *int           `envconfig:"REDIS_DB"`
	RedisTimeout   *time.Duration `envconfig:"REDIS_TIMEOUT"`
	Seed           *int64         `envconfig:"SEED"`
	MaxFeatures    *int           `envconfig:"MAX_FEATURES"`
	MaxConcurrent  *int           `envconfig:"MAX_CONCURRENT"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	LogFile        *string        `envconfig:"LOG_FILE"`
	LogFormat      *string        `envconfig:"LOG_FORMAT"`
}

// DefaultConfig returns ZSMS default configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:    "spam.csv",
			Options: *dataset.DefaultOptions(),
		},
		Vectorizer: *vectorizer.DefaultConfig(),
		Training: TrainingConfig{
			TestSize: 0.2,
			Seed:     42,
			Alpha:    1.0,
			FitPrior: true,
		},
		Model: ModelConfig{
			Backend:        "file",
			Dir:            ".",
			VectorizerFile: model.DefaultVectorizerFile,
			ClassifierFile: model.DefaultClassifierFile,
			Redis:          *model.DefaultRedisConfig(),
		},
		Inference: InferenceConfig{
			MaxInputLength: 10000,
			SpamLabelText:  "SPAM DETECTED",
			HamLabelText:   "HAM MESSAGE",
		},
		Performance: PerformanceConfig{
			MaxConcurrent: 4,
			CacheSize:     1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file. A .env file in the working
// directory and ZSMS_* environment variables are applied on top.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// Start with defaults
	config := DefaultConfig()

	if configPath != "" {
		// Check if config file exists
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	return config, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %v", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from ZSMS_* environment variables
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment override: %v", err)
	}

	setString(&c.Dataset.Path, env.DatasetPath)
	setString(&c.Model.Backend, env.ModelBackend)
	setString(&c.Model.Dir, env.ModelDir)
	setString(&c.Model.Redis.URL, env.RedisURL)
	setString(&c.Model.Redis.KeyPrefix, env.RedisKeyPrefix)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Logging.File, env.LogFile)
	setString(&c.Logging.Format, env.LogFormat)

	if env.RedisDB != nil {
		c.Model.Redis.DatabaseNum = *env.RedisDB
	}
	if env.RedisTimeout != nil {
		c.Model.Redis.Timeout = *env.RedisTimeout
	}
	if env.Seed != nil {
		c.Training.Seed = *env.Seed
	}
	if env.MaxFeatures != nil {
		c.Vectorizer.MaxFeatures = *env.MaxFeatures
	}
	if env.MaxConcurrent != nil {
		c.Performance.MaxConcurrent = *env.MaxConcurrent
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}

	if err := c.Dataset.Options.Validate(); err != nil {
		return fmt.Errorf("dataset: %v", err)
	}

	if err := c.Vectorizer.Validate(); err != nil {
		return fmt.Errorf("vectorizer: %v", err)
	}

	switch c.Model.Backend {
	case "file":
		if c.Model.VectorizerFile == "" || c.Model.ClassifierFile == "" {
			return fmt.Errorf("model vectorizer_file and classifier_file cannot be empty")
		}
		if c.Model.VectorizerFile == c.Model.ClassifierFile {
			return fmt.Errorf("model vectorizer_file and classifier_file must differ")
		}
	case "redis":
		if c.Model.Redis.URL == "" {
			return fmt.Errorf("model redis url cannot be empty when backend is redis")
		}
		if c.Model.Redis.KeyPrefix == "" {
			return fmt.Errorf("model redis key_prefix cannot be empty when backend is redis")
		}
		if c.Model.Redis.DatabaseNum < 0 {
			return fmt.Errorf("model redis database_num must be >= 0")
		}
	}

	return nil
}

// describe turns validator errors into "section.field: rule" messages
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	if fe.Param() != "" {
		return fmt.Errorf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s must satisfy %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
}
