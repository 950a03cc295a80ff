package sqlverify

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	// DefaultMaxRetries disables retries unless a check asks for them.
	DefaultMaxRetries = 0
	// DefaultRetryPause is the pause between two attempts of a check.
	DefaultRetryPause = 1000 * time.Millisecond
	// DefaultQueryTimeout bounds a single statement execution.
	DefaultQueryTimeout = 30 * time.Second
)

// Config represents the sqlverify configuration
type Config struct {
	InputDir  string              `yaml:"input_dir"`
	Databases map[string]Database `yaml:"databases"`
	Defaults  CheckDefaults       `yaml:"defaults"`
	Variables map[string]string   `yaml:"variables"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
}

// CheckDefaults holds the values used when a check document does not set them.
type CheckDefaults struct {
	MaxRetries   int           `yaml:"max_retries"`
	RetryPause   time.Duration `yaml:"retry_pause"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// LegacyExport exports every merged column as ${COLUMN}. Pointer to distinguish unset from false.
	LegacyExport *bool `yaml:"legacy_export"`
}

// LegacyExportEnabled returns true unless legacy_export: false is set
func (d CheckDefaults) LegacyExportEnabled() bool {
	return d.LegacyExport == nil || *d.LegacyExport
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data, validates it and applies defaults
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	// Parse YAML with strict mode to detect unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// Database returns the connection settings of the given environment
func (c *Config) Database(env string) (Database, error) {
	if len(c.Databases) == 0 {
		return Database{}, ErrNoDatabasesConfigured
	}

	db, ok := c.Databases[env]
	if !ok {
		return Database{}, fmt.Errorf("%w: '%s'", ErrEnvironmentNotFound, env)
	}

	return db, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	validDrivers := map[string]bool{
		"postgres":   true,
		"postgresql": true,
		"pgx":        true,
		"mysql":      true,
		"mariadb":    true,
		"sqlite":     true,
		"sqlite3":    true,
	}

	for env, db := range config.Databases {
		if db.Driver == "" {
			return fmt.Errorf("%w: databases.%s.driver is required", ErrConfigValidation, env)
		}

		if !validDrivers[db.Driver] {
			return fmt.Errorf("%w: databases.%s.driver '%s' is invalid: must be one of postgres, mysql, sqlite", ErrConfigValidation, env, db.Driver)
		}

		if db.Connection == "" {
			return fmt.Errorf("%w: databases.%s.connection is required", ErrConfigValidation, env)
		}
	}

	if config.Defaults.MaxRetries < 0 {
		return fmt.Errorf("%w: defaults.max_retries must be non-negative, got %d", ErrConfigValidation, config.Defaults.MaxRetries)
	}

	if config.Defaults.RetryPause < 0 {
		return fmt.Errorf("%w: defaults.retry_pause must be >= 0, got %s", ErrConfigValidation, config.Defaults.RetryPause)
	}

	if config.Defaults.QueryTimeout < 0 {
		return fmt.Errorf("%w: defaults.query_timeout must be >= 0, got %s", ErrConfigValidation, config.Defaults.QueryTimeout)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		InputDir:  "./checks",
		Databases: make(map[string]Database),
		Defaults: CheckDefaults{
			MaxRetries:   DefaultMaxRetries,
			RetryPause:   DefaultRetryPause,
			QueryTimeout: DefaultQueryTimeout,
		},
		Variables: make(map[string]string),
	}
}

// applyDefaults applies default values to missing configuration fields.
// max_retries needs no default: zero already means "no retry".
func applyDefaults(config *Config) {
	if config.InputDir == "" {
		config.InputDir = "./checks"
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Defaults.RetryPause == 0 {
		config.Defaults.RetryPause = DefaultRetryPause
	}

	if config.Defaults.QueryTimeout == 0 {
		config.Defaults.QueryTimeout = DefaultQueryTimeout
	}

	if config.Variables == nil {
		config.Variables = make(map[string]string)
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	for _, name := range []string{".env", ".env.local"} {
		if !fileExists(name) {
			continue
		}

		err := godotenv.Load(name)
		if err != nil {
			return fmt.Errorf("failed to load %s file: %w", name, err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in database settings.
// Check variables are left untouched because ${name} is also the variable reference syntax.
func expandConfigEnvVars(config *Config) {
	for env, db := range config.Databases {
		db.Driver = expandEnvVars(db.Driver)
		db.Connection = expandEnvVars(db.Connection)
		config.Databases[env] = db
	}

	config.InputDir = expandEnvVars(config.InputDir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
