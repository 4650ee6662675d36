package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "user-data-service/pkg/errors"
)

// ModeTest is the APP_ENV (or NODE_ENV) value that marks a test run.
const ModeTest = "test"

// Config holds all configuration for the application
type Config struct {
	DB     DatabaseConfig
	App    AppConfig
	Logger LoggerConfig
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL" validate:"required"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=0"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS" validate:"min=0"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME_SECONDS" validate:"min=0"`
}

// AppConfig holds process-level settings
type AppConfig struct {
	Env string `mapstructure:"APP_ENV"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn warning error fatal silent"`
	Format           string  `mapstructure:"LOG_FORMAT" validate:"omitempty,oneof=json console"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS" validate:"min=0"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// TestDBConfig holds the settings used to provision per-worker test databases.
// Connection parameters (host, user, password, port, worker id) are resolved
// separately by testdb.ResolveParameters.
type TestDBConfig struct {
	Mode           string `mapstructure:"APP_ENV"`
	RootDatabase   string `mapstructure:"TEST_DB_ROOT_DATABASE_NAME" validate:"required"`
	Workers        int    `mapstructure:"TEST_DB_WORKERS" validate:"min=1"`
	MigrateCommand string `mapstructure:"TEST_DB_MIGRATE_COMMAND"`
	UseContainer   bool   `mapstructure:"TEST_DB_CONTAINER"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// LoadConfig reads configuration from an optional app.env file in path and
// from environment variables. It fails when DATABASE_URL is not set.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.DB.URL = v.GetString("DATABASE_URL")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")

	config.App.Env = v.GetString("APP_ENV")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)

	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-data-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	return validateStruct(c)
}

// LoadTestDBConfig reads the test provisioning settings from the environment.
// The mode comes from APP_ENV, falling back to NODE_ENV when APP_ENV is empty.
func LoadTestDBConfig() (*TestDBConfig, error) {
	v := viper.New()
	v.SetDefault("APP_ENV", "")
	v.SetDefault("TEST_DB_ROOT_DATABASE_NAME", "test_db")
	v.SetDefault("TEST_DB_WORKERS", 1)
	v.SetDefault("TEST_DB_MIGRATE_COMMAND", "")
	v.SetDefault("TEST_DB_CONTAINER", false)
	v.AutomaticEnv()
	// NODE_ENV is honoured so shared CI settings keep working.
	if err := v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV"); err != nil {
		return nil, err
	}

	cfg := TestDBConfig{
		Mode:           v.GetString("APP_ENV"),
		RootDatabase:   v.GetString("TEST_DB_ROOT_DATABASE_NAME"),
		Workers:        v.GetInt("TEST_DB_WORKERS"),
		MigrateCommand: v.GetString("TEST_DB_MIGRATE_COMMAND"),
		UseContainer:   v.GetBool("TEST_DB_CONTAINER"),
	}

	if err := validateStruct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsTestMode reports whether provisioning is allowed.
func (c *TestDBConfig) IsTestMode() bool {
	return c.Mode == ModeTest
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	// Report the first failure; a missing required value is the common case.
	e := validationErrors[0]
	switch e.Tag() {
	case "required":
		return apperrors.NewConfigError(e.Field(), "is not set")
	case "min":
		return apperrors.NewConfigError(e.Field(), fmt.Sprintf("must be at least %s", e.Param()))
	case "oneof":
		return apperrors.NewConfigError(e.Field(), fmt.Sprintf("must be one of [%s]", e.Param()))
	default:
		return apperrors.NewConfigError(e.Field(), "is invalid")
	}
}
