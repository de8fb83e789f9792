package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TODO_STORAGE_FILE.
const EnvPrefix = "TODO"

// Settings represents the contents of config.yaml.
type Settings struct {
	Storage StorageSettings `mapstructure:"storage"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// StorageSettings controls where and how tasks are persisted.
type StorageSettings struct {
	// File is the task file path (default: "task.json", relative to the working directory)
	File string `mapstructure:"file"`
	// RecoverCorrupt starts with an empty list instead of failing when the
	// task file cannot be parsed (default: false)
	RecoverCorrupt bool `mapstructure:"recover_corrupt"`
}

// LoggingSettings controls log output on stderr.
type LoggingSettings struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "warn")
	Level string `mapstructure:"level"`
}

// DefaultSettings returns the settings used when no file or env overrides exist.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			File:           "task.json",
			RecoverCorrupt: false,
		},
		Logging: LoggingSettings{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("storage.file", d.Storage.File)
	v.SetDefault("storage.recover_corrupt", d.Storage.RecoverCorrupt)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadSettings reads dir/config.yaml from fs if present.
// A missing file is not an error.
func LoadSettings(fs afero.Fs, dir string) (Settings, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetConfigName(strings.TrimSuffix(SettingsFile, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := s.Validate(); len(errs) > 0 {
		return Settings{}, errs
	}
	return s, nil
}

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string // The settings key (e.g., "logging.level")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks s and returns every problem found.
func (s Settings) Validate() ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(s.Storage.File) == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.file",
			Value:   s.Storage.File,
			Message: "must not be empty",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(s.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   s.Logging.Level,
			Message: fmt.Sprintf("must be one of %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}
