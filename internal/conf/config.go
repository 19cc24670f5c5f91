// Package conf loads pipeline settings from defaults, an optional YAML file,
// a .env file and the process environment.
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/secrets"
)

const (
	surveillancePath = "/sessions/export/surveillance-forms/csv"
	specimensPath    = "/specimens/export/csv"

	redactedValue = "[REDACTED]"
)

// Settings contains all configuration options for the pipeline.
type Settings struct {
	Debug bool `yaml:"debug"`

	API APISettings `yaml:"api"`

	Paths struct {
		Raw     string `yaml:"raw"`     // snapshot cache directory
		Exports string `yaml:"exports"` // cleaned and report CSV directory
		Logs    string `yaml:"logs"`    // log and summary report directory
	} `yaml:"paths"`

	Database DatabaseSettings `yaml:"database"`

	Logging logger.LoggingConfig `yaml:"logging"`

	Observability struct {
		Textfile string `yaml:"textfile"` // Prometheus textfile path, empty disables the export
	} `yaml:"observability"`

	Telemetry struct {
		SentryDSN   string `yaml:"sentrydsn"`
		Environment string `yaml:"environment"`
	} `yaml:"telemetry"`

	// ConfigFile is the file the settings were read from, if any
	ConfigFile string `yaml:"-"`
	// Warnings collects non-fatal environment binding problems
	Warnings []string `yaml:"-"`
}

// APISettings configures access to the upstream export API.
type APISettings struct {
	BaseURL   string        `yaml:"baseurl"`
	Key       string        `yaml:"key"`
	KeyFile   string        `yaml:"keyfile"` // file holding the key, takes precedence over key
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"useragent"`
}

// DatabaseSettings selects and configures the relational store.
type DatabaseSettings struct {
	Type      string        `yaml:"type"` // sqlite or mysql
	Path      string        `yaml:"path"` // sqlite database file
	BatchSize int           `yaml:"batchsize"`
	SlowQuery time.Duration `yaml:"slowquery"`
	MySQL     MySQLSettings `yaml:"mysql"`
}

// MySQLSettings contains connection details for the MySQL engine.
type MySQLSettings struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"passwordfile"` // takes precedence over password
	Database     string `yaml:"database"`
}

// Endpoints are the two export URLs derived from the API base URL.
type Endpoints struct {
	Surveillance string
	Specimens    string
}

// Endpoints derives the export URLs from API.BaseURL.
func (s *Settings) Endpoints() Endpoints {
	base := strings.TrimRight(s.API.BaseURL, "/")
	return Endpoints{
		Surveillance: base + surveillancePath,
		Specimens:    base + specimensPath,
	}
}

// HasAPIKey reports whether an API key was configured.
func (s *Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.API.Key) != ""
}

// Redacted returns a copy with secrets masked, suitable for display.
func (s *Settings) Redacted() *Settings {
	out := *s
	if out.API.Key != "" {
		out.API.Key = redactedValue
	}
	if out.Database.MySQL.Password != "" {
		out.Database.MySQL.Password = redactedValue
	}
	if out.Telemetry.SentryDSN != "" {
		out.Telemetry.SentryDSN = redactedValue
	}
	out.Warnings = nil
	return &out
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	ConfigFile string // explicit YAML file; empty searches the default paths
	EnvFile    string // .env file; empty means ".env" in the working directory
	Debug      bool   // forces debug logging
}

// Load builds Settings from defaults, the config file, the .env file and the environment.
func Load(opts LoadOptions) (*Settings, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaultConfig(v)

	configFile, err := readConfigFile(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	warnings := bindEnvVars(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	settings.ConfigFile = configFile
	settings.Warnings = warnings

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	applyDerivedSettings(settings, opts.Debug)

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// loadEnvFile populates the process environment from a .env file.
// A missing default file is ignored; a missing explicit file is an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, explicit string) (string, error) {
	v.SetConfigType("yaml")

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("error reading config file %s: %w", explicit, err)
		}
		return v.ConfigFileUsed(), nil
	}

	v.SetConfigName("config")
	for _, path := range defaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("fatal error reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func defaultConfigPaths() []string {
	paths := []string{".", "config"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vectorinsight"))
	}
	return paths
}

// resolveSecrets replaces the API key and MySQL password with their
// resolved values, reading secret files and expanding ${VAR} references.
func resolveSecrets(settings *Settings) error {
	for _, c := range []struct {
		cred   secrets.Credential
		target *string
	}{
		{secrets.Credential{Name: "api.key", File: settings.API.KeyFile, Value: settings.API.Key}, &settings.API.Key},
		{secrets.Credential{Name: "database.mysql.password", File: settings.Database.MySQL.PasswordFile, Value: settings.Database.MySQL.Password}, &settings.Database.MySQL.Password},
	} {
		resolved, err := c.cred.Resolve()
		if err != nil {
			return fmt.Errorf("error resolving %s: %w", c.cred.Name, err)
		}
		*c.target = resolved.Secret
		if resolved.Warning != "" {
			settings.Warnings = append(settings.Warnings, resolved.Warning)
		}
	}
	return nil
}

func applyDerivedSettings(settings *Settings, debug bool) {
	if debug {
		settings.Debug = true
	}
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
		if settings.Logging.FileOutput != nil {
			settings.Logging.FileOutput.Level = "debug"
		}
	}
	if settings.Logging.FileOutput != nil && settings.Logging.FileOutput.Path == "" {
		settings.Logging.FileOutput.Path = filepath.Join(settings.Paths.Logs, "pipeline.log")
	}
	if settings.API.UserAgent == "" {
		settings.API.UserAgent = "vectorinsight"
	}
}

// SaveYAML writes settings to configPath atomically. Comments in an existing
// file are not preserved.
func SaveYAML(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}

// DumpYAML renders the redacted settings for display.
func (s *Settings) DumpYAML() ([]byte, error) {
	return yaml.Marshal(s.Redacted())
}
