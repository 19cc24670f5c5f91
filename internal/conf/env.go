// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Aliases   []string           // Fallback variable names, checked in order
	Validate  func(string) error // Optional validation function
}

func (b envBinding) names() []string {
	return append([]string{b.EnvVar}, b.Aliases...)
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Upstream API
		{ConfigKey: "api.baseurl", EnvVar: "API_BASE_URL", Validate: validateEnvURL},
		{ConfigKey: "api.key", EnvVar: "API_SECRET_KEY", Aliases: []string{"VECTORCAM_API_KEY"}},
		{ConfigKey: "api.keyfile", EnvVar: "API_SECRET_KEY_FILE"},
		{ConfigKey: "api.timeout", EnvVar: "API_TIMEOUT", Validate: validateEnvDuration},

		// Paths
		{ConfigKey: "paths.raw", EnvVar: "RAW_DATA_DIR"},
		{ConfigKey: "paths.logs", EnvVar: "LOGS_DIR"},
		{ConfigKey: "paths.exports", EnvVar: "EXPORTS_DIR"},

		// Store
		{ConfigKey: "database.type", EnvVar: "VECTORINSIGHT_DB_TYPE", Validate: validateEnvDBType},
		{ConfigKey: "database.path", EnvVar: "VECTORINSIGHT_DB_PATH"},
		{ConfigKey: "database.mysql.host", EnvVar: "MYSQL_HOST"},
		{ConfigKey: "database.mysql.port", EnvVar: "MYSQL_PORT", Validate: validateEnvPort},
		{ConfigKey: "database.mysql.username", EnvVar: "MYSQL_USER"},
		{ConfigKey: "database.mysql.password", EnvVar: "MYSQL_PASSWORD"},
		{ConfigKey: "database.mysql.passwordfile", EnvVar: "MYSQL_PASSWORD_FILE"},
		{ConfigKey: "database.mysql.database", EnvVar: "MYSQL_DATABASE"},

		{ConfigKey: "telemetry.sentrydsn", EnvVar: "SENTRY_DSN", Validate: validateEnvURL},
	}
}

// bindEnvVars binds environment variables on v and returns validation warnings.
// Invalid values are still bound; validateSettings rejects the ones that matter.
func bindEnvVars(v *viper.Viper) []string {
	var warnings []string

	for _, binding := range getEnvBindings() {
		names := binding.names()
		args := append([]string{binding.ConfigKey}, names...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range names {
			if value, ok := lookupEnv(name); ok && value != "" {
				if err := binding.Validate(value); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, value, err))
				}
				break
			}
		}
	}

	return warnings
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := parseDuration(value); err != nil {
		return err
	}
	return nil
}

func validateEnvDBType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}
