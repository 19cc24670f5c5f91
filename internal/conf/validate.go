// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Supported database engines
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAPISettings(&settings.API); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validatePaths(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAPISettings(api *APISettings) error {
	var errs []string

	u, err := url.Parse(api.BaseURL)
	switch {
	case api.BaseURL == "":
		errs = append(errs, "api base URL is required")
	case err != nil:
		errs = append(errs, fmt.Sprintf("api base URL is invalid: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, "api base URL must use http or https")
	case u.Host == "":
		errs = append(errs, "api base URL has no host")
	}

	if api.Timeout <= 0 {
		errs = append(errs, "api timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("api settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabaseSettings(db *DatabaseSettings) error {
	var errs []string

	switch db.Type {
	case DatabaseSQLite:
		if db.Path == "" {
			errs = append(errs, "sqlite path is required")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" || db.MySQL.Database == "" {
			errs = append(errs, "mysql host and database are required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported database type %q", db.Type))
	}

	if db.BatchSize <= 0 {
		errs = append(errs, "batch size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("database settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePaths(settings *Settings) error {
	var missing []string
	if settings.Paths.Raw == "" {
		missing = append(missing, "raw")
	}
	if settings.Paths.Exports == "" {
		missing = append(missing, "exports")
	}
	if settings.Paths.Logs == "" {
		missing = append(missing, "logs")
	}
	if len(missing) > 0 {
		return fmt.Errorf("paths settings: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}
