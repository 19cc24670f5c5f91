// Package secrets resolves credentials given inline, through ${VAR}
// references, or in files such as Docker and Kubernetes secrets.
// Secret values never appear in returned errors.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

// maxFileSize bounds secret file reads. Tokens and passwords are small.
const maxFileSize = 64 * 1024

// Credential is one configured secret. File takes precedence over Value.
type Credential struct {
	Name  string // setting name, used in errors and warnings
	File  string
	Value string
}

// Resolved is the outcome of resolving a Credential.
type Resolved struct {
	Secret string
	// Warning is set when the secret file is readable by group or others.
	Warning string
}

// Expand replaces ${VAR} and ${VAR:-fallback} references with environment
// values. A reference to an unset variable without fallback is an error.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret file, trimming trailing newlines. The returned
// warning is non-empty when the file mode allows group or other access.
func ReadFile(path string) (secret, warning string, err error) {
	if path == "" {
		return "", "", errors.Newf("secret file path is empty").
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return "", "", errors.New(err).
			Component("secrets").
			Category(category).
			Context("path", clean).
			Build()
	}
	if !info.Mode().IsRegular() {
		return "", "", fileError("secret path is not a regular file", clean)
	}
	if info.Size() > maxFileSize {
		return "", "", fileError(fmt.Sprintf("secret file larger than %d bytes", maxFileSize), clean)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		warning = fmt.Sprintf("secret file %s is readable by group or others (mode %04o)", clean, perm)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Context("path", clean).
			Build()
	}
	secret = strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", "", fileError("secret file is empty", clean)
	}
	return secret, warning, nil
}

func fileError(msg, path string) error {
	return errors.Newf("%s", msg).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}

// Resolve returns the secret from File when set, otherwise the expanded
// Value. Neither set resolves to an empty secret.
func (c Credential) Resolve() (Resolved, error) {
	if c.File != "" {
		secret, warning, err := ReadFile(c.File)
		if err != nil {
			return Resolved{}, errors.New(err).
				Component("secrets").
				Context("setting", c.Name).
				Build()
		}
		return Resolved{Secret: secret, Warning: warning}, nil
	}

	secret, err := Expand(c.Value)
	if err != nil {
		return Resolved{}, errors.New(err).
			Component("secrets").
			Context("setting", c.Name).
			Build()
	}
	return Resolved{Secret: secret}, nil
}
