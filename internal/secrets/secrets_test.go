package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		envVars map[string]string
		want    string
		wantErr bool
	}{
		{name: "empty string", input: "", want: ""},
		{name: "literal string", input: "literal-value", want: "literal-value"},
		{
			name:    "simple variable expansion",
			input:   "${VI_TOKEN}",
			envVars: map[string]string{"VI_TOKEN": "secret123"},
			want:    "secret123",
		},
		{
			name:    "variable with prefix and suffix",
			input:   "Bearer ${VI_TOKEN}",
			envVars: map[string]string{"VI_TOKEN": "abc123"},
			want:    "Bearer abc123",
		},
		{
			name:    "multiple variables",
			input:   "${VI_USER}:${VI_PASS}",
			envVars: map[string]string{"VI_USER": "admin", "VI_PASS": "secret"},
			want:    "admin:secret",
		},
		{
			name:    "fallback not used when set",
			input:   "${VI_TOKEN:-fallback}",
			envVars: map[string]string{"VI_TOKEN": "actual"},
			want:    "actual",
		},
		{name: "fallback used when unset", input: "${VI_TOKEN:-fallback}", want: "fallback"},
		{name: "empty fallback", input: "${VI_TOKEN:-}", want: ""},
		{name: "missing variable", input: "${VI_TOKEN}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VI_TOKEN", "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got, err := Expand(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				assert.Contains(t, err.Error(), "VI_TOKEN")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	write := func(name, content string, mode os.FileMode) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), mode))
		require.NoError(t, os.Chmod(path, mode))
		return path
	}

	tests := []struct {
		name        string
		path        string
		want        string
		wantWarning bool
		category    errors.ErrorCategory
	}{
		{name: "valid secret file", path: write("valid", "my-secret-token", 0o400), want: "my-secret-token"},
		{name: "trailing newline trimmed", path: write("newline", "secret123\n", 0o600), want: "secret123"},
		{name: "spaces preserved", path: write("spaces", "  token  \n\n", 0o600), want: "  token  "},
		{name: "permissive mode warns", path: write("open", "tok", 0o644), want: "tok", wantWarning: true},
		{name: "empty file", path: write("empty", "\n", 0o600), category: errors.CategoryConfiguration},
		{name: "missing file", path: filepath.Join(dir, "nope"), category: errors.CategoryNotFound},
		{name: "directory", path: dir, category: errors.CategoryConfiguration},
		{name: "empty path", path: "", category: errors.CategoryConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warning, err := ReadFile(tt.path)
			if tt.category != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, tt.category), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWarning, warning != "")
		})
	}
}

func TestReadFileTooLarge(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "large")
	require.NoError(t, os.WriteFile(path, make([]byte, maxFileSize+1), 0o600))

	_, _, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than")
}

func TestCredentialResolve(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "api_key")
	require.NoError(t, os.WriteFile(file, []byte("from-file\n"), 0o600))
	t.Setenv("VI_API_KEY", "from-env")

	tests := []struct {
		name    string
		cred    Credential
		want    string
		wantErr bool
	}{
		{name: "nothing configured", cred: Credential{Name: "api.key"}, want: ""},
		{name: "literal value", cred: Credential{Name: "api.key", Value: "inline"}, want: "inline"},
		{name: "expanded value", cred: Credential{Name: "api.key", Value: "${VI_API_KEY}"}, want: "from-env"},
		{name: "file wins over value", cred: Credential{Name: "api.key", File: file, Value: "inline"}, want: "from-file"},
		{name: "missing file", cred: Credential{Name: "api.key", File: filepath.Join(dir, "nope")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cred.Resolve()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsNotFound(err), "category is inherited, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Secret)
			assert.Empty(t, got.Warning)
		})
	}
}

func TestErrorsDoNotLeakSecrets(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "big")
	require.NoError(t, os.WriteFile(path, []byte("hunter2"+string(make([]byte, maxFileSize))), 0o600))

	_, _, err := ReadFile(path)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}
