package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "sqlite to mysql", opts: Options{From: "sqlite", To: "mysql", Confirm: true}},
		{name: "mysql to sqlite", opts: Options{From: "mysql", To: "sqlite", Confirm: true}},
		{name: "same engine", opts: Options{From: "sqlite", To: "sqlite", Confirm: true}, wantErr: "both sqlite"},
		{name: "unknown engine", opts: Options{From: "postgres", To: "mysql", Confirm: true}, wantErr: "unknown database engine"},
		{name: "not confirmed", opts: Options{From: "sqlite", To: "mysql"}, wantErr: "--yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}
