package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "sqlite",
			cfg:  Config{Driver: DriverSQLite, DataDir: "/tmp/weft"},
		},
		{
			name: "postgres with dsn",
			cfg:  Config{Driver: DriverPostgres, DSN: "postgres://localhost/weft"},
		},
		{
			name:    "empty driver",
			cfg:     Config{},
			wantErr: ErrDriverEmpty,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "mysql"},
			wantErr: ErrDriverUnknown,
		},
		{
			name:    "postgres without dsn",
			cfg:     Config{Driver: DriverPostgres},
			wantErr: ErrDSNEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
