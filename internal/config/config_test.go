package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FUNDSIM_OUTPUT_DIR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FUNDSIM_WORKERS", "")
	t.Setenv("FUNDSIM_DB_PATH", "")
	t.Setenv("FUNDSIM_S3_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.OutputDir))
	assert.Equal(t, "output", filepath.Base(cfg.OutputDir))
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Workers)
	assert.Empty(t, cfg.DBPath)
	assert.True(t, cfg.Metrics)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "auto", cfg.S3.Region)
	assert.Equal(t, "fundsim", cfg.S3.Prefix)
}

func TestLoad_FromEnvironment(t *testing.T) {
	out := t.TempDir()
	t.Setenv("FUNDSIM_OUTPUT_DIR", out)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FUNDSIM_WORKERS", "4")
	t.Setenv("FUNDSIM_DB_PATH", "runs.db")
	t.Setenv("FUNDSIM_DB_STORE_RECORDS", "true")
	t.Setenv("FUNDSIM_METRICS", "false")
	t.Setenv("FUNDSIM_S3_BUCKET", "sims")
	t.Setenv("FUNDSIM_S3_ACCESS_KEY_ID", "key")
	t.Setenv("FUNDSIM_S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, out, cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "runs.db", cfg.DBPath)
	assert.True(t, cfg.StoreRecords)
	assert.False(t, cfg.Metrics)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("FUNDSIM_WORKERS", "many")
	t.Setenv("FUNDSIM_S3_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero workers", Config{S3: &S3Config{}}, false},
		{"negative workers", Config{Workers: -1, S3: &S3Config{}}, true},
		{"bucket without credentials", Config{S3: &S3Config{Bucket: "b"}}, true},
		{"bucket with credentials", Config{S3: &S3Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}}, false},
		{"nil s3", Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
