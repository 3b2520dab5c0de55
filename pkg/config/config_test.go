package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.NotEmpty(t, cfg.Uploads.Dir)
	assert.Greater(t, cfg.Uploads.MaxFileSizeBytes, int64(0))
	assert.NotEmpty(t, cfg.Uploads.AllowedExtensions)
	assert.Greater(t, cfg.Claims.DefaultHourCap, 0)
	assert.NotEmpty(t, cfg.Cipher.Secret)
	assert.NotEmpty(t, cfg.Cipher.Salt)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{".pdf", ".png"}, splitAndTrim(" .pdf , .png ,"))
}
