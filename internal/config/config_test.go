package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.False(t, cfg.Serverless)
	assert.Equal(t, "sheet-123", cfg.Sheet.ID)
	assert.Equal(t, 3, cfg.Sheet.WriteRetries)
	assert.Equal(t, 5*time.Minute, cfg.Cache.SheetTTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.CredentialsTTL)
	assert.Equal(t, 50, cfg.Jobs.Capacity)
	assert.Equal(t, 10, cfg.Jobs.Workers)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"adda247.com", "addaeducation.com", "studyiq.com"}, cfg.Auth.AllowedDomains)
	assert.Equal(t, "uploaded_videos", cfg.Video.StorageDir)
}

func TestLoadMissingSheetID(t *testing.T) {
	t.Setenv("SHEET_ID", "placeholder") // registers restore
	os.Unsetenv("SHEET_ID")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVERLESS", "true")
	t.Setenv("JOB_CAPACITY", "5")
	t.Setenv("SHEET_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Serverless)
	assert.Equal(t, 5, cfg.Jobs.Capacity)
	assert.Equal(t, 30*time.Second, cfg.Cache.SheetTTL)
	assert.Equal(t, []string{"example.com"}, cfg.Auth.AllowedDomains)
}

func TestLoadRejectsNonPositiveCapacity(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-123")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JOB_CAPACITY", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestHasGoogleCredentials(t *testing.T) {
	assert.True(t, Config{Google: GoogleConfig{CredentialsBase64: "blob"}}.HasGoogleCredentials())
	assert.True(t, Config{Google: GoogleConfig{CredentialsFile: "creds.json"}}.HasGoogleCredentials())
	assert.False(t, Config{}.HasGoogleCredentials())
}
