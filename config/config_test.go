package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	os.Setenv("CATALOG_TABLE", "catalog")
	os.Setenv("SPARE_PARTS_TABLE", "spare-parts")
	os.Setenv("MEDIA_BUCKET", "media")
	defer os.Unsetenv("CATALOG_TABLE")
	defer os.Unsetenv("SPARE_PARTS_TABLE")
	defer os.Unsetenv("MEDIA_BUCKET")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "catalog", cfg.CatalogTable)
	assert.Equal(t, "media", cfg.MediaBucket)
	assert.Equal(t, "qr-codes", cfg.QRNamespace)
	assert.Equal(t, 60*time.Second, cfg.NavTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChallengeTimeout)
	assert.Equal(t, 15*time.Minute, cfg.SignedURLTTL)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CATALOG_TABLE")
	os.Setenv("SPARE_PARTS_TABLE", "spare-parts")
	os.Setenv("MEDIA_BUCKET", "media")
	defer os.Unsetenv("SPARE_PARTS_TABLE")
	defer os.Unsetenv("MEDIA_BUCKET")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_TABLE")
}

func TestLoad_TimeoutOverride(t *testing.T) {
	os.Setenv("CATALOG_TABLE", "catalog")
	os.Setenv("SPARE_PARTS_TABLE", "spare-parts")
	os.Setenv("MEDIA_BUCKET", "media")
	os.Setenv("CHALLENGE_TIMEOUT_SECONDS", "10")
	defer os.Unsetenv("CATALOG_TABLE")
	defer os.Unsetenv("SPARE_PARTS_TABLE")
	defer os.Unsetenv("MEDIA_BUCKET")
	defer os.Unsetenv("CHALLENGE_TIMEOUT_SECONDS")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.ChallengeTimeout)
}

func TestLoad_BadInteger(t *testing.T) {
	os.Setenv("CATALOG_TABLE", "catalog")
	os.Setenv("SPARE_PARTS_TABLE", "spare-parts")
	os.Setenv("MEDIA_BUCKET", "media")
	os.Setenv("NAV_TIMEOUT_SECONDS", "soon")
	defer os.Unsetenv("CATALOG_TABLE")
	defer os.Unsetenv("SPARE_PARTS_TABLE")
	defer os.Unsetenv("MEDIA_BUCKET")
	defer os.Unsetenv("NAV_TIMEOUT_SECONDS")

	_, err := Load()
	assert.Error(t, err)
}
