package repositories

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallengeDetected(t *testing.T) {
	markers := defaultChallengeMarkers

	assert.True(t, ChallengeDetected("Just a moment...", markers))
	assert.True(t, ChallengeDetected("Security Verification Required", markers))
	assert.True(t, ChallengeDetected("ATTENTION REQUIRED | Cloudflare", markers))
	assert.False(t, ChallengeDetected("Commercial Cooktops | Product Range", markers))
	assert.False(t, ChallengeDetected("", markers))
}

func TestChallengeDetected_CustomMarkers(t *testing.T) {
	markers := []string{"verifying you are human"}
	assert.True(t, ChallengeDetected("Verifying you are human - example.com", markers))
	assert.False(t, ChallengeDetected("Just a moment...", markers))
}

func TestWriteDebugBundle(t *testing.T) {
	dir := t.TempDir()
	info := debugInfo{
		URL:    "https://example.com/products",
		Title:  "Just a moment...",
		Markup: "<html><body>challenge</body></html>",
	}

	err := writeDebugBundle(dir, info, []byte{0x89, 0x50, 0x4e, 0x47})
	assert.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, debugInfoFile))
	assert.NoError(t, err)
	var got debugInfo
	assert.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, info.URL, got.URL)
	assert.Equal(t, info.Title, got.Title)
	assert.Equal(t, info.Markup, got.Markup)

	shot, err := os.ReadFile(filepath.Join(dir, debugScreenshotFile))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, shot)
}

func TestWriteDebugBundle_NoScreenshot(t *testing.T) {
	dir := t.TempDir()
	err := writeDebugBundle(dir, debugInfo{URL: "https://example.com"}, nil)
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, debugInfoFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, debugScreenshotFile))
	assert.True(t, os.IsNotExist(err))
}

func TestNewBrowserSession_Defaults(t *testing.T) {
	s := NewBrowserSession(BrowserConfig{RemoteURL: "ws://localhost:9222"})
	defer s.Close()

	assert.Equal(t, defaultNavTimeout, s.cfg.NavTimeout)
	assert.Equal(t, defaultChallengeTimeout, s.cfg.ChallengeTimeout)
	assert.Equal(t, defaultChallengeInterval, s.cfg.ChallengePollInterval)
	assert.NotEmpty(t, s.cfg.UserAgent)
	assert.Equal(t, defaultChallengeMarkers, s.cfg.ChallengeMarkers)
}
