package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

const (
	defaultNavTimeout        = 60 * time.Second
	defaultChallengeTimeout  = 30 * time.Second
	defaultChallengeInterval = 2 * time.Second

	debugScreenshotFile = "debug-screenshot.png"
	debugInfoFile       = "debug-info.json"
)

// defaultChallengeMarkers are title fragments of known anti-bot
// interstitials. The page is considered blocked while its title matches.
var defaultChallengeMarkers = []string{
	"just a moment",
	"security verification",
	"checking your browser",
	"attention required",
}

// BrowserConfig configures a browser session manager.
type BrowserConfig struct {
	// UserAgent and AcceptLanguage impersonate a realistic client to reduce
	// bot-detection false positives.
	UserAgent      string
	AcceptLanguage string

	// WaitSelector is a post-navigation content selector to wait for.
	WaitSelector string

	// ChallengeMarkers override the default interstitial title fragments.
	ChallengeMarkers []string

	NavTimeout            time.Duration
	ChallengeTimeout      time.Duration
	ChallengePollInterval time.Duration

	// DebugDir is where failure bundles are written.
	DebugDir string

	// RemoteURL points at a remote Chrome instance; empty launches a local one.
	RemoteURL string

	// NoSandbox runs Chrome without sandbox (required for Docker/root).
	NoSandbox bool

	Logger *zap.Logger
}

// BrowserSession owns one headless browser process. Each FetchPage call
// gets an isolated browser context, torn down on every exit path. Cookies
// and session state from the anti-bot challenge are per-context, so a
// session must not be shared across concurrent navigations.
type BrowserSession struct {
	cfg         BrowserConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

func NewBrowserSession(cfg BrowserConfig) *BrowserSession {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "en-AU,en;q=0.9"
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = defaultNavTimeout
	}
	if cfg.ChallengeTimeout == 0 {
		cfg.ChallengeTimeout = defaultChallengeTimeout
	}
	if cfg.ChallengePollInterval == 0 {
		cfg.ChallengePollInterval = defaultChallengeInterval
	}
	if len(cfg.ChallengeMarkers) == 0 {
		cfg.ChallengeMarkers = defaultChallengeMarkers
	}
	if cfg.DebugDir == "" {
		cfg.DebugDir = "."
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &BrowserSession{cfg: cfg, logger: cfg.Logger}
	s.initAllocator()
	return s
}

func (s *BrowserSession) initAllocator() {
	if s.cfg.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), s.cfg.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(s.cfg.UserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("lang", s.cfg.AcceptLanguage),
	)
	if s.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// FetchPage navigates to url in a fresh browser context, waits out any
// anti-bot interstitial, and returns the rendered markup. On any failure a
// debug bundle is written before the error propagates.
func (s *BrowserSession) FetchPage(ctx context.Context, url string) (*domain.RenderedPage, error) {
	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Sugar().Debugf(format, args...)
		}),
	)
	defer browserCancel()

	// Honor caller cancellation: the browser context has no deadline of its
	// own, so a cancelled caller must tear it down.
	go func() {
		select {
		case <-ctx.Done():
			browserCancel()
		case <-browserCtx.Done():
		}
	}()

	navCtx, navCancel := context.WithTimeout(browserCtx, s.cfg.NavTimeout)
	defer navCancel()

	start := time.Now()
	err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": s.cfg.AcceptLanguage,
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		s.captureDebugBundle(browserCtx, url)
		return nil, fmt.Errorf("navigate %s: %v: %w", url, err, domain.ErrNavigation)
	}

	if err := s.waitOutChallenge(browserCtx); err != nil {
		s.captureDebugBundle(browserCtx, url)
		return nil, err
	}

	if s.cfg.WaitSelector != "" {
		if err := chromedp.Run(navCtx, chromedp.WaitVisible(s.cfg.WaitSelector, chromedp.ByQuery)); err != nil {
			s.captureDebugBundle(browserCtx, url)
			return nil, fmt.Errorf("wait for %q on %s: %v: %w", s.cfg.WaitSelector, url, err, domain.ErrNavigation)
		}
	}

	var current, title, markup string
	err = chromedp.Run(navCtx,
		chromedp.Location(&current),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		s.captureDebugBundle(browserCtx, url)
		return nil, fmt.Errorf("read rendered page %s: %v: %w", url, err, domain.ErrNavigation)
	}

	s.logger.Info("page rendered",
		zap.String("url", current),
		zap.String("title", title),
		zap.Duration("duration", time.Since(start)))

	return &domain.RenderedPage{URL: current, Title: title, HTML: markup}, nil
}

// waitOutChallenge polls the page title at a fixed interval until the
// challenge predicate clears or the budget elapses.
func (s *BrowserSession) waitOutChallenge(browserCtx context.Context) error {
	deadline := time.Now().Add(s.cfg.ChallengeTimeout)
	for {
		var title string
		pollCtx, pollCancel := context.WithTimeout(browserCtx, s.cfg.ChallengePollInterval*2)
		err := chromedp.Run(pollCtx, chromedp.Title(&title))
		pollCancel()
		if err != nil {
			return fmt.Errorf("read page title during challenge wait: %v: %w", err, domain.ErrNavigation)
		}

		if !ChallengeDetected(title, s.cfg.ChallengeMarkers) {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("title still %q after %s: %w", title, s.cfg.ChallengeTimeout, domain.ErrChallengeTimeout)
		}

		s.logger.Debug("challenge interstitial still up", zap.String("title", title))
		select {
		case <-time.After(s.cfg.ChallengePollInterval):
		case <-browserCtx.Done():
			return fmt.Errorf("challenge wait cancelled: %w", domain.ErrNavigation)
		}
	}
}

// ChallengeDetected reports whether a page title looks like an anti-bot
// verification interstitial.
func ChallengeDetected(title string, markers []string) bool {
	lower := strings.ToLower(title)
	for _, marker := range markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

type debugInfo struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Markup    string `json:"markup"`
	Timestamp string `json:"timestamp"`
}

// captureDebugBundle snapshots the failed page so the run is diagnosable
// without hitting the live, possibly rate-limiting, target again.
// Best-effort: capture failures are logged, never propagated.
func (s *BrowserSession) captureDebugBundle(browserCtx context.Context, requestedURL string) {
	dbgCtx, cancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancel()

	info := debugInfo{
		URL:       requestedURL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	var screenshot []byte
	if err := chromedp.Run(dbgCtx,
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
		chromedp.OuterHTML("html", &info.Markup, chromedp.ByQuery),
		chromedp.FullScreenshot(&screenshot, 80),
	); err != nil {
		s.logger.Warn("debug capture incomplete", zap.Error(err))
	}

	if err := writeDebugBundle(s.cfg.DebugDir, info, screenshot); err != nil {
		s.logger.Warn("failed to write debug bundle", zap.Error(err))
		return
	}
	s.logger.Info("debug bundle written",
		zap.String("dir", s.cfg.DebugDir),
		zap.String("url", info.URL),
		zap.String("title", info.Title))
}

// writeDebugBundle writes debug-info.json and debug-screenshot.png to dir.
// The file names are a contract postmortem tooling relies on.
func writeDebugBundle(dir string, info debugInfo, screenshot []byte) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal debug info: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, debugInfoFile), data, 0644); err != nil {
		return fmt.Errorf("write debug info: %v", err)
	}
	if len(screenshot) > 0 {
		if err := os.WriteFile(filepath.Join(dir, debugScreenshotFile), screenshot, 0644); err != nil {
			return fmt.Errorf("write debug screenshot: %v", err)
		}
	}
	return nil
}

// Close releases the browser process.
func (s *BrowserSession) Close() error {
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}
