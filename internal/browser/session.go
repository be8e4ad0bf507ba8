// Package browser owns the headless Chrome session used to render listing
// pages before extraction.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/remote-jobs-harvester/internal/page"
)

// ErrPageLoadTimeout indicates neither readiness marker appeared in time.
var ErrPageLoadTimeout = errors.New("page load timeout")

// Config controls the browser session and page readiness checks.
type Config struct {
	PrimaryMarker     string
	FallbackMarker    string
	PrimaryWait       time.Duration
	FallbackWait      time.Duration
	NavigationTimeout time.Duration
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
}

// DefaultConfig returns the readiness markers and waits used for listing pages.
func DefaultConfig() Config {
	return Config{
		PrimaryMarker:     ".listing-header-container",
		FallbackMarker:    ".lis-container",
		PrimaryWait:       15 * time.Second,
		FallbackWait:      5 * time.Second,
		NavigationTimeout: 30 * time.Second,
		WindowWidth:       1920,
		WindowHeight:      1080,
	}
}

// Session is a single headless browser tab reused across page loads.
type Session struct {
	cfg             Config
	logger          *zap.Logger
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
}

// NewSession launches Chrome and verifies it responds. Failing to start is
// fatal for a harvest run.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	logger.Info("browser session started",
		zap.Int("width", cfg.WindowWidth),
		zap.Int("height", cfg.WindowHeight),
	)
	return &Session{
		cfg:             cfg,
		logger:          logger,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
	}, nil
}

// Close shuts the tab and the browser process down. It is safe to call more
// than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.browserCancel()
	s.allocatorCancel()
}

// Load navigates to url, waits for the page to become ready, and returns a
// snapshot of its DOM.
func (s *Session) Load(ctx context.Context, url string) (*page.Page, error) {
	taskCtx, cancelTask := context.WithCancel(s.browserCtx)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	navCtx, cancelNav := context.WithTimeout(taskCtx, s.cfg.NavigationTimeout)
	err := chromedp.Run(navCtx, s.viewport(), chromedp.Navigate(url))
	cancelNav()
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	if err := awaitReady(taskCtx, s.cfg, s.waitFor); err != nil {
		return nil, err
	}

	var markup string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("snapshot dom: %w", err)
	}
	return page.New(url, markup)
}

func (s *Session) viewport() chromedp.Action {
	return emulation.SetDeviceMetricsOverride(int64(s.cfg.WindowWidth), int64(s.cfg.WindowHeight), 1, false)
}

func (s *Session) waitFor(ctx context.Context, selector string) error {
	if err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

type waitFunc func(ctx context.Context, selector string) error

// awaitReady waits for the primary marker, then for the broader fallback
// marker with its own shorter budget.
func awaitReady(ctx context.Context, cfg Config, wait waitFunc) error {
	primaryCtx, cancelPrimary := context.WithTimeout(ctx, cfg.PrimaryWait)
	err := wait(primaryCtx, cfg.PrimaryMarker)
	cancelPrimary()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("page load canceled: %w", ctx.Err())
	}

	fallbackCtx, cancelFallback := context.WithTimeout(ctx, cfg.FallbackWait)
	defer cancelFallback()
	if err := wait(fallbackCtx, cfg.FallbackMarker); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("page load canceled: %w", ctx.Err())
		}
		return fmt.Errorf("%w: neither %s nor %s appeared", ErrPageLoadTimeout, cfg.PrimaryMarker, cfg.FallbackMarker)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
