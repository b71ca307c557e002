package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"casetasker/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string
	Launch              []string // binary followed by extra Chrome flags
	Headless            bool
	ViewportWidth       int
	ViewportHeight      int
	NavigationTimeoutMs int
	ElementTimeoutMs    int
	IdleWindowMs        int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 15000,
		ElementTimeoutMs:    15000,
		IdleWindowMs:        500,
	}
}

// ConfigFrom maps the application config onto the driver config.
func ConfigFrom(cfg *config.Config) Config {
	c := Config{
		DebuggerURL:         cfg.Browser.DebuggerURL,
		Headless:            cfg.Browser.Headless,
		ViewportWidth:       cfg.Browser.ViewportWidth,
		ViewportHeight:      cfg.Browser.ViewportHeight,
		NavigationTimeoutMs: int(cfg.GetNavigationTimeout() / time.Millisecond),
		ElementTimeoutMs:    int(cfg.GetElementTimeout() / time.Millisecond),
		IdleWindowMs:        int(cfg.GetIdleWindow() / time.Millisecond),
	}
	if cfg.Browser.Bin != "" {
		c.Launch = strings.Fields(cfg.Browser.Bin)
	}
	return c
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// ElementTimeout returns how long element lookups may wait.
func (c Config) ElementTimeout() time.Duration {
	if c.ElementTimeoutMs == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.ElementTimeoutMs) * time.Millisecond
}

// IdleWindow returns how long the network must be quiet to count as idle.
func (c Config) IdleWindow() time.Duration {
	if c.IdleWindowMs == 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.IdleWindowMs) * time.Millisecond
}

var rodKeys = map[Key]input.Key{
	KeyEnter:     input.Enter,
	KeyArrowDown: input.ArrowDown,
	KeyTab:       input.Tab,
}

// Page is the go-rod Driver: one browser, one page.
type Page struct {
	cfg       Config
	logger    *zap.Logger
	launch    *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	closeOnce sync.Once
	closeErr  error
}

// Launch connects to DebuggerURL or starts a new Chrome, and opens a page.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Page{cfg: cfg, logger: logger}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if len(cfg.Launch) > 0 {
			l = l.Bin(cfg.Launch[0])
			for _, rawFlag := range cfg.Launch[1:] {
				flagStr := strings.TrimLeft(rawFlag, "-")
				name, val, hasVal := strings.Cut(flagStr, "=")
				if hasVal {
					l = l.Set(flags.Flag(name), val)
				} else {
					l = l.Set(flags.Flag(name))
				}
			}
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		p.launch = l
		controlURL = url
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		p.killLauncher()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	p.browser = b

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	p.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.GetViewportWidth(),
		Height:            cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		logger.Warn("failed to set viewport", zap.Error(err))
	}

	logger.Debug("browser page opened",
		zap.String("control_url", controlURL),
		zap.Bool("headless", cfg.Headless))
	return p, nil
}

// Launcher opens rod pages on demand.
type Launcher struct {
	Config Config
	Logger *zap.Logger
}

// Open launches a browser and returns its page as a Driver.
func (l Launcher) Open(ctx context.Context) (Driver, error) {
	return Launch(ctx, l.Config, l.Logger)
}

// timed returns the page bound to ctx and d. Call the returned cancel when
// every chained operation is done.
func (p *Page) timed(ctx context.Context, d time.Duration) (*rod.Page, func()) {
	pg := p.page.Context(ctx).Timeout(d)
	return pg, func() { pg.CancelTimeout() }
}

func (p *Page) withElement(ctx context.Context, selector string, fn func(el *rod.Element) error) error {
	pg, cancel := p.timed(ctx, p.cfg.ElementTimeout())
	defer cancel()

	el, err := pg.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return fn(el)
}

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	pg, cancel := p.timed(ctx, p.cfg.NavigationTimeout())
	defer cancel()

	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("wait load of %s: %w", url, err)
	}
	return nil
}

// WaitNetworkIdle waits until the page has no request in flight for the
// idle window, bounded by the navigation timeout.
func (p *Page) WaitNetworkIdle(ctx context.Context) error {
	pg, cancel := p.timed(ctx, p.cfg.NavigationTimeout())
	defer cancel()

	wait := pg.WaitRequestIdle(p.cfg.IdleWindow(), nil, nil, nil)
	wait()
	if err := pg.GetContext().Err(); err != nil {
		return fmt.Errorf("wait network idle: %w", err)
	}
	return nil
}

// Visible reports whether selector matches a visible element without waiting.
func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	pg, cancel := p.timed(ctx, p.cfg.ElementTimeout())
	defer cancel()

	has, el, err := pg.Has(selector)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", selector, err)
	}
	if !has {
		return false, nil
	}
	return el.Visible()
}

// WaitVisible waits until selector matches a visible element.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	return p.withElement(ctx, selector, func(el *rod.Element) error {
		return el.WaitVisible()
	})
}

// Fill replaces the input value.
func (p *Page) Fill(ctx context.Context, selector, value string) error {
	return p.withElement(ctx, selector, func(el *rod.Element) error {
		if err := el.SelectAllText(); err != nil {
			return fmt.Errorf("select %s: %w", selector, err)
		}
		return el.Input(value)
	})
}

// Press sends one key to the focused element.
func (p *Page) Press(ctx context.Context, key Key) error {
	k, ok := rodKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Keyboard.Press(k)
}

// Type inserts text at the focused element. It uses Input.insertText
// rather than Keyboard.Type: rod's Keyboard.Type takes input.Key values of
// a US layout and has no key for "á" in "Advogado Responsável". No per-key
// keydown or keyup events are sent, only the input event.
func (p *Page) Type(ctx context.Context, text string) error {
	pg, cancel := p.timed(ctx, p.cfg.ElementTimeout())
	defer cancel()
	return pg.InsertText(text)
}

// Click clicks an element.
func (p *Page) Click(ctx context.Context, selector string) error {
	return p.withElement(ctx, selector, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// Text returns the element's text content.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := p.withElement(ctx, selector, func(el *rod.Element) error {
		var err error
		text, err = el.Text()
		return err
	})
	return text, err
}

// URL returns the current page URL.
func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// Close closes the page and the browser once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		if p.page != nil {
			_ = p.page.Close()
		}
		if p.browser != nil {
			p.closeErr = p.browser.Close()
		}
		p.killLauncher()
		if p.logger != nil {
			p.logger.Debug("browser closed")
		}
	})
	return p.closeErr
}

func (p *Page) killLauncher() {
	if p.launch != nil {
		p.launch.Kill()
		p.launch.Cleanup()
		p.launch = nil
	}
}
