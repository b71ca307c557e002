// Package session owns LawSystem authentication: it logs the browser in and
// is asked to do it again whenever a record fails unexpectedly.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"casetasker/internal/browser"
	"casetasker/internal/config"

	"go.uber.org/zap"
)

// Login page selectors.
const (
	SelectorUsername   = "input#Username"
	SelectorPassword   = "input#Password"
	SelectorSubmit     = "button[type='submit']"
	SelectorLoginError = "#form0 > div > div"
)

var (
	ErrMissingCredentials  = errors.New("LawSystem credentials not configured")
	ErrLoginFieldsNotFound = errors.New("login fields not found")
	ErrLoginRejected       = errors.New("login rejected")
	ErrHomeNotLoaded       = errors.New("home page not loaded after login")
)

// Controller authenticates one browser page.
type Controller struct {
	driver   browser.Driver
	loginURL string
	homeHost string
	username string
	password string
	settle   time.Duration
	logger   *zap.Logger
}

// New returns a Controller driving d with the app section of cfg.
func New(cfg *config.Config, d browser.Driver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		driver:   d,
		loginURL: cfg.App.LoginURL,
		homeHost: cfg.App.AuthenticatedHost,
		username: cfg.App.Username,
		password: cfg.App.Password,
		settle:   cfg.GetLoginSettle(),
		logger:   logger,
	}
}

// Authenticate logs in and reports whether the home page was reached.
// Failures are logged, never returned.
func (c *Controller) Authenticate(ctx context.Context) bool {
	if err := c.Login(ctx); err != nil {
		c.logger.Error("authentication failed", zap.Error(err))
		return false
	}
	c.logger.Info("authenticated", zap.String("host", c.homeHost))
	return true
}

// Login runs the login form once.
func (c *Controller) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return ErrMissingCredentials
	}

	if err := c.driver.Navigate(ctx, c.loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := c.driver.WaitNetworkIdle(ctx); err != nil {
		return fmt.Errorf("wait for login page: %w", err)
	}

	for _, sel := range []string{SelectorUsername, SelectorPassword} {
		ok, err := c.driver.Visible(ctx, sel)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrLoginFieldsNotFound, sel, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLoginFieldsNotFound, sel)
		}
	}

	if err := c.driver.Fill(ctx, SelectorUsername, c.username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := c.driver.Fill(ctx, SelectorPassword, c.password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := c.driver.Click(ctx, SelectorSubmit); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if err := browser.Pause(ctx, c.settle); err != nil {
		return err
	}

	if shown, err := c.driver.Visible(ctx, SelectorLoginError); err == nil && shown {
		msg, err := c.driver.Text(ctx, SelectorLoginError)
		if err != nil {
			msg = "unreadable error message"
		}
		return fmt.Errorf("%w: %s", ErrLoginRejected, strings.TrimSpace(msg))
	}

	current, err := c.driver.URL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHomeNotLoaded, err)
	}
	if !c.atHome(current) {
		return fmt.Errorf("%w: at %s", ErrHomeNotLoaded, current)
	}
	return nil
}

func (c *Controller) atHome(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Host, c.homeHost)
}
