package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. They are fatal and must be reported
// before any store or browser operation starts.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all casetasker configuration.
type Config struct {
	// Store is the relational source of case events.
	Store StoreConfig `yaml:"store"`

	// App describes the LawSystem target application.
	App AppConfig `yaml:"app"`

	// Browser configures the go-rod UI driver.
	Browser BrowserConfig `yaml:"browser"`

	// Lookup points at the office-assignment workbook.
	Lookup LookupConfig `yaml:"lookup"`

	// Form holds the keystroke choreography of the task form.
	Form FormConfig `yaml:"form"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the record source.
type StoreConfig struct {
	Driver   string `yaml:"driver"` // sqlserver, postgres, sqlite
	DSN      string `yaml:"dsn"`
	Server   string `yaml:"server"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Cutoff   string `yaml:"cutoff"` // earliest DATA_DIV considered, "2006-01-02 15:04:05"
	Timeout  string `yaml:"timeout"`
}

// AppConfig configures the LawSystem endpoints and credentials.
type AppConfig struct {
	LoginURL          string `yaml:"login_url"`
	TaskURL           string `yaml:"task_url"`
	AuthenticatedHost string `yaml:"authenticated_host"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	LoginSettle       string `yaml:"login_settle"`
}

// BrowserConfig configures the Chromium instance.
type BrowserConfig struct {
	DebuggerURL       string `yaml:"debugger_url"`
	Bin               string `yaml:"bin"`
	Headless          bool   `yaml:"headless"`
	ViewportWidth     int    `yaml:"viewport_width"`
	ViewportHeight    int    `yaml:"viewport_height"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	ElementTimeout    string `yaml:"element_timeout"`
	IdleWindow        string `yaml:"idle_window"`
}

// LookupConfig locates the responsible-party workbook.
type LookupConfig struct {
	Path string `yaml:"path"`
}

// FormConfig keeps the undocumented LawSystem widget behavior as data.
// The counts encode the suggestion rank each autocomplete needs; changing
// them changes which option gets committed.
type FormConfig struct {
	OfficeDownPresses   int    `yaml:"office_down_presses"`
	TaskTypeDownPresses int    `yaml:"task_type_down_presses"`
	PartyDownPresses    int    `yaml:"party_down_presses"`
	PartyTabPresses     int    `yaml:"party_tab_presses"`
	StepDelay           string `yaml:"step_delay"`
	TabDelay            string `yaml:"tab_delay"`
	Description         string `yaml:"description"`
	TaskType            string `yaml:"task_type"`
	EndTime             string `yaml:"end_time"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:  "sqlserver",
			Cutoff:  "2022-01-01 08:00:00",
			Timeout: "30s",
		},

		App: AppConfig{
			LoginURL:          "https://example.com/login",
			TaskURL:           "https://example.com/tarefas/createFromAndamento",
			AuthenticatedHost: "firm.lawsystem.com.br",
			LoginSettle:       "2s",
		},

		Browser: BrowserConfig{
			Headless:          false,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: "15s",
			ElementTimeout:    "15s",
			IdleWindow:        "500ms",
		},

		Lookup: LookupConfig{
			Path: filepath.Join("resource", "DE_PARA_ESCRITORIO_RESPONSAVEL.xlsx"),
		},

		Form: FormConfig{
			OfficeDownPresses:   4,
			TaskTypeDownPresses: 1,
			PartyDownPresses:    1,
			PartyTabPresses:     7,
			StepDelay:           "1s",
			TabDelay:            "500ms",
			Description:         "Conferir expediente no PJe",
			TaskType:            "Prazo Agendado",
			EndTime:             "23:00:00",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. The SQL_* and
// LAWSYSTEM_* names are the ones operators already export on the office
// workstations.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SQL_SERVER"); v != "" {
		c.Store.Server = v
	}
	if v := os.Getenv("SQL_USER"); v != "" {
		c.Store.User = v
	}
	if v := os.Getenv("SQL_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("SQL_DATABASE"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("CASETASKER_DB_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("CASETASKER_DB_DSN"); v != "" {
		c.Store.DSN = v
	}

	if v := os.Getenv("LAWSYSTEM_USERNAME"); v != "" {
		c.App.Username = v
	}
	if v := os.Getenv("LAWSYSTEM_PASSWORD"); v != "" {
		c.App.Password = v
	}

	if v := os.Getenv("CASETASKER_LOOKUP"); v != "" {
		c.Lookup.Path = v
	}
	if v := os.Getenv("CASETASKER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
}

// ValidDrivers lists the supported store drivers.
var ValidDrivers = []string{"sqlserver", "postgres", "sqlite"}

// Validate checks everything required before the first store or UI call.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.App.Username == "" || c.App.Password == "" {
		return fmt.Errorf("%w: LawSystem credentials not configured (set LAWSYSTEM_USERNAME and LAWSYSTEM_PASSWORD)", ErrInvalid)
	}
	if c.App.LoginURL == "" || c.App.TaskURL == "" {
		return fmt.Errorf("%w: app.login_url and app.task_url are required", ErrInvalid)
	}
	if _, err := c.GetCutoff(); err != nil {
		return fmt.Errorf("%w: store.cutoff: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateStore checks only the store section. Commands that never open a
// browser use it instead of Validate.
func (c *Config) ValidateStore() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("%w: unknown store driver %q (valid: %v)", ErrInvalid, c.Store.Driver, ValidDrivers)
	}

	if c.Store.DSN != "" {
		return nil
	}
	if c.Store.Driver != "sqlserver" {
		return fmt.Errorf("%w: store.dsn is required for driver %s", ErrInvalid, c.Store.Driver)
	}
	if c.Store.Server == "" || c.Store.User == "" || c.Store.Password == "" || c.Store.Database == "" {
		return fmt.Errorf("%w: database credentials not configured (set SQL_SERVER, SQL_USER, SQL_PASSWORD and SQL_DATABASE)", ErrInvalid)
	}
	return nil
}

// GetCutoff returns the divergence-date cutoff.
func (c *Config) GetCutoff() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", c.Store.Cutoff, time.Local)
}

// GetStoreTimeout returns the per-operation store timeout.
func (c *Config) GetStoreTimeout() time.Duration {
	return parseDuration(c.Store.Timeout, 30*time.Second)
}

// GetLoginSettle returns the fixed wait after submitting the login form.
func (c *Config) GetLoginSettle() time.Duration {
	return parseDuration(c.App.LoginSettle, 2*time.Second)
}

// GetNavigationTimeout returns the bound on navigation and load waits.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Browser.NavigationTimeout, 15*time.Second)
}

// GetElementTimeout returns the bound on element lookups.
func (c *Config) GetElementTimeout() time.Duration {
	return parseDuration(c.Browser.ElementTimeout, 15*time.Second)
}

// GetIdleWindow returns how long the network must stay quiet to count as idle.
func (c *Config) GetIdleWindow() time.Duration {
	return parseDuration(c.Browser.IdleWindow, 500*time.Millisecond)
}

// GetStepDelay returns the pause between autocomplete keystrokes.
func (c *Config) GetStepDelay() time.Duration {
	return parseDuration(c.Form.StepDelay, time.Second)
}

// GetTabDelay returns the pause between Tab presses.
func (c *Config) GetTabDelay() time.Duration {
	return parseDuration(c.Form.TabDelay, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
