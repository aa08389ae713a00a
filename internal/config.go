package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docsauthor/internal/template"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// HomeDirName is the authoring home folder below the user's home directory.
const HomeDirName = "Docs Authoring"

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Authoring AuthoringConfig   `yaml:"authoring"`
	Template  TemplateConfig    `yaml:"template"`
	History   HistoryConfig     `yaml:"history"`
	Auth      AuthConfig        `yaml:"auth"`
	Redirect  RedirectConfig    `yaml:"redirect"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Authoring.Validate(); err != nil {
		return err
	}
	if err := c.Template.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Redirect.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig names the repository the commands act on. An empty Root
// means "no workspace open" and every redirect command refuses to run.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// AuthoringConfig locates the authoring home directory and its subfolders.
type AuthoringConfig struct {
	Home         string `yaml:"home"`
	RedirectsDir string `yaml:"redirects_dir"`
	TemplatesDir string `yaml:"templates_dir"`
}

// Validate validates the authoring configuration.
func (c *AuthoringConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Home, validation.Required),
		validation.Field(&c.RedirectsDir, validation.Required),
		validation.Field(&c.TemplatesDir, validation.Required),
	)
}

// RedirectsPath returns the archive root for redirected documents.
func (c *AuthoringConfig) RedirectsPath() string {
	return c.under(c.RedirectsDir)
}

// TemplatesPath returns the folder templates are cleaned from with --templates.
func (c *AuthoringConfig) TemplatesPath() string {
	return c.under(c.TemplatesDir)
}

func (c *AuthoringConfig) under(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Home, dir)
}

// TemplateConfig holds the template repository download settings.
type TemplateConfig struct {
	BaseURL string        `yaml:"base_url"`
	Repo    string        `yaml:"repo"`
	Branch  string        `yaml:"branch"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the template configuration.
func (c *TemplateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// HistoryConfig holds the run history database configuration.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedirectConfig tunes the redirect generator and watcher.
type RedirectConfig struct {
	Workers       int           `yaml:"workers"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// Validate validates the redirect configuration.
func (c *RedirectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
		validation.Field(&c.WatchDebounce, validation.Min(10*time.Millisecond)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	home := filepath.Join(xdg.Home, HomeDirName)
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Authoring: AuthoringConfig{
			Home:         home,
			RedirectsDir: "Redirects",
			TemplatesDir: template.TemplatesDir,
		},
		Template: TemplateConfig{
			BaseURL: template.DefaultBaseURL,
			Repo:    template.DefaultRepo,
			Branch:  template.DefaultBranch,
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Path: filepath.Join(xdg.DataHome, "docsauthor", "history.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Redirect: RedirectConfig{
			Workers:       4,
			WatchDebounce: 500 * time.Millisecond,
		},
	}
}
