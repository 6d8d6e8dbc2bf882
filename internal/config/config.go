package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ryan-gang/mailqueue/internal/fileutil"
	"gopkg.in/yaml.v3"
)

const (
	XdgConfigHome    = "XDG_CONFIG_HOME"
	WorkdirEnv       = "MAILQUEUE_WORKDIR"
	ConfigFolderName = "mailqueue"
	SettingsFileName = "settings.yaml"

	MatchExact     = "exact"
	MatchSubstring = "substring"

	DefaultTimeout = 30 * time.Second
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the settings.yaml document. Relative paths are resolved against
// the workdir by the getters in provider.go.
type Config struct {
	DefaultProfile string          `yaml:"default_profile"`
	TemplatesDir   string          `yaml:"templates_dir"`
	LogPath        string          `yaml:"log_path"`
	HistoryPath    string          `yaml:"history_path"`
	ProfilesPath   string          `yaml:"profiles_path"`
	BlacklistPath  string          `yaml:"blacklist_path"`
	DefaultSubject string          `yaml:"default_subject"`
	FromName       string          `yaml:"from_name"`
	SMTP           SMTPConfig      `yaml:"smtp"`
	Blacklist      BlacklistConfig `yaml:"blacklist"`

	workdir string
}

type SMTPConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	ImplicitTLS bool          `yaml:"implicit_tls"`
}

type BlacklistConfig struct {
	Match string `yaml:"match"`
}

// DefaultWorkdir returns $MAILQUEUE_WORKDIR, else $XDG_CONFIG_HOME/mailqueue,
// else ~/.config/mailqueue.
func DefaultWorkdir() (string, error) {
	if dir := os.Getenv(WorkdirEnv); dir != "" {
		return dir, nil
	}
	if xdg := os.Getenv(XdgConfigHome); xdg != "" {
		return filepath.Join(xdg, ConfigFolderName), nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("couldn't get current user: %w", err)
	}
	return filepath.Join(u.HomeDir, ".config", ConfigFolderName), nil
}

func NewConfig() *Config {
	return &Config{
		TemplatesDir:   "templates",
		LogPath:        filepath.Join("logs", "email_log.log"),
		HistoryPath:    "history.db",
		ProfilesPath:   "profiles.json",
		BlacklistPath:  "blacklist.json",
		DefaultSubject: "(no subject)",
		SMTP: SMTPConfig{
			Timeout:     DefaultTimeout,
			ImplicitTLS: true,
		},
		Blacklist: BlacklistConfig{Match: MatchExact},
	}
}

// Load builds the configuration for workdir: defaults, then settings.yaml,
// then .env files, then MAILQUEUE_* environment variables. The workdir and
// the directories the stores write into are created if missing.
func Load(workdir string) (*Config, error) {
	if err := os.MkdirAll(workdir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workdir: %w", err)
	}

	c := NewConfig()
	c.workdir = workdir

	data, err := os.ReadFile(c.SettingsPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse settings: %w", err)
		}
	}

	loadDotEnv(filepath.Join(workdir, ".env"), ".env")
	c.applyEnvVars()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.ensureDirs(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the settings file atomically.
func Save(c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return fileutil.WriteFileAtomic(c.SettingsPath(), data, 0644)
}

func (c *Config) Validate() error {
	switch c.Blacklist.Match {
	case MatchExact, MatchSubstring:
	default:
		return fmt.Errorf("%w: blacklist.match must be %q or %q, got %q", ErrInvalidConfig, MatchExact, MatchSubstring, c.Blacklist.Match)
	}
	if c.SMTP.Timeout <= 0 {
		return fmt.Errorf("%w: smtp.timeout must be positive", ErrInvalidConfig)
	}
	if c.TemplatesDir == "" || c.LogPath == "" || c.ProfilesPath == "" || c.BlacklistPath == "" {
		return fmt.Errorf("%w: store paths must not be empty", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) ensureDirs() error {
	dirs := []string{c.GetTemplatesDir(), filepath.Dir(c.GetLogPath())}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// loadDotEnv loads the given .env files that exist. Variables already set in
// the environment win.
func loadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILQUEUE_DEFAULT_PROFILE"); v != "" {
		c.DefaultProfile = v
	}
	if v := os.Getenv("MAILQUEUE_TEMPLATES_DIR"); v != "" {
		c.TemplatesDir = v
	}
	if v := os.Getenv("MAILQUEUE_LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("MAILQUEUE_HISTORY_PATH"); v != "" {
		c.HistoryPath = v
	}
	if v := os.Getenv("MAILQUEUE_DEFAULT_SUBJECT"); v != "" {
		c.DefaultSubject = v
	}
	if v := os.Getenv("MAILQUEUE_FROM_NAME"); v != "" {
		c.FromName = v
	}
	if v := os.Getenv("MAILQUEUE_SMTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SMTP.Timeout = d
		}
	}
	if v := os.Getenv("MAILQUEUE_SMTP_IMPLICIT_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SMTP.ImplicitTLS = b
		}
	}
	if v := os.Getenv("MAILQUEUE_BLACKLIST_MATCH"); v != "" {
		c.Blacklist.Match = strings.ToLower(v)
	}
}
