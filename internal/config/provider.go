package config

import (
	"path/filepath"
	"time"
)

// ConfigProvider defines the interface for configuration access
type ConfigProvider interface {
	GetWorkdir() string
	GetDefaultProfile() string
	GetTemplatesDir() string
	GetLogPath() string
	GetHistoryPath() string
	GetProfilesPath() string
	GetBlacklistPath() string
	GetDefaultSubject() string
	GetFromName() string
	GetSMTPTimeout() time.Duration
	UseImplicitTLS() bool
	GetBlacklistMatch() string
}

var _ ConfigProvider = (*Config)(nil)

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.workdir, p)
}

func (c *Config) SettingsPath() string {
	return filepath.Join(c.workdir, SettingsFileName)
}

func (c *Config) GetWorkdir() string {
	return c.workdir
}

func (c *Config) GetDefaultProfile() string {
	return c.DefaultProfile
}

func (c *Config) GetTemplatesDir() string {
	return c.resolve(c.TemplatesDir)
}

func (c *Config) GetLogPath() string {
	return c.resolve(c.LogPath)
}

// GetHistoryPath returns "" when history is disabled.
func (c *Config) GetHistoryPath() string {
	return c.resolve(c.HistoryPath)
}

func (c *Config) GetProfilesPath() string {
	return c.resolve(c.ProfilesPath)
}

func (c *Config) GetBlacklistPath() string {
	return c.resolve(c.BlacklistPath)
}

func (c *Config) GetDefaultSubject() string {
	return c.DefaultSubject
}

func (c *Config) GetFromName() string {
	return c.FromName
}

func (c *Config) GetSMTPTimeout() time.Duration {
	return c.SMTP.Timeout
}

func (c *Config) UseImplicitTLS() bool {
	return c.SMTP.ImplicitTLS
}

func (c *Config) GetBlacklistMatch() string {
	return c.Blacklist.Match
}
