package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// Settings holds the runtime configuration of the daemon.
// Values are read from an optional YAML file, then overridden by the environment.
type Settings struct {
	// Cookie is forwarded to the fan-badge API. Falls back to the OS keyring when empty.
	Cookie string `yaml:"bilibili_cookie"`

	// DataDir contains the vtb list cache file.
	DataDir string `yaml:"data_dir"`

	// Port is the local HTTP port.
	Port string `yaml:"port"`

	// RenderURL is the endpoint of the external render service. Empty disables rendering.
	RenderURL string `yaml:"render_url"`

	// Language is the default language for user-facing messages.
	Language string `yaml:"language"`

	// LogDir overrides the directory of the rotated log file.
	LogDir string `yaml:"log_dir"`

	// Mirrors overrides the vtb list mirrors.
	Mirrors []string `yaml:"mirrors"`

	// RefreshHour is the local hour of the daily vtb list refresh.
	RefreshHour int `yaml:"refresh_hour"`
}

// DefaultSettings returns the settings used when no file or environment overrides exist.
func DefaultSettings() Settings {
	mirrors := make([]string, len(DefaultMirrors))
	copy(mirrors, DefaultMirrors)
	return Settings{
		DataDir:     DefaultDataDir,
		Port:        DefaultPort,
		Language:    DefaultLanguage,
		Mirrors:     mirrors,
		RefreshHour: DefaultRefreshHour,
	}
}

// CachePath returns the location of the vtb list cache file.
func (s Settings) CachePath() string {
	return filepath.Join(s.DataDir, VtbListFileName)
}

// LoadSettings reads the YAML file at path (if any) and applies environment overrides.
// A missing file is not an error.
func LoadSettings(fsys afero.Fs, path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug(MsgSettingsDefault,
				LogKeyComponent, CompConfig,
				LogKeyFile, path)
		case err != nil:
			return s, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("%s: %w", ErrSettingsParse, err)
			}
		}
	}

	s.applyEnv(os.LookupEnv)
	s.fillDefaults()
	return s, nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		EnvCookie:    &s.Cookie,
		EnvDataDir:   &s.DataDir,
		EnvPort:      &s.Port,
		EnvRenderURL: &s.RenderURL,
		EnvLanguage:  &s.Language,
		EnvLogDir:    &s.LogDir,
	}
	for key, dst := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
}

// fillDefaults restores defaults for fields a YAML file explicitly blanked.
func (s *Settings) fillDefaults() {
	def := DefaultSettings()
	if s.DataDir == "" {
		s.DataDir = def.DataDir
	}
	if s.Port == "" {
		s.Port = def.Port
	}
	if s.Language == "" {
		s.Language = def.Language
	}
	if len(s.Mirrors) == 0 {
		s.Mirrors = def.Mirrors
	}
	if s.RefreshHour < 0 || s.RefreshHour > 23 {
		s.RefreshHour = def.RefreshHour
	}
}

// ResolveCookie returns the configured cookie, falling back to the OS keyring.
// An empty string means medal lookups will run unauthenticated.
func (s Settings) ResolveCookie() string {
	if s.Cookie != "" {
		return s.Cookie
	}
	c, err := keyring.Get(KeyringService, KeyringCookieUser)
	if err != nil {
		slog.Debug(MsgKeyringFail,
			LogKeyComponent, CompConfig,
			LogKeyError, err)
		return ""
	}
	return c
}

// StoreCookie saves the cookie to the OS keyring.
func StoreCookie(cookie string) error {
	if err := keyring.Set(KeyringService, KeyringCookieUser, cookie); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringSave, err)
	}
	return nil
}
