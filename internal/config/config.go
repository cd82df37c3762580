// Package config resolves xgb settings from flags, XGB_* environment
// variables and an optional $XGB_HOME/xgb.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyHome         = "home"
	KeyDataDir      = "data_dir"
	KeyProjectDir   = "project_dir"
	KeyTemplatesDir = "templates_dir"
	KeyEditor       = "editor"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// FileName is the settings file looked up in the home directory.
const FileName = "xgb.yaml"

// Settings are the resolved settings. Directories are absolute.
type Settings struct {
	Home         string `mapstructure:"home"`
	DataDir      string `mapstructure:"data_dir"`
	ProjectDir   string `mapstructure:"project_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	Editor       string `mapstructure:"editor"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

// New returns a viper instance with defaults and environment bindings.
// Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("XGB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyEditor, "XGB_EDITOR", "EDITOR")

	v.SetDefault(KeyHome, ".")
	v.SetDefault(KeyDataDir, "DATA-STORE")
	v.SetDefault(KeyProjectDir, "PROJECT-STORE")
	v.SetDefault(KeyTemplatesDir, "")
	v.SetDefault(KeyEditor, "vi")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	return v
}

// Load reads the settings file from the home directory, if there is one,
// and resolves relative directories against home.
func Load(v *viper.Viper) (*Settings, error) {
	home, err := filepath.Abs(v.GetString(KeyHome))
	if err != nil {
		return nil, fmt.Errorf("config: resolve home: %w", err)
	}
	v.SetConfigFile(filepath.Join(home, FileName))
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", FileName, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	s.Home = home
	s.DataDir = resolve(home, s.DataDir)
	s.ProjectDir = resolve(home, s.ProjectDir)
	if s.TemplatesDir != "" {
		s.TemplatesDir = resolve(home, s.TemplatesDir)
	}
	return &s, nil
}

func resolve(home, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(home, dir)
}
