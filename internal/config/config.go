// Package config loads the settings of an interception session.
//
// FILES:
//   - config.go:     Config struct, Load(), Validate()
//   - signatures.go: per-hook signature overrides
//   - logging.go:    zerolog construction from the log section
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration. Fields missing from the file keep the
// values of Default.
type Config struct {
	Log        LogConfig                  `yaml:"log"`
	Lifecycle  LifecycleConfig            `yaml:"lifecycle"`
	Profile    ProfileConfig              `yaml:"profile"`
	Menu       MenuConfig                 `yaml:"menu"`
	Hooks      HooksConfig                `yaml:"hooks"`
	Signatures map[string]SignatureConfig `yaml:"signatures"` // keyed by hook site, e.g. "overlay.present"
}

// LifecycleConfig bounds shutdown.
type LifecycleConfig struct {
	Quiescence time.Duration `yaml:"quiescence"` // max wait for running shims on unload
}

// ProfileConfig locates the saved module settings.
type ProfileConfig struct {
	Path string `yaml:"path"`
}

// MenuConfig holds menu input settings.
type MenuConfig struct {
	ToggleKeys []int `yaml:"toggle_keys"` // virtual-key codes
}

// HooksConfig holds host layout values that vary between builds.
type HooksConfig struct {
	FOVOffset int `yaml:"fov_offset"` // byte offset of fov in the view setup
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Console: false,
		},
		Lifecycle: LifecycleConfig{
			Quiescence: 4096 * time.Millisecond,
		},
		Profile: ProfileConfig{
			Path: "catnip.json",
		},
		Menu: MenuConfig{
			ToggleKeys: []int{0x2D, 0x7A}, // Insert, F11
		},
		Hooks: HooksConfig{
			FOVOffset: 0xB0,
		},
		Signatures: map[string]SignatureConfig{},
	}
}

var envRef = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default}.
func expandEnvWithDefaults(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		parts := envRef.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(present...), "load env")
}

// Load reads configuration from a YAML file. An empty path yields Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file '%s'", path)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	if cfg.Signatures == nil {
		cfg.Signatures = map[string]SignatureConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Lifecycle.Quiescence <= 0 {
		return errors.Errorf("invalid lifecycle.quiescence: %v (must be positive)", c.Lifecycle.Quiescence)
	}
	if c.Profile.Path == "" {
		return errors.New("profile.path is required")
	}
	if len(c.Menu.ToggleKeys) == 0 {
		return errors.New("menu.toggle_keys is required")
	}
	for _, k := range c.Menu.ToggleKeys {
		if k <= 0 || k > 0xFE {
			return errors.Errorf("invalid menu.toggle_keys entry: %#x (must be a virtual-key code)", k)
		}
	}
	if c.Hooks.FOVOffset < 0 {
		return errors.Errorf("invalid hooks.fov_offset: %d", c.Hooks.FOVOffset)
	}
	for name, s := range c.Signatures {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "signatures.%s", name)
		}
	}
	return nil
}
