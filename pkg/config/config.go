// Package config is the hostkit runtime configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"go.minekube.com/hostkit/pkg/platform"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. HOSTKIT_PLATFORM=gate.
const EnvPrefix = "HOSTKIT"

// DefaultConfig is the default configuration.
var DefaultConfig = Config{
	Platform:        platform.Standalone.String(),
	Debug:           false,
	AutoReload:      false,
	ShutdownTimeout: 10 * time.Second,
}

// Config is the root configuration of the hostkit runtime.
type Config struct {
	// Platform is the host platform the runtime runs on.
	// It selects the platform specific service implementations.
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
	// Debug enables development logging.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
	// AutoReload watches the config file and applies changes at runtime.
	AutoReload bool `json:"autoReload,omitempty" yaml:"autoReload,omitempty"`
	// ShutdownTimeout bounds the DISABLE stage.
	ShutdownTimeout time.Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
	// See Services struct.
	Services Services `json:"services,omitempty" yaml:"services,omitempty"`
}

// Services configures the service registry.
type Services struct {
	// Disabled lists service types that are not constructed,
	// e.g. "event.Dispatcher".
	Disabled []string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// PlatformOrDefault returns the parsed platform, Standalone if empty.
func (c *Config) PlatformOrDefault() (platform.Platform, error) {
	if c.Platform == "" {
		return platform.Standalone, nil
	}
	return platform.Parse(c.Platform)
}

// Validate validates the config, returning warnings and errors.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }
	if c == nil {
		e("config must not be nil")
		return
	}

	if _, err := c.PlatformOrDefault(); err != nil {
		e("Invalid platform: %v", err)
	}
	if c.ShutdownTimeout < 0 {
		e("Shutdown timeout must not be negative, got %s", c.ShutdownTimeout)
	} else if c.ShutdownTimeout == 0 {
		w("Shutdown timeout is 0, DISABLE hooks are not bounded")
	}

	seen := map[string]bool{}
	for _, name := range c.Services.Disabled {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			e("Empty service name in disabled services")
		case seen[name]:
			w("Service %q is disabled more than once", name)
		}
		seen[name] = true
	}
	return
}

// LoadConfig loads the config from v, reading its config file if set
// and applying environment variable overrides on top of DefaultConfig.
func LoadConfig(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Env overrides only apply to known keys.
	for _, key := range []string{"platform", "debug", "autoreload", "shutdowntimeout"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// Copy the defaults so slices are not shared between loads.
	cfg := DefaultConfig
	cfg.Services.Disabled = nil
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// NewValid loads the config from v and validates it.
// Validation warnings are returned alongside a valid config.
func NewValid(v *viper.Viper) (cfg *Config, warns []error, err error) {
	cfg, err = LoadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	warns, errs := cfg.Validate()
	if len(errs) != 0 {
		return nil, warns, fmt.Errorf("invalid config: %w", multierr.Combine(errs...))
	}
	return cfg, warns, nil
}
