// Package config loads the static construction-time configuration for a
// bridge session: adapter kind, executable descriptor, launch/attach mode,
// and the free-form arguments object passed verbatim to the adapter.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mode selects whether the session launches a new debuggee or attaches to
// one already running.
type Mode string

const (
	Launch Mode = "launch"
	Attach Mode = "attach"
)

// Executable describes the adapter child process. This module never spawns
// it; the descriptor is carried through so a caller's own launcher has
// enough information to do so.
type Executable struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// Config is the construction-time input to bridge.NewSession.
type Config struct {
	// AdapterKind identifies the debug adapter dialect, e.g. "python",
	// "node". Sent to the adapter as `adapterID` at initialize.
	AdapterKind string `yaml:"adapterKind"`

	Executable Executable `yaml:"executable"`
	Mode       Mode       `yaml:"mode"`

	// Arguments is passed verbatim to `launch` or `attach`.
	Arguments map[string]interface{} `yaml:"arguments,omitempty"`
}

// Option mutates a Config after it has been loaded, mirroring the
// functional-option shape used across this module's other constructors.
type Option func(*Config)

// WithArgument sets or overrides a single launch/attach argument.
func WithArgument(key string, value interface{}) Option {
	return func(c *Config) {
		if c.Arguments == nil {
			c.Arguments = make(map[string]interface{})
		}
		c.Arguments[key] = value
	}
}

// Load reads a YAML configuration document from path.
func Load(path string, opts ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %q", path)
	}
	return Parse(data, opts...)
}

// Parse decodes a YAML configuration document already in memory.
func Parse(data []byte, opts ...Option) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, nil
}

func (c Config) validate() error {
	if c.AdapterKind == "" {
		return errors.New("config: adapterKind is required")
	}
	if c.Mode != Launch && c.Mode != Attach {
		return errors.Errorf("config: mode must be %q or %q, got %q", Launch, Attach, c.Mode)
	}
	return nil
}
