// Package terminal renders widgets on a tcell screen and feeds input back
// into the event queue, and runs the tick loop that ties everything
// together.
package terminal

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ErrTerminal is wrapped by every error of this package.
var ErrTerminal = errors.New("terminal error")

// Config holds the window and loop settings, loadable from a TOML file.
type Config struct {
	Title        string `toml:"title"`
	FPS          int    `toml:"fps"`
	DefaultColor string `toml:"default_color"`
	Mouse        bool   `toml:"mouse"`
}

// DefaultConfig returns the settings used when no file overrides them.
func DefaultConfig() Config {
	return Config{
		Title:        "ursa",
		FPS:          30,
		DefaultColor: "white",
		Mouse:        false,
	}
}

// Validate checks the settings for values the loop cannot run with.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrTerminal, c.FPS)
	}
	if c.FPS > 1000 {
		return fmt.Errorf("%w: fps %d is above the 1000 cap", ErrTerminal, c.FPS)
	}
	if c.DefaultColor == "" {
		return fmt.Errorf("%w: empty default color", ErrTerminal)
	}
	return nil
}

// LoadConfig reads a TOML file over the defaults, so a file only needs the
// keys it changes.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrTerminal, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: %s: unknown key %q", ErrTerminal, path, undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
