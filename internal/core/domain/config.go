package domain

import "time"

// DefaultDebounceWindow is the quiet period after the last change before a rebuild.
const DefaultDebounceWindow = 50 * time.Millisecond

// MinDebounceWindow is the smallest window used to coalesce back-to-back writes.
const MinDebounceWindow = time.Millisecond

// DefaultServerAddr is the listen address of the development server.
const DefaultServerAddr = "localhost:3000"

// ServerConfig configures the development server and reload channel.
type ServerConfig struct {
	Addr    string
	Enabled bool
}

// Config is the fully resolved, immutable configuration of one process.
type Config struct {
	Mode     BuildMode
	Paths    PathConfig
	Server   ServerConfig
	Debounce time.Duration
	// ServeRoot is the directory served by the development server.
	ServeRoot string
}

// NewConfig returns the default configuration rooted at root.
func NewConfig(root string) *Config {
	paths := NewPathConfig(root)
	return &Config{
		Mode:      Development,
		Paths:     paths,
		Server:    ServerConfig{Addr: DefaultServerAddr, Enabled: true},
		Debounce:  DefaultDebounceWindow,
		ServeRoot: absUnder(paths.Root, DefaultServeDir),
	}
}

// DebounceWindow returns the configured window, never below MinDebounceWindow.
func (c *Config) DebounceWindow() time.Duration {
	if c.Debounce < MinDebounceWindow {
		return MinDebounceWindow
	}
	return c.Debounce
}

// Overrides carries command-line settings that win over file and environment values.
// Nil pointers and empty strings leave the underlying value untouched.
type Overrides struct {
	ConfigPath string
	Mode       *BuildMode
	Addr       string
	Serve      *bool
	Debounce   time.Duration
}
