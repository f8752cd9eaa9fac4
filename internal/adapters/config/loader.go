// Package config loads kiln.yaml, the .env overlay and command-line overrides.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Environment variables read from the process or the .env file.
const (
	EnvMode     = domain.EnvPrefix + "MODE"
	EnvAddr     = domain.EnvPrefix + "ADDR"
	EnvDebounce = domain.EnvPrefix + "DEBOUNCE"
)

// Loader implements ports.ConfigLoader. Precedence, lowest first: defaults,
// kiln.yaml, .env, process environment, overrides.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves the configuration for cwd.
func (l *Loader) Load(cwd string, overrides domain.Overrides) (*domain.Config, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	configPath, err := l.findConfiguration(cwd, overrides.ConfigPath)
	if err != nil {
		return nil, err
	}

	var file Kilnfile
	root := cwd
	if configPath != "" {
		if err := readAndUnmarshalYAML(configPath, &file); err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		root = resolveRoot(configPath, file.Root)
	}

	cfg := domain.NewConfig(root)
	if err := applyFile(cfg, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	env, err := readEnv(filepath.Join(root, domain.EnvFileName))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}

	applyOverrides(cfg, overrides)

	if err := cfg.Paths.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfiguration returns the explicit config path, or the nearest
// kiln.yaml at or above cwd. No file is not an error.
func (l *Loader) findConfiguration(cwd, explicit string) (string, error) {
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(cwd, explicit)
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", explicit)
		}
		return explicit, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if l.Logger != nil {
		l.Logger.Info("no " + domain.ConfigFileName + " found, using defaults")
	}
	return "", nil
}

func applyFile(cfg *domain.Config, file *Kilnfile) error {
	if file.Mode != "" {
		mode, err := domain.ParseBuildMode(file.Mode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}

	if file.Debounce != "" {
		d, err := parseDuration("debounce", file.Debounce)
		if err != nil {
			return err
		}
		cfg.Debounce = d
	}

	if file.Serve != "" {
		cfg.ServeRoot = resolveRoot(filepath.Join(cfg.Paths.Root, domain.ConfigFileName), file.Serve)
	}
	if file.Server.Addr != "" {
		cfg.Server.Addr = file.Server.Addr
	}
	if file.Server.Enabled != nil {
		cfg.Server.Enabled = *file.Server.Enabled
	}

	for name, dto := range file.Paths {
		class, err := domain.ParseAssetClass(name)
		if err != nil {
			return err
		}
		entry := cfg.Paths.Entries[class]
		mergeEntry(&entry, dto)
		cfg.Paths.Entries[class] = entry
	}

	return nil
}

func mergeEntry(entry *domain.PathEntry, dto PathDTO) {
	if dto.Source != "" {
		entry.Source = dto.Source
	}
	if dto.Output != "" {
		entry.Output = dto.Output
	}
	if dto.Watch != "" {
		entry.Watch = dto.Watch
	}
	if dto.Clean != "" {
		entry.Clean = dto.Clean
	}
}

// readEnv merges the optional dotenv file with the process environment.
// Process variables win.
func readEnv(path string) (map[string]string, error) {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
		}
		env = fileEnv
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	for _, key := range []string{EnvMode, EnvAddr, EnvDebounce} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

func applyEnv(cfg *domain.Config, env map[string]string) error {
	if v := env[EnvMode]; v != "" {
		mode, err := domain.ParseBuildMode(v)
		if err != nil {
			return zerr.With(err, "env", EnvMode)
		}
		cfg.Mode = mode
	}
	if v := env[EnvAddr]; v != "" {
		cfg.Server.Addr = v
	}
	if v := env[EnvDebounce]; v != "" {
		d, err := parseDuration(EnvDebounce, v)
		if err != nil {
			return err
		}
		cfg.Debounce = d
	}
	return nil
}

func applyOverrides(cfg *domain.Config, o domain.Overrides) {
	if o.Mode != nil {
		cfg.Mode = *o.Mode
	}
	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.Serve != nil {
		cfg.Server.Enabled = *o.Serve
	}
	if o.Debounce > 0 {
		cfg.Debounce = o.Debounce
	}
}

// parseDuration accepts Go duration strings and bare integers as milliseconds.
func parseDuration(key, value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), key, value)
	}
	return d, nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered or given on the command line
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
