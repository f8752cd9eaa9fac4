package domain

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"
)

// PathEntry maps one asset class to its source, output and watch locations.
// Source and Watch are globs relative to the project root; Clean is a glob
// relative to Output.
type PathEntry struct {
	Source string
	Output string
	Watch  string
	Clean  string
}

// PathConfig holds one PathEntry per asset class, anchored at Root.
type PathConfig struct {
	Root    string
	Entries map[AssetClass]PathEntry
}

// DefaultPathEntries returns the stock project layout.
func DefaultPathEntries() map[AssetClass]PathEntry {
	return map[AssetClass]PathEntry{
		Styles: {
			Source: "src/scss/*.scss",
			Output: "dist/css",
			Watch:  "src/scss/**/*.scss",
			Clean:  "**/*.{css,css.map}",
		},
		Scripts: {
			Source: "src/js/App.js",
			Output: "dist/js",
			Watch:  "src/js/**/*.js",
			Clean:  "**/*.{js,js.map}",
		},
		Markup: {
			Source: "src/views/pages/*.{html,md}",
			Output: "dist",
			Watch:  "src/views/**/*.{html,md}",
			Clean:  "*.html",
		},
		Images: {
			Source: "src/assets/**/*",
			Output: "dist/assets",
			Watch:  "src/assets/**/*",
			Clean:  "**/*",
		},
	}
}

// NewPathConfig returns a PathConfig with default entries rooted at root.
func NewPathConfig(root string) PathConfig {
	return PathConfig{Root: filepath.Clean(root), Entries: DefaultPathEntries()}
}

// Entry returns the entry for a class.
func (p PathConfig) Entry(class AssetClass) (PathEntry, bool) {
	e, ok := p.Entries[class]
	return e, ok
}

// Validate checks every entry. All four classes must be configured.
func (p PathConfig) Validate() error {
	if p.Root == "" {
		return zerr.With(ErrInvalidPathConfig, "reason", "empty project root")
	}
	for _, class := range AllAssetClasses() {
		e, ok := p.Entries[class]
		if !ok {
			return zerr.With(zerr.With(ErrInvalidPathConfig, "reason", "missing entry"), "class", class.String())
		}
		if err := e.validate(p.Root); err != nil {
			return zerr.With(err, "class", class.String())
		}
	}
	return nil
}

func (e PathEntry) validate(root string) error {
	fields := []struct{ name, value string }{
		{"source", e.Source},
		{"output", e.Output},
		{"watch", e.Watch},
		{"clean", e.Clean},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return zerr.With(zerr.With(ErrInvalidPathConfig, "reason", "empty field"), "field", f.name)
		}
	}

	for _, f := range []struct{ name, value string }{{"source", e.Source}, {"watch", e.Watch}} {
		if !doublestar.ValidatePattern(normalizePattern(f.value)) {
			return zerr.With(zerr.With(ErrInvalidPathConfig, "reason", "malformed glob"), f.name, f.value)
		}
	}

	clean := filepath.ToSlash(e.Clean)
	if path.IsAbs(clean) || filepath.IsAbs(e.Clean) || containsDotDot(clean) {
		return zerr.With(ErrPathOutsideOutput, "clean", e.Clean)
	}
	if !doublestar.ValidatePattern(clean) {
		return zerr.With(zerr.With(ErrInvalidPathConfig, "reason", "malformed glob"), "clean", e.Clean)
	}

	out := e.OutputDir(root)
	rel, err := filepath.Rel(root, out)
	if err != nil || rel == "." || containsDotDot(filepath.ToSlash(rel)) {
		return zerr.With(ErrPathOutsideRoot, "output", e.Output)
	}
	return nil
}

// OutputDir returns the absolute output directory.
func (e PathEntry) OutputDir(root string) string {
	return absUnder(root, e.Output)
}

// SourcePattern returns the source glob, slash-separated and relative to the root.
func (e PathEntry) SourcePattern() string {
	return normalizePattern(e.Source)
}

// WatchPattern returns the watch glob, slash-separated and relative to the root.
func (e PathEntry) WatchPattern() string {
	return normalizePattern(e.Watch)
}

// CleanPattern returns the clean glob, slash-separated and relative to the output dir.
func (e PathEntry) CleanPattern() string {
	return normalizePattern(e.Clean)
}

// SourceRoot returns the absolute static directory prefix of the source glob.
// For "src/assets/**/*" this is "<root>/src/assets".
func (e PathEntry) SourceRoot(root string) string {
	return absUnder(root, StaticBase(e.SourcePattern()))
}

// WatchRoot returns the absolute static directory prefix of the watch glob.
func (e PathEntry) WatchRoot(root string) string {
	return absUnder(root, StaticBase(e.WatchPattern()))
}

// MatchesSource reports whether an absolute path matches the source glob.
func (e PathEntry) MatchesSource(root, absPath string) bool {
	return matchRelative(root, e.SourcePattern(), absPath)
}

// MatchesWatch reports whether an absolute path matches the watch glob.
func (e PathEntry) MatchesWatch(root, absPath string) bool {
	return matchRelative(root, e.WatchPattern(), absPath)
}

// StaticBase returns the leading directory portion of a glob that contains no
// meta characters. A pattern without a directory part yields ".".
func StaticBase(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	if base == "" {
		return "."
	}
	return base
}

func matchRelative(root, pattern, absPath string) bool {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if containsDotDot(rel) {
		return false
	}
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

func normalizePattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func absUnder(root, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(root, filepath.FromSlash(normalizePattern(rel)))
}

func containsDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
