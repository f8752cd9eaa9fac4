package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// BuildMode selects development or production output for a whole process.
type BuildMode uint8

const (
	// Development favours debuggability: source maps, readable output.
	Development BuildMode = iota
	// Production favours size: minified output, no source maps.
	Production
)

// String returns the lower-case name of the mode.
func (m BuildMode) String() string {
	if m == Production {
		return "production"
	}
	return "development"
}

// ParseBuildMode converts a mode name. An empty name means Development.
func ParseBuildMode(name string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dev", "development":
		return Development, nil
	case "prod", "production":
		return Production, nil
	default:
		return 0, zerr.With(ErrInvalidBuildMode, "mode", name)
	}
}

// OutputStyle is the formatting applied to stylesheet output.
type OutputStyle string

const (
	// OutputNested keeps rules readable, one declaration per line.
	OutputNested OutputStyle = "nested"
	// OutputCompressed strips all optional whitespace.
	OutputCompressed OutputStyle = "compressed"
)

// Browser targets used for vendor prefixing of stylesheets.
var defaultStyleTargets = map[string]string{
	"chrome":  "58",
	"firefox": "57",
	"safari":  "11",
	"edge":    "16",
	"ios":     "11",
}

// ModeConfig is the complete per-class configuration of one build.
// It is computed once from (class, mode) and passed down unchanged, so
// transformers never consult the mode themselves.
type ModeConfig struct {
	Class AssetClass
	Mode  BuildMode

	SourceMaps  bool
	Minify      bool
	Pretty      bool
	ReportSizes bool
	Compress    bool
	OutputStyle OutputStyle

	// Bundle is the name of the single artifact for concatenating classes.
	Bundle string
	// Targets maps browser engine names to minimum versions.
	Targets map[string]string
}

// NewModeConfig builds the configuration table entry for a class and mode.
func NewModeConfig(class AssetClass, mode BuildMode) ModeConfig {
	dev := mode == Development
	cfg := ModeConfig{Class: class, Mode: mode}

	switch class {
	case Styles:
		cfg.SourceMaps = dev
		cfg.Minify = !dev
		cfg.ReportSizes = !dev
		cfg.OutputStyle = OutputNested
		if !dev {
			cfg.OutputStyle = OutputCompressed
		}
		cfg.Bundle = StylesBundleName
		cfg.Targets = copyTargets(defaultStyleTargets)
	case Scripts:
		cfg.SourceMaps = dev
		cfg.Minify = !dev
		cfg.Bundle = ScriptsBundleName
	case Markup:
		cfg.Pretty = dev
	case Images:
		cfg.Compress = true
		cfg.ReportSizes = true
	}

	return cfg
}

func copyTargets(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
