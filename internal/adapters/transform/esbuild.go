// Package transform holds helpers shared by the asset transformers.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// Engines converts browser targets into esbuild engines, sorted by name.
// Unknown browsers are ignored.
func Engines(targets map[string]string) []api.Engine {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	engines := make([]api.Engine, 0, len(names))
	for _, name := range names {
		engine, ok := engineNames[name]
		if !ok {
			continue
		}
		engines = append(engines, api.Engine{Name: engine, Version: targets[name]})
	}
	return engines
}

// BuildError turns esbuild messages into a single error wrapping ErrTransformFailed.
// The location of the first message is attached as metadata.
func BuildError(msgs []api.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s",
				msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text))
			continue
		}
		lines = append(lines, msg.Text)
	}

	err := zerr.Wrap(errors.New(strings.Join(lines, "\n")), domain.ErrTransformFailed.Error())
	if loc := msgs[0].Location; loc != nil {
		err = zerr.With(err, "file", loc.File)
		err = zerr.With(err, "line", loc.Line)
	}
	return err
}

// SourceMap returns the esbuild source map mode for a mode config.
func SourceMap(cfg domain.ModeConfig) api.SourceMap {
	if cfg.SourceMaps {
		return api.SourceMapInline
	}
	return api.SourceMapNone
}
