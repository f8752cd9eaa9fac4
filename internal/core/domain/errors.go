package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidPathConfig is returned when a path entry is malformed.
	ErrInvalidPathConfig = zerr.New("invalid path configuration")

	// ErrUnknownAssetClass is returned when an asset class name is not recognised.
	ErrUnknownAssetClass = zerr.New("unknown asset class")

	// ErrInvalidBuildMode is returned when a build mode name is not recognised.
	ErrInvalidBuildMode = zerr.New("invalid build mode, expected 'development' or 'production'")

	// ErrEntryModuleNotFound is returned when the scripts source does not resolve to exactly one file.
	ErrEntryModuleNotFound = zerr.New("entry module not found")

	// ErrPathOutsideRoot is returned when an output directory escapes the project root.
	ErrPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrPathOutsideOutput is returned when a deletion would escape the output directory.
	ErrPathOutsideOutput = zerr.New("path is outside the output directory")

	// ErrCleanFailed is returned when generated output cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean output")

	// ErrOutputWriteFailed is returned when an artifact cannot be written.
	ErrOutputWriteFailed = zerr.New("failed to write output file")

	// ErrOutputRemoveFailed is returned when an artifact cannot be removed.
	ErrOutputRemoveFailed = zerr.New("failed to remove output file")

	// ErrSourceResolutionFailed is returned when a source glob cannot be expanded.
	ErrSourceResolutionFailed = zerr.New("failed to resolve sources")

	// ErrNoSources is returned when a source glob matches nothing.
	ErrNoSources = zerr.New("no source files matched")

	// ErrTransformFailed is returned when a transformer rejects its input.
	ErrTransformFailed = zerr.New("transformation failed")

	// ErrTransformerMissing is returned when no transformer is registered for a class.
	ErrTransformerMissing = zerr.New("no transformer registered for asset class")

	// ErrWatchFailed is returned when a filesystem subscription cannot be established.
	ErrWatchFailed = zerr.New("failed to watch sources")

	// ErrReloadServerFailed is returned when the development server cannot start.
	ErrReloadServerFailed = zerr.New("failed to start development server")

	// ErrBuildExecutionFailed is returned when at least one one-shot build failed.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
