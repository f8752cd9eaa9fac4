package domain

import "time"

// SizeStats reports the artifact size before and after minification or compression.
type SizeStats struct {
	Original    int64
	Transformed int64
}

// Saved returns the number of bytes removed by the transformation.
func (s SizeStats) Saved() int64 {
	return s.Original - s.Transformed
}

// OutputFile is one artifact produced by a transformer.
type OutputFile struct {
	// Path is relative to the class output directory, slash-separated.
	Path     string
	Contents []byte
}

// TransformRequest is the input handed to a transformer.
type TransformRequest struct {
	Class AssetClass
	// Sources are absolute paths, sorted.
	Sources []string
	// SourceRoot is the static directory prefix of the source pattern.
	SourceRoot string
	// IncludeRoot is the static directory prefix of the watch pattern. Shared
	// templates and partials are looked up below it.
	IncludeRoot string
	Config      ModeConfig
}

// TransformOutput is what a transformer hands back on success.
type TransformOutput struct {
	Files []OutputFile
	Sizes *SizeStats
}

// BuildResult is the outcome of one BuildStage run.
type BuildResult struct {
	ID          string
	Class       AssetClass
	Mode        BuildMode
	Success     bool
	ErrorDetail string
	Err         error
	Sizes       *SizeStats
	// Outputs are the absolute paths written by the build.
	Outputs  []string
	Digest   string
	Duration time.Duration
}
