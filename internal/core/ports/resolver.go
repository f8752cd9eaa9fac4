package ports

// SourceResolver defines the interface for expanding source globs.
//
//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go
type SourceResolver interface {
	// ResolveSources expands a root-relative glob into sorted absolute file paths.
	// Directories are never returned. An empty match is not an error.
	ResolveSources(root, pattern string) ([]string, error)
}
