package ports

import "go.trai.ch/kiln/internal/core/domain"

// OutputTree owns all writes and deletions below an output directory.
// Every operation is anchored under dir; paths escaping it are refused.
//
//go:generate mockgen -source=output.go -destination=mocks/mock_output.go -package=mocks
type OutputTree interface {
	// Clean deletes every file under dir matching the dir-relative glob and
	// returns the number of removed files. A missing dir is not an error.
	Clean(dir, pattern string) (int, error)
	// Write stores the files under dir and returns their absolute paths.
	Write(dir string, files []domain.OutputFile) ([]string, error)
	// Remove deletes a single dir-relative path. A missing path is not an error.
	Remove(dir, rel string) error
}
