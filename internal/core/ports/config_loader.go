package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load resolves the configuration for the project containing cwd.
	// File values are overlaid by environment values and then by overrides.
	Load(cwd string, overrides domain.Overrides) (*domain.Config, error)
}
