package ports

import "go.trai.ch/kiln/internal/core/domain"

// Metrics records build and reload activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	ObserveBuild(result domain.BuildResult)
	ObserveReload()
}
