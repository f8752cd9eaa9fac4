package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks

// WatchEvent is a raw change delivered by a subscription, before it is routed
// to an asset class.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	Kind domain.ChangeKind
}

// Watcher defines the interface for watching file system changes.
type Watcher interface {
	// Subscribe starts delivering changes to paths under root matching the
	// root-relative glob. Each subscription is independent: a failing
	// subscription never affects another one.
	Subscribe(ctx context.Context, root, pattern string, onEvent func(WatchEvent)) (Subscription, error)
}

// Subscription is an active watch registration.
type Subscription interface {
	// Unsubscribe stops event delivery and releases resources.
	Unsubscribe() error
}
