package ports

import "context"

// DevServer serves the output tree to browsers during watch.
//
//go:generate mockgen -source=server.go -destination=mocks/mock_server.go -package=mocks
type DevServer interface {
	// Listen binds addr and prepares to serve files below root. It returns
	// the address actually bound. A busy port fails here, before any build.
	Listen(addr, root string) (string, error)
	// Serve handles requests until ctx is cancelled.
	Serve(ctx context.Context) error
}
