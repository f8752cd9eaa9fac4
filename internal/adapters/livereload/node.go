package livereload

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// HubNodeID is the unique identifier for the reload hub Graft node.
	HubNodeID graft.ID = "adapter.livereload.hub"
	// ServerNodeID is the unique identifier for the dev server Graft node.
	ServerNodeID graft.ID = "adapter.livereload.server"
)

func init() {
	graft.Register(graft.Node[*Hub]{
		ID:        HubNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{metrics.NodeID},
		Run: func(ctx context.Context) (*Hub, error) {
			rec, err := graft.Dep[*metrics.Recorder](ctx)
			if err != nil {
				return nil, err
			}
			return NewHub(rec), nil
		},
	})

	graft.Register(graft.Node[ports.DevServer]{
		ID:        ServerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{HubNodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.DevServer, error) {
			hub, err := graft.Dep[*Hub](ctx)
			if err != nil {
				return nil, err
			}
			rec, err := graft.Dep[*metrics.Recorder](ctx)
			if err != nil {
				return nil, err
			}
			return NewServer(hub, rec.Handler()), nil
		},
	})
}
