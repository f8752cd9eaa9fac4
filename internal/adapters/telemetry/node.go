package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/core/ports"
)

// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

// InstrumentationName is the name spans are reported under.
const InstrumentationName = "kiln"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{metrics.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			rec, err := graft.Dep[*metrics.Recorder](ctx)
			if err != nil {
				return nil, err
			}
			Setup(rec)
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
