package styles

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the styles transformer Graft node.
const NodeID graft.ID = "adapter.transform.styles"

func init() {
	graft.Register(graft.Node[*Transformer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Transformer, error) {
			return New(), nil
		},
	})
}
