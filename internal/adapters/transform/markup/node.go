package markup

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the markup transformer Graft node.
const NodeID graft.ID = "adapter.transform.markup"

func init() {
	graft.Register(graft.Node[*Transformer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Transformer, error) {
			return New(), nil
		},
	})
}
