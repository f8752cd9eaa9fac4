package images

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the images transformer Graft node.
const NodeID graft.ID = "adapter.transform.images"

func init() {
	graft.Register(graft.Node[*Transformer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Transformer, error) {
			return New(), nil
		},
	})
}
