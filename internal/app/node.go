package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/config"            //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/fs"                //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/livereload"        //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/logger"            //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/metrics"           //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry"         //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/transform/images"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/transform/markup"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/transform/scripts" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/transform/styles"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"           //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.ResolverNodeID,
			fs.TreeNodeID,
			fs.HasherNodeID,
			styles.NodeID,
			scripts.NodeID,
			markup.NodeID,
			images.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			livereload.HubNodeID,
			livereload.ServerNodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

//nolint:cyclop // one lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Deps
		err  error
	)

	if deps.Loader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	if deps.Resolver, err = graft.Dep[ports.SourceResolver](ctx); err != nil {
		return nil, err
	}
	if deps.Tree, err = graft.Dep[ports.OutputTree](ctx); err != nil {
		return nil, err
	}
	if deps.Digester, err = graft.Dep[*fs.Hasher](ctx); err != nil {
		return nil, err
	}
	if deps.Tracer, err = graft.Dep[ports.Tracer](ctx); err != nil {
		return nil, err
	}
	if deps.Server, err = graft.Dep[ports.DevServer](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}

	rec, err := graft.Dep[*metrics.Recorder](ctx)
	if err != nil {
		return nil, err
	}
	deps.Metrics = rec

	hub, err := graft.Dep[*livereload.Hub](ctx)
	if err != nil {
		return nil, err
	}
	deps.Notifier = hub

	deps.Transformers, err = transformerSet(ctx)
	if err != nil {
		return nil, err
	}

	return New(deps), nil
}

func transformerSet(ctx context.Context) (ports.TransformerSet, error) {
	st, err := graft.Dep[*styles.Transformer](ctx)
	if err != nil {
		return nil, err
	}
	sc, err := graft.Dep[*scripts.Transformer](ctx)
	if err != nil {
		return nil, err
	}
	mk, err := graft.Dep[*markup.Transformer](ctx)
	if err != nil {
		return nil, err
	}
	im, err := graft.Dep[*images.Transformer](ctx)
	if err != nil {
		return nil, err
	}
	return ports.TransformerSet{
		domain.Styles:  st,
		domain.Scripts: sc,
		domain.Markup:  mk,
		domain.Images:  im,
	}, nil
}
