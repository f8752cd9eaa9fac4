package livereload

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DevServer = (*Server)(nil)

const shutdownTimeout = 5 * time.Second

// Server serves the output tree with livereload injection, the SSE endpoint
// and the metrics handler.
type Server struct {
	hub     *Hub
	metrics http.Handler
	ln      net.Listener
	srv     *http.Server
}

// NewServer creates a Server. metrics may be nil.
func NewServer(hub *Hub, metrics http.Handler) *Server {
	return &Server{hub: hub, metrics: metrics}
}

// Listen binds addr and builds the handler tree for root.
func (s *Server) Listen(addr, root string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrReloadServerFailed.Error()), "addr", addr)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.routes(root),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	return ln.Addr().String(), nil
}

func (s *Server) routes(root string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(ClientScript))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.Handle("/", gzhttp.GzipHandler(injectScript(noCache(http.FileServer(http.Dir(root))))))
	return mux
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Serve handles requests until ctx is cancelled, then disconnects livereload
// clients and shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	if s.srv == nil {
		return zerr.With(domain.ErrReloadServerFailed, "reason", "not listening")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrReloadServerFailed.Error())
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, domain.ErrReloadServerFailed.Error())
	}
	return nil
}
