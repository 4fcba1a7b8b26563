package local

import (
	"context"
	"errors"
	"net/http"
	"time"

	"originfunc/pkg/lambda"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/valve"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	// defaultMaxBody matches the API Gateway payload limit
	defaultMaxBody = 10 << 20
)

// Server emulates API Gateway in front of a Handler so the function can be
// called from a browser during development.
type Server struct {
	port    string
	handler *lambda.Handler
	valve   *valve.Valve
	log     *zap.Logger
	maxBody int64
}

// NewServer constructs a Server listening on port
func NewServer(port string, h *lambda.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		port:    port,
		handler: h,
		valve:   valve.New(),
		log:     log.Named("local"),
		maxBody: defaultMaxBody,
	}
}

// Run serves until ctx is done, then waits for in-flight invocations.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.routes(),
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening and serving", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := s.valve.Shutdown(shutdownTimeout); err != nil {
		return err
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("done")
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.HandleFunc("/*", s.invoke())

	return r
}
