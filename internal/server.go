package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/npcgate/internal/config"
	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/pkg/cerr"
	"github.com/kazz187/npcgate/pkg/clog"
	"github.com/kazz187/npcgate/pkg/panicerr"
)

type Server struct {
	server  *http.Server
	env     *config.Env
	gateway *gateway.Handler
}

func NewServer(env *config.Env, gatewayHandler *gateway.Handler) *Server {
	return &Server{
		env:     env,
		gateway: gatewayHandler,
	}
}

// Handler builds the full HTTP handler: gateway routes behind the logging,
// request id and error middlewares, plain and gRPC health checks, CORS and
// h2c.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		clog.SlogChiMiddleware(clog.WithChiFilter(clog.DefaultHealthCheckFilter)),
		clog.RequestIDChiMiddleware(),
		panicerr.RecoverChiMiddleware(),
		cerr.NewJSONResponseChiMiddleware(),
	)
	s.gateway.Mount(r)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetJSONError(r.Context(), cerr.NewErrorWithStatus(cerr.InvalidArgument, http.StatusMethodNotAllowed, "method not allowed", nil))
	})

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/", r)
	mux.Handle(grpchealth.NewHandler(
		grpchealth.NewStaticChecker(),
		connect.WithInterceptors(s.interceptors()...),
	))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   s.env.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{clog.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also cancels outstanding upstream calls.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectUnaryInterceptor(clog.WithConnectSuccessLevel(clog.LevelDebug)),
	}
}
