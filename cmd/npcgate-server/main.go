package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	server "github.com/kazz187/npcgate/internal"
	"github.com/kazz187/npcgate/internal/config"
	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/internal/identity"
	"github.com/kazz187/npcgate/internal/upstream"
	"github.com/kazz187/npcgate/pkg/clog"
)

var (
	app          = kingpin.New("npcgate-server", "Edge gateway in front of the game task functions")
	shutdownWait = app.Flag("shutdown-timeout", "Time given to in-flight requests on shutdown").Default("10s").Duration()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	for key, url := range map[string]string{
		"GameTaskFunctionUrl":            env.GameTaskURL,
		"GraderFunctionUrl":              env.GraderURL,
		"PassTaskFunctionUrl":            env.PassTaskURL,
		"StudentRegistrationFunctionUrl": env.RegistrationURL,
	} {
		if url == "" {
			slog.Warn("backend url is not configured, requests will fail", "key", key)
		}
	}

	resolver := identity.NewResolver(identity.NewBearerVerifier(env.PrincipalJWTSecret))
	gatewayHandler := gateway.NewHandler(gateway.NewOperations(env), upstream.NewCaller(nil), resolver)
	srv := server.NewServer(env, gatewayHandler)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownWait)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
