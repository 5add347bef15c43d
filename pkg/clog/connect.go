package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type connectConfig struct {
	Level Level
}

type ConnectOption func(*connectConfig)

// WithConnectSuccessLevel sets the level for calls that finished without an
// error. Health probes are noisy, so callers usually pass LevelDebug.
func WithConnectSuccessLevel(level Level) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.Level = level
	}
}

// NewSlogConnectUnaryInterceptor logs every unary Connect call served by
// the gateway, which today is only the gRPC health protocol.
func NewSlogConnectUnaryInterceptor(opts ...ConnectOption) connect.UnaryInterceptorFunc {
	cfg := connectConfig{Level: LevelInfo}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			startTime := time.Now()
			newCtx := ContextWithSlog(ctx)

			AddAttributes(newCtx, map[string]any{
				"method":    req.HTTPMethod(),
				"procedure": req.Spec().Procedure,
			})
			resp, err := next(newCtx, req)
			codeStr := "ok"
			var cerr *connect.Error
			if err != nil {
				if !errors.As(err, &cerr) {
					cerr = connect.NewError(connect.CodeUnknown, err)
				}
				codeStr = cerr.Code().String()
			}
			AddAttributes(newCtx, map[string]any{
				"code":     codeStr,
				"duration": time.Since(startTime),
			})

			if cerr == nil {
				slog.Log(newCtx, cfg.Level.Slog(), "Finished")
			} else {
				logConnectError(newCtx, cerr)
			}
			return resp, err
		}
	}
}

func logConnectError(ctx context.Context, cerr *connect.Error) {
	if errDetails := cerr.Details(); len(errDetails) > 0 {
		details := make([]proto.Message, 0, len(errDetails))
		for _, detail := range errDetails {
			val, err := detail.Value()
			if err != nil {
				slog.ErrorContext(ctx, "failed to convert detail value", ErrorAttributeKey, err)
				continue
			}
			details = append(details, val)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(cerr.Code()).Slog(), cerr.Message())
}
