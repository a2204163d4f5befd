package middleware

import (
	"context"
	"time"

	"github.com/KeyurIITGN/Strife/libs/logging"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RequestLogger logs every unary request with its method, peer, duration and
// resulting code, and recovers from handler panics so one bad request cannot
// take a service down.
func RequestLogger(ctx context.Context) grpc.UnaryServerInterceptor {
	logger := logging.Logger(ctx, "middleware.RequestLogger")

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Str("method", info.FullMethod).
					Interface("panic", rec).
					Msg("recovered from panic in handler")
				resp = nil
				err = status.Error(codes.Internal, "internal error")
			}

			entry := logger.Info()
			if err != nil {
				entry = logger.Warn().Err(err)
			}

			addr := "unknown"
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				addr = p.Addr.String()
			}

			entry.
				Str("method", info.FullMethod).
				Str("peer", addr).
				Str("code", status.Code(err).String()).
				Dur("duration", time.Since(start)).
				Msg("handled request")
		}()

		resp, err = handler(ctx, req)
		return resp, err
	}
}
