// Package middleware provides the grpc unary interceptors shared by the
// gateway and bank services: bearer-token authentication and request logging
// with panic recovery.
package middleware

import (
	"context"

	"github.com/KeyurIITGN/Strife/payment"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionVerifier resolves a bearer token into a context carrying the
// authenticated session. Implemented by the gateway token store.
type SessionVerifier interface {
	VerifyToken(ctx context.Context, token string) (context.Context, error)
}

// AuthInterceptor enforces the token layer ahead of every handler except the
// skipped methods. Missing, unknown, and expired tokens are rejected before
// the service method runs; account-level authorization stays inside each
// method because the account identity is in the request body.
func AuthInterceptor(verifier SessionVerifier, skipMethods ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(skipMethods))
	for _, method := range skipMethods {
		skip[method] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if skip[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing request metadata")
		}
		tokens := md.Get(payment.TokenMetadataKey)
		if len(tokens) == 0 || tokens[0] == "" {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		ctx, err := verifier.VerifyToken(ctx, tokens[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(ctx, req)
	}
}
