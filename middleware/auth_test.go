package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/KeyurIITGN/Strife/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const verifiedKey ctxKey = "verified-token"

// fakeVerifier accepts a single token and marks the context it returns.
type fakeVerifier struct {
	token string
}

func (v *fakeVerifier) VerifyToken(ctx context.Context, token string) (context.Context, error) {
	if token != v.token {
		return ctx, errors.New("invalid token")
	}
	return context.WithValue(ctx, verifiedKey, token), nil
}

func invokeAuth(t *testing.T, ctx context.Context, method string) (context.Context, error) {
	interceptor := AuthInterceptor(&fakeVerifier{token: "user1-valid"}, payment.GatewayAuthenticateMethod)

	var handlerCtx context.Context
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCtx = ctx
		return "ok", nil
	}

	_, err := interceptor(ctx, struct{}{}, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	return handlerCtx, err
}

func TestAuthInterceptorMissingMetadata(t *testing.T) {
	_, err := invokeAuth(t, context.Background(), payment.GatewayProcessPaymentMethod)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthInterceptorMissingToken(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
	_, err := invokeAuth(t, ctx, payment.GatewayProcessPaymentMethod)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthInterceptorInvalidToken(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(payment.TokenMetadataKey, "user1-bogus"))
	_, err := invokeAuth(t, ctx, payment.GatewayProcessPaymentMethod)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthInterceptorValidToken(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(payment.TokenMetadataKey, "user1-valid"))

	handlerCtx, err := invokeAuth(t, ctx, payment.GatewayProcessPaymentMethod)
	require.NoError(t, err)

	// the handler observes the verifier's enriched context
	assert.Equal(t, "user1-valid", handlerCtx.Value(verifiedKey))
}

func TestAuthInterceptorSkipsExemptMethod(t *testing.T) {
	// no metadata at all, the exempt method must still reach the handler
	handlerCtx, err := invokeAuth(t, context.Background(), payment.GatewayAuthenticateMethod)
	require.NoError(t, err)
	assert.NotNil(t, handlerCtx)
	assert.Nil(t, handlerCtx.Value(verifiedKey))
}
