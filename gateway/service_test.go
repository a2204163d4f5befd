package gateway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/KeyurIITGN/Strife/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appctx "github.com/KeyurIITGN/Strife/libs/context"
)

func serviceFixture(t *testing.T) (*Service, *fakeBank, *fakeBank) {
	sender := &fakeBank{}
	receiver := &fakeBank{}
	registry := &fakeRegistry{banks: map[string]*fakeBank{
		"Bank1": sender,
		"Bank2": receiver,
	}}

	tokens, err := NewTokenStore(context.Background(),
		filepath.Join(t.TempDir(), "active_tokens.json"), time.Hour)
	require.NoError(t, err)

	service, err := InitService(context.Background(), registry, tokens)
	require.NoError(t, err)
	return service, sender, receiver
}

func sessionContext() context.Context {
	return context.WithValue(context.Background(), appctx.SessionCTXKey, &Session{
		Token:     "user1-token",
		Username:  "user1",
		Bank:      "Bank1",
		AccountID: "ACC001",
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func paymentRequest(paymentID string) *payment.PaymentRequest {
	return &payment.PaymentRequest{
		SenderAccount:   "self",
		ReceiverAccount: "ACC002",
		ReceiverBank:    "Bank2",
		Amount:          "100",
		PaymentID:       paymentID,
	}
}

func TestAuthenticate(t *testing.T) {
	service, _, _ := serviceFixture(t)

	resp, err := service.Authenticate(context.Background(), &payment.AuthRequest{
		Username: "user1",
		Password: "pass1",
		BankName: "Bank1",
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Contains(t, resp.Token, "user1-")

	session, err := service.Tokens().Lookup(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ACC001", session.AccountID)
	assert.Equal(t, "Bank1", session.Bank)
}

func TestAuthenticateUnknownBank(t *testing.T) {
	service, _, _ := serviceFixture(t)

	_, err := service.Authenticate(context.Background(), &payment.AuthRequest{
		Username: "user1",
		Password: "pass1",
		BankName: "Bank404",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	service, sender, _ := serviceFixture(t)
	sender.verify = func(*payment.VerifyCredentialsRequest) (*payment.VerifyCredentialsResponse, error) {
		return &payment.VerifyCredentialsResponse{Valid: false, Message: "invalid credentials"}, nil
	}

	resp, err := service.Authenticate(context.Background(), &payment.AuthRequest{
		Username: "user1",
		Password: "wrong",
		BankName: "Bank1",
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 0, service.Tokens().Len(), "no token minted for rejected credentials")
}

func TestCheckBalanceRequiresSession(t *testing.T) {
	service, _, _ := serviceFixture(t)

	_, err := service.CheckBalance(context.Background(), &payment.BalanceRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestCheckBalanceDefaultsToSessionAccount(t *testing.T) {
	service, _, _ := serviceFixture(t)

	resp, err := service.CheckBalance(sessionContext(), &payment.BalanceRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "1000", resp.Balance)
}

func TestCheckBalanceRejectsForeignAccount(t *testing.T) {
	service, _, _ := serviceFixture(t)

	_, err := service.CheckBalance(sessionContext(), &payment.BalanceRequest{AccountID: "ACC002"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestGetTransactionHistoryRejectsForeignAccount(t *testing.T) {
	service, _, _ := serviceFixture(t)

	_, err := service.GetTransactionHistory(sessionContext(), &payment.HistoryRequest{AccountID: "ACC002"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err := service.GetTransactionHistory(sessionContext(), &payment.HistoryRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestProcessPaymentValidation(t *testing.T) {
	service, _, _ := serviceFixture(t)
	ctx := sessionContext()

	_, err := service.ProcessPayment(context.Background(), paymentRequest("p-1"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	req := paymentRequest("")
	_, err = service.ProcessPayment(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req = paymentRequest("p-1")
	req.Amount = "-5"
	_, err = service.ProcessPayment(ctx, req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	req = paymentRequest("p-1")
	req.SenderAccount = "ACC002"
	_, err = service.ProcessPayment(ctx, req)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestProcessPaymentCompletes(t *testing.T) {
	service, sender, receiver := serviceFixture(t)

	resp, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, payment.StatusCompleted, resp.Status)
	require.Len(t, sender.commits, 1)
	require.Len(t, receiver.commits, 1)
}

func TestProcessPaymentReplaysCachedOutcome(t *testing.T) {
	service, sender, _ := serviceFixture(t)

	first, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// the retry never reaches a participant
	assert.Len(t, sender.prepares, 1)
	assert.Len(t, sender.commits, 1)
}

func TestProcessPaymentUnknownReceiverBank(t *testing.T) {
	service, sender, _ := serviceFixture(t)

	req := paymentRequest("p-1")
	req.ReceiverBank = "Bank404"

	resp, err := service.ProcessPayment(sessionContext(), req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Contains(t, resp.Message, "Bank404")
	assert.Empty(t, sender.prepares)

	// terminal, so the outcome replays from the cache
	cached, ok := service.outcomes.Get("p-1")
	require.True(t, ok)
	assert.Equal(t, resp, cached)
}

func TestProcessPaymentInsufficientFundsPrecheck(t *testing.T) {
	service, sender, _ := serviceFixture(t)
	sender.balance = "50"

	resp, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Contains(t, resp.Message, "insufficient funds")

	// doomed payments terminate without a prepare round
	assert.Empty(t, sender.prepares)
	_, ok := service.outcomes.Get("p-1")
	assert.True(t, ok)
}

func TestProcessPaymentRetriableNotCached(t *testing.T) {
	service, sender, _ := serviceFixture(t)
	sender.prepare = func(*payment.PrepareRequest) (*payment.PrepareResponse, error) {
		return nil, status.Error(codes.Unavailable, "connection refused")
	}

	_, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	// transient failures stay uncached so the retry can progress
	_, ok := service.outcomes.Get("p-1")
	assert.False(t, ok)

	sender.prepare = nil
	resp, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestProcessPaymentCriticalStateCached(t *testing.T) {
	service, _, receiver := serviceFixture(t)
	receiver.commit = func(*payment.CommitRequest) (*payment.CommitResponse, error) {
		return nil, status.Error(codes.Unavailable, "connection reset")
	}

	resp, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, payment.StatusError, resp.Status)

	// the critical outcome is terminal; a retry must not debit again
	receiver.commit = nil
	second, err := service.ProcessPayment(sessionContext(), paymentRequest("p-1"))
	require.NoError(t, err)
	assert.Equal(t, resp, second)
}
