// Package gateway implements the payment coordinator: it authenticates users
// against their owning bank, mints session tokens, and drives every payment
// through two-phase commit across the sender and receiver banks behind an
// idempotency cache keyed by the client-supplied payment id.
package gateway

import (
	"context"
	"time"

	appctx "github.com/KeyurIITGN/Strife/libs/context"
	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCommitTimeout = 10 * time.Second
	defaultAbortTimeout  = 2 * time.Second
	defaultOutcomeTTL    = 24 * time.Hour
)

// Service is the client-facing gateway surface.
type Service struct {
	registry    Registry
	tokens      *TokenStore
	outcomes    *OutcomeCache
	coordinator *Coordinator
	callTimeout time.Duration
}

// InitService initializes the gateway service
func InitService(ctx context.Context, registry Registry, tokens *TokenStore) (*Service, error) {
	logger := logging.Logger(ctx, "gateway.InitService")

	commitTimeout, err := appctx.GetDurationFromContext(ctx, appctx.CommitTimeoutCTXKey)
	if err != nil {
		commitTimeout = defaultCommitTimeout
	}
	abortTimeout, err := appctx.GetDurationFromContext(ctx, appctx.AbortTimeoutCTXKey)
	if err != nil {
		abortTimeout = defaultAbortTimeout
	}

	s := &Service{
		registry:    registry,
		tokens:      tokens,
		outcomes:    NewOutcomeCache(defaultOutcomeTTL),
		coordinator: NewCoordinator(registry, commitTimeout, abortTimeout),
		callTimeout: commitTimeout,
	}

	logger.Info().
		Strs("banks", registry.Names()).
		Dur("commitTimeout", commitTimeout).
		Msg("gateway service initialized")
	return s, nil
}

// Tokens - the session token store backing this service
func (s *Service) Tokens() *TokenStore {
	return s.tokens
}

// Authenticate verifies credentials with the owning bank and mints a session token.
func (s *Service) Authenticate(ctx context.Context, req *payment.AuthRequest) (*payment.AuthResponse, error) {
	logger := logging.Logger(ctx, "gateway.Authenticate")

	if !s.registry.Known(req.BankName) {
		return nil, status.Error(codes.InvalidArgument, "unknown bank")
	}

	bank, err := s.registry.Client(ctx, req.BankName)
	if err != nil {
		return nil, status.Error(codes.Unavailable, "bank unreachable")
	}

	bctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	verified, err := bank.VerifyCredentials(bctx, &payment.VerifyCredentialsRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		logger.Error().Err(err).Str("bank", req.BankName).Msg("credential verification failed")
		return nil, status.Error(codes.Unavailable, "bank unreachable")
	}
	if !verified.Valid {
		return &payment.AuthResponse{Success: false, Message: verified.Message}, nil
	}

	session, err := s.tokens.Mint(ctx, req.Username, req.BankName, verified.AccountID)
	if err != nil {
		logger.Error().Err(err).Msg("token mint failed")
		return nil, status.Error(codes.Internal, "could not mint session token")
	}

	logger.Info().Str("username", req.Username).Str("bank", req.BankName).Msg("session authenticated")
	return &payment.AuthResponse{
		Success: true,
		Token:   session.Token,
		Message: "authentication successful",
	}, nil
}

// CheckBalance returns the balance of the session's account.
func (s *Service) CheckBalance(ctx context.Context, req *payment.BalanceRequest) (*payment.BalanceResponse, error) {
	session, err := sessionFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}

	accountID := req.AccountID
	if accountID == "" {
		accountID = session.AccountID
	}
	if accountID != session.AccountID {
		return nil, status.Error(codes.PermissionDenied, "account not owned by session")
	}

	bank, err := s.registry.Client(ctx, session.Bank)
	if err != nil {
		return nil, status.Error(codes.Unavailable, "bank unreachable")
	}

	bctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	return bank.GetBalance(bctx, &payment.BankBalanceRequest{AccountID: accountID})
}

// GetTransactionHistory lists ledger entries for the session's account.
func (s *Service) GetTransactionHistory(ctx context.Context, req *payment.HistoryRequest) (*payment.HistoryResponse, error) {
	session, err := sessionFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}

	accountID := req.AccountID
	if accountID == "" {
		accountID = session.AccountID
	}
	if accountID != session.AccountID {
		return nil, status.Error(codes.PermissionDenied, "account not owned by session")
	}

	bank, err := s.registry.Client(ctx, session.Bank)
	if err != nil {
		return nil, status.Error(codes.Unavailable, "bank unreachable")
	}

	bctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	return bank.GetTransactionHistory(bctx, &payment.BankHistoryRequest{
		AccountID: accountID,
		Limit:     req.Limit,
	})
}

// ProcessPayment runs an idempotent payment from the session's account. The
// idempotency lookup precedes all bank communication and only terminal
// outcomes are cached, so retries of transient failures can still progress.
func (s *Service) ProcessPayment(ctx context.Context, req *payment.PaymentRequest) (*payment.PaymentResponse, error) {
	logger := logging.Logger(ctx, "gateway.ProcessPayment")

	session, err := sessionFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}

	if req.PaymentID == "" {
		return nil, status.Error(codes.InvalidArgument, errorutils.ErrMissingPaymentID.Error())
	}
	amount, err := payment.ParseAmount(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorutils.ErrInvalidAmount.Error())
	}
	if req.SenderAccount != "" && req.SenderAccount != "self" && req.SenderAccount != session.AccountID {
		return nil, status.Error(codes.PermissionDenied, "sender account not owned by session")
	}

	logging.AddPaymentIDToContext(ctx, req.PaymentID)

	if cached, ok := s.outcomes.Get(req.PaymentID); ok {
		logger.Info().Str("paymentID", req.PaymentID).Msg("returning cached outcome")
		return cached, nil
	}

	if !s.registry.Known(req.ReceiverBank) {
		resp := &payment.PaymentResponse{
			Status:  payment.StatusFailed,
			Message: "unknown receiver bank: " + req.ReceiverBank,
		}
		s.outcomes.Put(req.PaymentID, resp)
		return resp, nil
	}

	// advisory funds pre-check so obviously doomed payments terminate
	// without a prepare round
	if resp, err := s.precheckFunds(ctx, session, amount); err != nil {
		return nil, err
	} else if resp != nil {
		s.outcomes.Put(req.PaymentID, resp)
		return resp, nil
	}

	outcome := s.coordinator.Transfer(ctx, &TransferRequest{
		PaymentID:       req.PaymentID,
		SenderBank:      session.Bank,
		SenderAccount:   session.AccountID,
		ReceiverBank:    req.ReceiverBank,
		ReceiverAccount: req.ReceiverAccount,
		Amount:          amount,
	})

	if outcome.Retriable {
		// not cached, the client's retry loop re-attempts with the same
		// payment id and the same derived participant ids
		logger.Warn().
			Str("paymentID", req.PaymentID).
			Str("code", outcome.Code.String()).
			Msg("payment outcome transient, not cached")
		return nil, status.Error(outcome.Code, outcome.Message)
	}

	resp := outcome.Response()
	s.outcomes.Put(req.PaymentID, resp)

	if outcome.Status == payment.StatusError {
		logger.Error().
			Str("paymentID", req.PaymentID).
			Str("transactionID", outcome.TransactionID).
			Msg("payment reached critical state")
	}

	return resp, nil
}

// precheckFunds returns a terminal failed response when the sender balance
// already cannot cover the amount, nil when the payment may proceed. The
// check is advisory, prepare re-validates at the sender bank.
func (s *Service) precheckFunds(ctx context.Context, session *Session, amount decimal.Decimal) (*payment.PaymentResponse, error) {
	bank, err := s.registry.Client(ctx, session.Bank)
	if err != nil {
		return nil, status.Error(codes.Unavailable, "sender bank unreachable")
	}

	bctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	resp, err := bank.GetBalance(bctx, &payment.BankBalanceRequest{AccountID: session.AccountID})
	if err != nil {
		return nil, status.Error(codes.Unavailable, "sender bank unreachable")
	}

	balance, err := decimal.NewFromString(resp.Balance)
	if err != nil {
		return nil, status.Error(codes.Internal, "bank returned malformed balance")
	}
	if balance.LessThan(amount) {
		return &payment.PaymentResponse{
			Status:  payment.StatusFailed,
			Message: errorutils.ErrInsufficientFunds.Error(),
		}, nil
	}
	return nil, nil
}

func sessionFromContext(ctx context.Context) (*Session, error) {
	v := ctx.Value(appctx.SessionCTXKey)
	if v == nil {
		return nil, appctx.ErrNotInContext
	}
	session, ok := v.(*Session)
	if !ok {
		return nil, appctx.ErrValueWrongType
	}
	return session, nil
}
