// Package bank implements a payment participant: it owns account balances
// and an append-only ledger, exposes the read paths the gateway proxies, and
// enforces the prepared-transaction state machine for two-phase commit.
package bank

import (
	"context"
	"crypto/subtle"
	"time"

	appctx "github.com/KeyurIITGN/Strife/libs/context"
	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	cache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	uuid "github.com/satori/go.uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	prepareVotesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prepared_votes_total",
			Help: "Number of prepare votes recorded since start.",
		},
		[]string{"vote"},
	)
	commitResultsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commit_results_total",
			Help: "Number of commit outcomes since start.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(prepareVotesCounter, commitResultsCounter)
}

// Service contains the datastore, the prepared-transaction table and the
// per-account commit locks for one bank.
type Service struct {
	name      string
	datastore Datastore
	prepared  *PreparedStore
	accounts  *accountLocks
	processed *cache.Cache
}

// InitService initializes the bank service
func InitService(ctx context.Context, name string, datastore Datastore) (*Service, error) {
	logger := logging.Logger(ctx, "bank.InitService")

	if name == "" {
		name, _ = appctx.GetStringFromContext(ctx, appctx.BankNameCTXKey)
	}

	s := &Service{
		name:      name,
		datastore: datastore,
		prepared:  NewPreparedStore(),
		accounts:  newAccountLocks(),
		processed: cache.New(24*time.Hour, time.Hour),
	}

	logger.Info().Str("bank", name).Msg("bank service initialized")
	return s, nil
}

// Name - the bank this service fronts
func (s *Service) Name() string {
	return s.name
}

// VerifyCredentials checks a username/password pair against the bank's accounts
func (s *Service) VerifyCredentials(ctx context.Context, req *payment.VerifyCredentialsRequest) (*payment.VerifyCredentialsResponse, error) {
	account, err := s.datastore.GetAccountByUsername(ctx, req.Username)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to look up account")
	}
	if account == nil {
		return &payment.VerifyCredentialsResponse{
			Valid:   false,
			Message: "invalid credentials",
		}, nil
	}

	if subtle.ConstantTimeCompare([]byte(account.Password), []byte(req.Password)) != 1 {
		return &payment.VerifyCredentialsResponse{
			Valid:   false,
			Message: "invalid credentials",
		}, nil
	}

	return &payment.VerifyCredentialsResponse{
		Valid:     true,
		AccountID: account.AccountID,
		Message:   "credentials verified",
	}, nil
}

// GetBalance returns the posted balance of an account
func (s *Service) GetBalance(ctx context.Context, req *payment.BankBalanceRequest) (*payment.BalanceResponse, error) {
	account, err := s.datastore.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to look up account")
	}
	if account == nil {
		return nil, status.Error(codes.NotFound, "account not found")
	}

	return &payment.BalanceResponse{
		Success: true,
		Balance: account.Balance.String(),
		Message: "balance retrieved",
	}, nil
}

// GetTransactionHistory lists ledger entries for an account, newest first
func (s *Service) GetTransactionHistory(ctx context.Context, req *payment.BankHistoryRequest) (*payment.HistoryResponse, error) {
	account, err := s.datastore.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to look up account")
	}
	if account == nil {
		return nil, status.Error(codes.NotFound, "account not found")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	transactions, err := s.datastore.ListTransactions(ctx, req.AccountID, limit)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list transactions")
	}

	entries := make([]*payment.LedgerEntry, 0, len(transactions))
	for _, tx := range transactions {
		entries = append(entries, &payment.LedgerEntry{
			TransactionID: tx.TransactionID,
			Kind:          tx.Kind,
			Amount:        tx.Amount.String(),
			Counterparty:  tx.Counterparty,
			Timestamp:     tx.CreatedAt.Format(payment.TimestampLayout),
			Status:        tx.Status,
		})
	}

	return &payment.HistoryResponse{
		Success:      true,
		Transactions: entries,
		Message:      "history retrieved",
	}, nil
}

// ProcessTransaction applies a direct non-2PC mutation, idempotent on payment id
func (s *Service) ProcessTransaction(ctx context.Context, req *payment.ProcessTransactionRequest) (*payment.ProcessTransactionResponse, error) {
	logger := logging.Logger(ctx, "bank.ProcessTransaction")

	if req.PaymentID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing payment id")
	}
	if !req.Kind.Valid() {
		return nil, status.Error(codes.InvalidArgument, "invalid transaction kind")
	}
	amount, err := payment.ParseAmount(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid amount")
	}

	if cached := s.lookupProcessed(ctx, req.PaymentID); cached != nil {
		return &payment.ProcessTransactionResponse{
			Success: cached.Success,
			Message: cached.Message,
		}, nil
	}

	unlock := s.accounts.lock(req.AccountID)
	defer unlock.Unlock()

	// the ledger entry id is freshly minted on the direct path, the
	// payment id keys only the processed cache
	entryID := uuid.NewV4().String()
	resp := &payment.ProcessTransactionResponse{Success: true, Message: "transaction processed"}

	err = s.datastore.ApplyTransaction(ctx, req.AccountID, req.Kind, amount, entryID, req.Counterparty)
	switch err {
	case nil:
	case errorutils.ErrAccountNotFound:
		resp = &payment.ProcessTransactionResponse{Success: false, Message: "account not found"}
	case errorutils.ErrInsufficientFunds:
		resp = &payment.ProcessTransactionResponse{Success: false, Message: "insufficient funds"}
	default:
		// transient datastore failure, do not cache so a retry can progress
		logger.Error().Err(err).Str("paymentID", req.PaymentID).Msg("direct transaction failed")
		return nil, status.Error(codes.Internal, "failed to apply transaction")
	}

	// detached from the request deadline so an applied mutation always gets
	// its outcome recorded
	s.storeProcessed(appctx.Wrap(ctx, context.Background()), &ProcessedTransaction{
		PaymentID: req.PaymentID,
		Success:   resp.Success,
		Message:   resp.Message,
		CreatedAt: time.Now().UTC(),
	})

	return resp, nil
}

func (s *Service) lookupProcessed(ctx context.Context, paymentID string) *ProcessedTransaction {
	if v, ok := s.processed.Get(paymentID); ok {
		if processed, ok := v.(*ProcessedTransaction); ok {
			return processed
		}
	}

	processed, err := s.datastore.GetProcessed(ctx, paymentID)
	if err != nil || processed == nil {
		return nil
	}
	s.processed.Set(paymentID, processed, cache.DefaultExpiration)
	return processed
}

func (s *Service) storeProcessed(ctx context.Context, processed *ProcessedTransaction) {
	logger := logging.Logger(ctx, "bank.storeProcessed")
	if err := s.datastore.PutProcessed(ctx, processed); err != nil {
		logger.Error().Err(err).Str("paymentID", processed.PaymentID).Msg("failed to persist processed outcome")
	}
	s.processed.Set(processed.PaymentID, processed, cache.DefaultExpiration)
}

// PrepareTransaction records a 2PC vote. A replay of a prepared id returns
// the stored vote verbatim; a failed guard leaves the table untouched.
func (s *Service) PrepareTransaction(ctx context.Context, req *payment.PrepareRequest) (*payment.PrepareResponse, error) {
	logger := logging.Logger(ctx, "bank.PrepareTransaction")

	if req.TransactionID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing transaction id")
	}
	if !req.Kind.Valid() {
		return nil, status.Error(codes.InvalidArgument, "invalid transaction kind")
	}
	amount, err := payment.ParseAmount(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid amount")
	}

	if existing, ok := s.prepared.Get(req.TransactionID); ok {
		return &payment.PrepareResponse{Ready: existing.Ready, Message: existing.Message}, nil
	}

	// a transaction id already in the ledger has committed, a replayed
	// prepare must not open the door to a second commit
	committed, err := s.datastore.HasLedgerEntry(ctx, req.TransactionID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to check ledger")
	}
	if committed {
		prepareVotesCounter.With(prometheus.Labels{"vote": "not-ready"}).Inc()
		return &payment.PrepareResponse{Ready: false, Message: "transaction already committed"}, nil
	}

	account, err := s.datastore.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to look up account")
	}
	if account == nil {
		prepareVotesCounter.With(prometheus.Labels{"vote": "not-ready"}).Inc()
		return &payment.PrepareResponse{Ready: false, Message: "account not found"}, nil
	}

	if req.Kind == payment.KindDebit && account.Balance.LessThan(amount) {
		prepareVotesCounter.With(prometheus.Labels{"vote": "not-ready"}).Inc()
		return &payment.PrepareResponse{Ready: false, Message: "insufficient funds"}, nil
	}

	entry, replayed := s.prepared.Put(&PreparedTransaction{
		TransactionID: req.TransactionID,
		AccountID:     req.AccountID,
		Username:      account.Username,
		Kind:          req.Kind,
		Amount:        amount,
		Counterparty:  req.Counterparty,
		PreparedAt:    time.Now().UTC(),
		Ready:         true,
		Message:       "transaction prepared",
	})
	if !replayed {
		prepareVotesCounter.With(prometheus.Labels{"vote": "ready"}).Inc()
		logger.Debug().
			Str("transactionID", req.TransactionID).
			Str("accountID", req.AccountID).
			Str("kind", string(req.Kind)).
			Msg("transaction prepared")
	}

	return &payment.PrepareResponse{Ready: entry.Ready, Message: entry.Message}, nil
}

// CommitTransaction applies a prepared transaction. An id with no prepared
// entry fails, which the coordinator surfaces as its critical error state.
func (s *Service) CommitTransaction(ctx context.Context, req *payment.CommitRequest) (*payment.CommitResponse, error) {
	logger := logging.Logger(ctx, "bank.CommitTransaction")

	prepared, ok := s.prepared.Take(req.TransactionID)
	if !ok {
		commitResultsCounter.With(prometheus.Labels{"result": "not-prepared"}).Inc()
		return &payment.CommitResponse{Success: false, Message: "transaction not prepared"}, nil
	}

	unlock := s.accounts.lock(prepared.AccountID)
	defer unlock.Unlock()

	err := s.datastore.ApplyTransaction(ctx, prepared.AccountID, prepared.Kind,
		prepared.Amount, prepared.TransactionID, prepared.Counterparty)
	switch err {
	case nil:
	case errorutils.ErrInsufficientFunds:
		// the advisory prepare-time check lost a race against another
		// commit on this account, surface the failure cleanly
		commitResultsCounter.With(prometheus.Labels{"result": "insufficient-funds"}).Inc()
		return &payment.CommitResponse{Success: false, Message: "insufficient funds"}, nil
	case errorutils.ErrAccountNotFound:
		commitResultsCounter.With(prometheus.Labels{"result": "account-missing"}).Inc()
		return &payment.CommitResponse{Success: false, Message: "account not found"}, nil
	default:
		logger.Error().Err(err).Str("transactionID", req.TransactionID).Msg("commit failed")
		return nil, status.Error(codes.Internal, "failed to apply transaction")
	}

	commitResultsCounter.With(prometheus.Labels{"result": "committed"}).Inc()
	logger.Info().
		Str("transactionID", req.TransactionID).
		Str("accountID", prepared.AccountID).
		Str("kind", string(prepared.Kind)).
		Msg("transaction committed")

	return &payment.CommitResponse{Success: true, Message: "transaction committed"}, nil
}

// AbortTransaction releases a prepared transaction. An unknown id is already
// aborted, so replays are safe.
func (s *Service) AbortTransaction(ctx context.Context, req *payment.AbortRequest) (*payment.AbortResponse, error) {
	logger := logging.Logger(ctx, "bank.AbortTransaction")

	if s.prepared.Delete(req.TransactionID) {
		logger.Info().Str("transactionID", req.TransactionID).Msg("transaction aborted")
		return &payment.AbortResponse{Success: true, Message: "transaction aborted"}, nil
	}

	return &payment.AbortResponse{Success: true, Message: "transaction not found, considered aborted"}, nil
}
