package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	"github.com/prometheus/client_golang/prometheus"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transactionNamespace seeds uuid v5 derivation so the global transaction id
// is stable under retries of the same payment id.
var transactionNamespace = uuid.NewV5(uuid.NamespaceDNS, "transactions.strife")

// safetyMargin is the budget left unspent before entering the next phase.
const safetyMargin = time.Second

var paymentOutcomeCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "strife_payments_total",
		Help: "Number of coordinated payments by terminal status.",
	},
	[]string{"status", "retriable"},
)

func init() {
	prometheus.MustRegister(paymentOutcomeCounter)
}

// TransferRequest names the two participants of one payment.
type TransferRequest struct {
	PaymentID       string
	SenderBank      string
	SenderAccount   string
	ReceiverBank    string
	ReceiverAccount string
	Amount          decimal.Decimal
}

// Outcome is the coordinator's decision for one payment. Retriable outcomes
// carry the grpc code the gateway surfaces so the client keeps the payment
// queued; everything else is terminal and cacheable.
type Outcome struct {
	Success       bool
	TransactionID string
	Status        payment.PaymentStatus
	Message       string
	Retriable     bool
	Code          codes.Code
}

// Response renders the outcome in its client-facing wire form.
func (o *Outcome) Response() *payment.PaymentResponse {
	return &payment.PaymentResponse{
		Success:       o.Success,
		TransactionID: o.TransactionID,
		Status:        o.Status,
		Message:       o.Message,
	}
}

func completedOutcome(transactionID, message string) *Outcome {
	return &Outcome{
		Success:       true,
		TransactionID: transactionID,
		Status:        payment.StatusCompleted,
		Message:       message,
	}
}

func failedOutcome(message string) *Outcome {
	return &Outcome{Status: payment.StatusFailed, Message: message}
}

func retriableOutcome(code codes.Code, message string) *Outcome {
	return &Outcome{
		Status:    payment.StatusFailed,
		Message:   message,
		Retriable: true,
		Code:      code,
	}
}

// criticalOutcome is the distinguished inconsistent state: the sender has
// durably committed but the receiver's commit was not confirmed. It is
// terminal so a retry cannot debit the sender a second time.
func criticalOutcome(transactionID, message string) *Outcome {
	return &Outcome{
		TransactionID: transactionID,
		Status:        payment.StatusError,
		Message:       message + "; operator reconciliation required",
	}
}

// Coordinator drives two bank participants through prepare and commit such
// that both balances change together or neither does.
type Coordinator struct {
	registry      Registry
	commitTimeout time.Duration
	abortTimeout  time.Duration
}

// NewCoordinator - a coordinator over the bank registry with per-phase and
// abort deadlines
func NewCoordinator(registry Registry, commitTimeout, abortTimeout time.Duration) *Coordinator {
	return &Coordinator{
		registry:      registry,
		commitTimeout: commitTimeout,
		abortTimeout:  abortTimeout,
	}
}

// Transfer runs one payment through two-phase commit.
func (c *Coordinator) Transfer(ctx context.Context, req *TransferRequest) *Outcome {
	outcome := c.transfer(ctx, req)
	paymentOutcomeCounter.With(prometheus.Labels{
		"status":    string(outcome.Status),
		"retriable": fmt.Sprintf("%t", outcome.Retriable),
	}).Inc()
	return outcome
}

func (c *Coordinator) transfer(ctx context.Context, req *TransferRequest) *Outcome {
	logger := logging.Logger(ctx, "gateway.Coordinator")

	// stable under retries of the same payment id, which keeps bank-side
	// prepare idempotent across replays
	globalID := uuid.NewV5(transactionNamespace, req.PaymentID)
	logging.AddTransactionIDToContext(ctx, globalID)
	global := globalID.String()

	if req.SenderBank == req.ReceiverBank && req.SenderAccount == req.ReceiverAccount {
		return completedOutcome(global, "self transfer completed")
	}

	senderTxID := fmt.Sprintf("%s-sender-%s", global, req.PaymentID)
	receiverTxID := fmt.Sprintf("%s-receiver-%s", global, req.PaymentID)
	amount := req.Amount.String()

	sender, err := c.registry.Client(ctx, req.SenderBank)
	if err != nil {
		return retriableOutcome(codes.Unavailable, "sender bank unreachable")
	}
	receiver, err := c.registry.Client(ctx, req.ReceiverBank)
	if err != nil {
		return retriableOutcome(codes.Unavailable, "receiver bank unreachable")
	}

	deadline := time.Now().Add(c.commitTimeout)
	pctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	vote, err := sender.PrepareTransaction(pctx, &payment.PrepareRequest{
		TransactionID: senderTxID,
		AccountID:     req.SenderAccount,
		Kind:          payment.KindDebit,
		Amount:        amount,
		Counterparty:  counterparty(req.ReceiverAccount, req.ReceiverBank),
	})
	if err != nil {
		// the sender may not have accepted prepare, nothing to abort
		c.noteTransportFailure(req.SenderBank, err)
		return c.retriableFromError(err, "sender prepare failed")
	}
	if !vote.Ready {
		return failedOutcome(vote.Message)
	}

	if time.Now().After(deadline.Add(-safetyMargin)) {
		c.abort(ctx, sender, senderTxID)
		return retriableOutcome(codes.DeadlineExceeded, "phase budget exhausted after sender prepare")
	}

	vote, err = receiver.PrepareTransaction(pctx, &payment.PrepareRequest{
		TransactionID: receiverTxID,
		AccountID:     req.ReceiverAccount,
		Kind:          payment.KindCredit,
		Amount:        amount,
		Counterparty:  counterparty(req.SenderAccount, req.SenderBank),
	})
	if err != nil {
		c.noteTransportFailure(req.ReceiverBank, err)
		c.abort(ctx, sender, senderTxID)
		return c.retriableFromError(err, "receiver prepare failed")
	}
	if !vote.Ready {
		c.abort(ctx, sender, senderTxID)
		return failedOutcome(vote.Message)
	}

	if time.Now().After(deadline.Add(-safetyMargin)) {
		c.abort(ctx, sender, senderTxID)
		c.abort(ctx, receiver, receiverTxID)
		return retriableOutcome(codes.DeadlineExceeded, "phase budget exhausted after receiver prepare")
	}

	commitDeadline := time.Now().Add(c.commitTimeout)
	cctx, cancelCommit := context.WithDeadline(ctx, commitDeadline)
	defer cancelCommit()

	ack, err := sender.CommitTransaction(cctx, &payment.CommitRequest{TransactionID: senderTxID})
	if err != nil {
		// the sender's state is ambiguous but the receiver is still
		// prepared; aborting both is safe, and a replayed prepare votes
		// NO at the sender if its commit did land
		c.noteTransportFailure(req.SenderBank, err)
		c.abort(ctx, sender, senderTxID)
		c.abort(ctx, receiver, receiverTxID)
		return failedOutcome("sender commit unconfirmed, transaction aborted")
	}
	if !ack.Success {
		c.abort(ctx, receiver, receiverTxID)
		return failedOutcome("sender commit rejected: " + ack.Message)
	}

	if time.Now().After(commitDeadline.Add(-safetyMargin)) {
		// the sender has durably committed, the receiver has not
		logger.Error().
			Str("transactionID", global).
			Msg("commit budget exhausted between sender and receiver commit")
		return criticalOutcome(global, "sender committed but receiver commit not attempted")
	}

	rctx, cancelReceiver := context.WithTimeout(ctx, c.commitTimeout)
	defer cancelReceiver()

	ack, err = receiver.CommitTransaction(rctx, &payment.CommitRequest{TransactionID: receiverTxID})
	if err != nil {
		// the receiver's commit may have taken effect, aborting either
		// side now could lose money
		c.noteTransportFailure(req.ReceiverBank, err)
		logger.Error().Err(err).
			Str("transactionID", global).
			Msg("receiver commit unconfirmed after sender commit")
		return criticalOutcome(global, "sender committed but receiver commit unconfirmed")
	}
	if !ack.Success {
		logger.Error().
			Str("transactionID", global).
			Str("bankMessage", ack.Message).
			Msg("receiver commit rejected after sender commit")
		return criticalOutcome(global, "sender committed but receiver commit rejected: "+ack.Message)
	}

	logger.Info().
		Str("transactionID", global).
		Str("paymentID", req.PaymentID).
		Msg("payment committed on both participants")

	return completedOutcome(global, "payment completed")
}

// abort releases a prepared transaction with a short fixed deadline. Abort
// failures are logged only, never promoted over an existing terminal
// outcome; an unknown id succeeds at the bank so replays are safe.
func (c *Coordinator) abort(ctx context.Context, client payment.BankServiceClient, transactionID string) {
	actx, cancel := context.WithTimeout(ctx, c.abortTimeout)
	defer cancel()

	if _, err := client.AbortTransaction(actx, &payment.AbortRequest{TransactionID: transactionID}); err != nil {
		logger := logging.Logger(ctx, "gateway.Coordinator")
		logger.Warn().Err(err).Str("transactionID", transactionID).Msg("abort failed")
	}
}

func (c *Coordinator) retriableFromError(err error, message string) *Outcome {
	code := status.Code(err)
	if code != codes.DeadlineExceeded {
		code = codes.Unavailable
	}
	return retriableOutcome(code, message+": "+err.Error())
}

// noteTransportFailure drops the cached connection so the next attempt
// redials instead of reusing a dead channel.
func (c *Coordinator) noteTransportFailure(bank string, err error) {
	if status.Code(err) == codes.Unavailable {
		c.registry.Invalidate(bank)
	}
}

func counterparty(accountID, bank string) string {
	return accountID + "@" + bank
}
