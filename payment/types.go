// Package payment defines the wire surface shared by the gateway, the banks
// and the client: message types, the msgpack codec, and hand-rolled gRPC
// client stubs and service descriptors for both services.
package payment

import (
	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a ledger mutation.
type TransactionKind string

const (
	// KindDebit - funds leave the account
	KindDebit TransactionKind = "debit"
	// KindCredit - funds enter the account
	KindCredit TransactionKind = "credit"
)

// Valid - whether the kind is one of the two ledger directions
func (k TransactionKind) Valid() bool {
	return k == KindDebit || k == KindCredit
}

// PaymentStatus is the terminal disposition of a payment reported to clients.
type PaymentStatus string

const (
	// StatusCompleted - both participants acknowledged commit
	StatusCompleted PaymentStatus = "completed"
	// StatusFailed - the transaction aborted cleanly, no balance changed
	StatusFailed PaymentStatus = "failed"
	// StatusError - the sender committed but the receiver commit was not
	// confirmed; requires operator reconciliation
	StatusError PaymentStatus = "error"
)

// TimestampLayout is the wall-clock format ledger entries carry on the wire.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseAmount parses a wire amount and enforces that it is strictly positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	return d, nil
}

// AuthRequest - gateway Authenticate input
type AuthRequest struct {
	Username string `msgpack:"username"`
	Password string `msgpack:"password"`
	BankName string `msgpack:"bank_name"`
}

// AuthResponse - gateway Authenticate output
type AuthResponse struct {
	Success bool   `msgpack:"success"`
	Token   string `msgpack:"token"`
	Message string `msgpack:"message"`
}

// BalanceRequest - gateway CheckBalance input; AccountID defaults to the
// account bound to the session token
type BalanceRequest struct {
	AccountID string `msgpack:"account_id"`
}

// BalanceResponse - balance as a decimal string
type BalanceResponse struct {
	Success bool   `msgpack:"success"`
	Balance string `msgpack:"balance"`
	Message string `msgpack:"message"`
}

// PaymentRequest - gateway ProcessPayment input. SenderAccount is "self" or
// must match the session token's account. PaymentID is the client-supplied
// idempotency key.
type PaymentRequest struct {
	SenderAccount   string `msgpack:"sender_account"`
	ReceiverAccount string `msgpack:"receiver_account"`
	ReceiverBank    string `msgpack:"receiver_bank"`
	Amount          string `msgpack:"amount"`
	PaymentID       string `msgpack:"payment_id"`
}

// PaymentResponse - gateway ProcessPayment output
type PaymentResponse struct {
	Success       bool          `msgpack:"success"`
	TransactionID string        `msgpack:"transaction_id"`
	Status        PaymentStatus `msgpack:"status"`
	Message       string        `msgpack:"message"`
}

// HistoryRequest - gateway GetTransactionHistory input
type HistoryRequest struct {
	AccountID string `msgpack:"account_id"`
	Limit     int    `msgpack:"limit"`
}

// LedgerEntry - one append-only ledger record
type LedgerEntry struct {
	TransactionID string          `msgpack:"transaction_id"`
	Kind          TransactionKind `msgpack:"kind"`
	Amount        string          `msgpack:"amount"`
	Counterparty  string          `msgpack:"counterparty"`
	Timestamp     string          `msgpack:"timestamp"`
	Status        string          `msgpack:"status"`
}

// HistoryResponse - ledger entries, newest first
type HistoryResponse struct {
	Success      bool           `msgpack:"success"`
	Transactions []*LedgerEntry `msgpack:"transactions"`
	Message      string         `msgpack:"message"`
}

// VerifyCredentialsRequest - bank VerifyCredentials input
type VerifyCredentialsRequest struct {
	Username string `msgpack:"username"`
	Password string `msgpack:"password"`
}

// VerifyCredentialsResponse - bank VerifyCredentials output
type VerifyCredentialsResponse struct {
	Valid     bool   `msgpack:"valid"`
	AccountID string `msgpack:"account_id"`
	Message   string `msgpack:"message"`
}

// BankBalanceRequest - bank GetBalance input
type BankBalanceRequest struct {
	AccountID string `msgpack:"account_id"`
}

// BankHistoryRequest - bank GetTransactionHistory input
type BankHistoryRequest struct {
	AccountID string `msgpack:"account_id"`
	Limit     int    `msgpack:"limit"`
}

// ProcessTransactionRequest - the direct single-participant path, idempotent
// on PaymentID
type ProcessTransactionRequest struct {
	AccountID    string          `msgpack:"account_id"`
	Kind         TransactionKind `msgpack:"kind"`
	Amount       string          `msgpack:"amount"`
	Counterparty string          `msgpack:"counterparty"`
	PaymentID    string          `msgpack:"payment_id"`
}

// ProcessTransactionResponse - direct path output
type ProcessTransactionResponse struct {
	Success bool   `msgpack:"success"`
	Message string `msgpack:"message"`
}

// PrepareRequest - 2PC phase one input
type PrepareRequest struct {
	TransactionID string          `msgpack:"transaction_id"`
	AccountID     string          `msgpack:"account_id"`
	Kind          TransactionKind `msgpack:"kind"`
	Amount        string          `msgpack:"amount"`
	Counterparty  string          `msgpack:"counterparty"`
}

// PrepareResponse - the participant's vote
type PrepareResponse struct {
	Ready   bool   `msgpack:"ready"`
	Message string `msgpack:"message"`
}

// CommitRequest - 2PC phase two input
type CommitRequest struct {
	TransactionID string `msgpack:"transaction_id"`
}

// CommitResponse - commit acknowledgement
type CommitResponse struct {
	Success bool   `msgpack:"success"`
	Message string `msgpack:"message"`
}

// AbortRequest - release a prepared transaction
type AbortRequest struct {
	TransactionID string `msgpack:"transaction_id"`
}

// AbortResponse - abort acknowledgement; an unknown id is a success
type AbortResponse struct {
	Success bool   `msgpack:"success"`
	Message string `msgpack:"message"`
}
