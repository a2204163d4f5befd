package payment

import "errors"

// TokenMetadataKey is the request metadata key carrying the session token.
const TokenMetadataKey = "token"

// Service names as they appear in RPC paths.
const (
	GatewayServiceName = "payment.PaymentGateway"
	BankServiceName    = "payment.BankService"
)

// Full method names, used by interceptors and client stubs.
const (
	GatewayAuthenticateMethod   = "/payment.PaymentGateway/Authenticate"
	GatewayCheckBalanceMethod   = "/payment.PaymentGateway/CheckBalance"
	GatewayProcessPaymentMethod = "/payment.PaymentGateway/ProcessPayment"
	GatewayHistoryMethod        = "/payment.PaymentGateway/GetTransactionHistory"

	BankVerifyCredentialsMethod  = "/payment.BankService/VerifyCredentials"
	BankGetBalanceMethod         = "/payment.BankService/GetBalance"
	BankHistoryMethod            = "/payment.BankService/GetTransactionHistory"
	BankProcessTransactionMethod = "/payment.BankService/ProcessTransaction"
	BankPrepareMethod            = "/payment.BankService/PrepareTransaction"
	BankCommitMethod             = "/payment.BankService/CommitTransaction"
	BankAbortMethod              = "/payment.BankService/AbortTransaction"
)

var (
	// ErrNonPositiveAmount - wire amounts must be strictly positive
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)
