package bank

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/KeyurIITGN/Strife/payment"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ServiceTestSuite struct {
	suite.Suite
	ds      *SQLite
	service *Service
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (suite *ServiceTestSuite) SetupTest() {
	ds, err := NewSQLite(filepath.Join(suite.T().TempDir(), "bank.db"), true)
	suite.Require().NoError(err)
	suite.ds = ds

	suite.Require().NoError(Provision(context.Background(), ds, "Bank1"))

	service, err := InitService(context.Background(), "Bank1", ds)
	suite.Require().NoError(err)
	suite.service = service
}

func (suite *ServiceTestSuite) TearDownTest() {
	suite.Require().NoError(suite.ds.Close())
}

func (suite *ServiceTestSuite) balance(accountID string) decimal.Decimal {
	account, err := suite.ds.GetAccount(context.Background(), accountID)
	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	return account.Balance
}

func (suite *ServiceTestSuite) prepare(txID, accountID string, kind payment.TransactionKind, amount string) *payment.PrepareResponse {
	resp, err := suite.service.PrepareTransaction(context.Background(), &payment.PrepareRequest{
		TransactionID: txID,
		AccountID:     accountID,
		Kind:          kind,
		Amount:        amount,
		Counterparty:  "ACC001@Bank2",
	})
	suite.Require().NoError(err)
	return resp
}

func (suite *ServiceTestSuite) TestVerifyCredentials() {
	resp, err := suite.service.VerifyCredentials(context.Background(), &payment.VerifyCredentialsRequest{
		Username: "user1",
		Password: "pass1",
	})
	suite.Require().NoError(err)
	suite.Assert().True(resp.Valid)
	suite.Assert().Equal("ACC001", resp.AccountID)

	resp, err = suite.service.VerifyCredentials(context.Background(), &payment.VerifyCredentialsRequest{
		Username: "user1",
		Password: "wrong",
	})
	suite.Require().NoError(err)
	suite.Assert().False(resp.Valid)

	resp, err = suite.service.VerifyCredentials(context.Background(), &payment.VerifyCredentialsRequest{
		Username: "nobody",
		Password: "pass1",
	})
	suite.Require().NoError(err)
	suite.Assert().False(resp.Valid)
}

func (suite *ServiceTestSuite) TestGetBalance() {
	resp, err := suite.service.GetBalance(context.Background(), &payment.BankBalanceRequest{AccountID: "ACC002"})
	suite.Require().NoError(err)
	suite.Assert().True(resp.Success)
	suite.Assert().Equal("2000", resp.Balance)

	_, err = suite.service.GetBalance(context.Background(), &payment.BankBalanceRequest{AccountID: "ACC404"})
	suite.Require().Equal(codes.NotFound, status.Code(err))
}

func (suite *ServiceTestSuite) TestPrepareVotesReady() {
	resp := suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")
	suite.Assert().True(resp.Ready)
	suite.Assert().Equal(1, suite.service.prepared.Len())

	// prepare must not move money
	suite.Assert().True(suite.balance("ACC001").Equal(decimal.NewFromInt(1000)))
}

func (suite *ServiceTestSuite) TestPrepareVotesNotReady() {
	resp := suite.prepare("tx-1", "ACC001", payment.KindDebit, "5000")
	suite.Assert().False(resp.Ready)
	suite.Assert().Equal("insufficient funds", resp.Message)

	resp = suite.prepare("tx-2", "ACC404", payment.KindDebit, "10")
	suite.Assert().False(resp.Ready)
	suite.Assert().Equal("account not found", resp.Message)

	// failed guards leave nothing behind to commit
	suite.Assert().Equal(0, suite.service.prepared.Len())
}

func (suite *ServiceTestSuite) TestPrepareIsIdempotent() {
	first := suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")
	second := suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")

	suite.Assert().Equal(first, second)
	suite.Assert().Equal(1, suite.service.prepared.Len())
}

func (suite *ServiceTestSuite) TestPrepareRejectsCommittedTransaction() {
	suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")

	commitResp, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Require().True(commitResp.Success)

	// a replayed prepare of a committed id must not reopen the commit door
	resp := suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")
	suite.Assert().False(resp.Ready)
	suite.Assert().Equal("transaction already committed", resp.Message)
}

func (suite *ServiceTestSuite) TestPrepareValidatesInput() {
	_, err := suite.service.PrepareTransaction(context.Background(), &payment.PrepareRequest{
		AccountID: "ACC001", Kind: payment.KindDebit, Amount: "10",
	})
	suite.Assert().Equal(codes.InvalidArgument, status.Code(err))

	_, err = suite.service.PrepareTransaction(context.Background(), &payment.PrepareRequest{
		TransactionID: "tx-1", AccountID: "ACC001", Kind: "transfer", Amount: "10",
	})
	suite.Assert().Equal(codes.InvalidArgument, status.Code(err))

	_, err = suite.service.PrepareTransaction(context.Background(), &payment.PrepareRequest{
		TransactionID: "tx-1", AccountID: "ACC001", Kind: payment.KindDebit, Amount: "-10",
	})
	suite.Assert().Equal(codes.InvalidArgument, status.Code(err))
}

func (suite *ServiceTestSuite) TestCommitAppliesPreparedDebit() {
	suite.prepare("tx-1", "ACC001", payment.KindDebit, "400")

	resp, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Assert().True(resp.Success)
	suite.Assert().True(suite.balance("ACC001").Equal(decimal.NewFromInt(600)))

	has, err := suite.ds.HasLedgerEntry(context.Background(), "tx-1")
	suite.Require().NoError(err)
	suite.Assert().True(has)
	suite.Assert().Equal(0, suite.service.prepared.Len())
}

func (suite *ServiceTestSuite) TestCommitUnknownTransaction() {
	resp, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-404"})
	suite.Require().NoError(err)
	suite.Assert().False(resp.Success)
	suite.Assert().Equal("transaction not prepared", resp.Message)
}

func (suite *ServiceTestSuite) TestDoubleCommitAppliesOnce() {
	suite.prepare("tx-1", "ACC001", payment.KindCredit, "100")

	first, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Require().True(first.Success)

	second, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Assert().False(second.Success)

	suite.Assert().True(suite.balance("ACC001").Equal(decimal.NewFromInt(1100)))
}

func (suite *ServiceTestSuite) TestCommitLosesRaceToInsufficientFunds() {
	// two prepared debits both pass the advisory balance check; the second
	// commit finds the funds gone and must fail cleanly
	suite.prepare("tx-1", "ACC001", payment.KindDebit, "800")
	suite.prepare("tx-2", "ACC001", payment.KindDebit, "800")

	first, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Require().True(first.Success)

	second, err := suite.service.CommitTransaction(context.Background(), &payment.CommitRequest{TransactionID: "tx-2"})
	suite.Require().NoError(err)
	suite.Assert().False(second.Success)
	suite.Assert().Equal("insufficient funds", second.Message)

	suite.Assert().True(suite.balance("ACC001").Equal(decimal.NewFromInt(200)))
}

func (suite *ServiceTestSuite) TestAbortReleasesPreparedTransaction() {
	suite.prepare("tx-1", "ACC001", payment.KindDebit, "500")

	resp, err := suite.service.AbortTransaction(context.Background(), &payment.AbortRequest{TransactionID: "tx-1"})
	suite.Require().NoError(err)
	suite.Assert().True(resp.Success)
	suite.Assert().Equal(0, suite.service.prepared.Len())

	// the released funds are committable again
	prepared := suite.prepare("tx-2", "ACC001", payment.KindDebit, "1000")
	suite.Assert().True(prepared.Ready)
}

func (suite *ServiceTestSuite) TestAbortUnknownTransactionSucceeds() {
	resp, err := suite.service.AbortTransaction(context.Background(), &payment.AbortRequest{TransactionID: "tx-404"})
	suite.Require().NoError(err)
	suite.Assert().True(resp.Success)
}

func (suite *ServiceTestSuite) TestProcessTransactionIsIdempotent() {
	req := &payment.ProcessTransactionRequest{
		AccountID:    "ACC001",
		Kind:         payment.KindCredit,
		Amount:       "100",
		Counterparty: "ACC002@Bank2",
		PaymentID:    uuid.NewV4().String(),
	}

	first, err := suite.service.ProcessTransaction(context.Background(), req)
	suite.Require().NoError(err)
	suite.Require().True(first.Success)

	second, err := suite.service.ProcessTransaction(context.Background(), req)
	suite.Require().NoError(err)
	suite.Assert().Equal(first, second)

	suite.Assert().True(suite.balance("ACC001").Equal(decimal.NewFromInt(1100)))
}

func (suite *ServiceTestSuite) TestProcessTransactionCachesFailures() {
	req := &payment.ProcessTransactionRequest{
		AccountID:    "ACC001",
		Kind:         payment.KindDebit,
		Amount:       "9999",
		Counterparty: "ACC002@Bank2",
		PaymentID:    uuid.NewV4().String(),
	}

	first, err := suite.service.ProcessTransaction(context.Background(), req)
	suite.Require().NoError(err)
	suite.Assert().False(first.Success)
	suite.Assert().Equal("insufficient funds", first.Message)

	// the cached outcome replays even though the balance could now cover it
	req.Amount = "10"
	second, err := suite.service.ProcessTransaction(context.Background(), req)
	suite.Require().NoError(err)
	suite.Assert().False(second.Success)
	suite.Assert().Equal("insufficient funds", second.Message)
}

func (suite *ServiceTestSuite) TestGetTransactionHistory() {
	req := &payment.ProcessTransactionRequest{
		AccountID:    "ACC001",
		Kind:         payment.KindDebit,
		Amount:       "25",
		Counterparty: "ACC002@Bank2",
		PaymentID:    uuid.NewV4().String(),
	}
	_, err := suite.service.ProcessTransaction(context.Background(), req)
	suite.Require().NoError(err)

	resp, err := suite.service.GetTransactionHistory(context.Background(), &payment.BankHistoryRequest{
		AccountID: "ACC001",
		Limit:     10,
	})
	suite.Require().NoError(err)
	suite.Require().True(resp.Success)
	// the provisioning credit plus the debit above, newest first
	suite.Require().Len(resp.Transactions, 2)
	suite.Assert().Equal(payment.KindDebit, resp.Transactions[0].Kind)
	suite.Assert().Equal("25", resp.Transactions[0].Amount)
	suite.Assert().Equal(payment.KindCredit, resp.Transactions[1].Kind)

	_, err = suite.service.GetTransactionHistory(context.Background(), &payment.BankHistoryRequest{AccountID: "ACC404"})
	suite.Assert().Equal(codes.NotFound, status.Code(err))
}
