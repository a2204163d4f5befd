package bank

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/KeyurIITGN/Strife/payment"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
)

type DatastoreTestSuite struct {
	suite.Suite
	ds *SQLite
}

func TestDatastoreTestSuite(t *testing.T) {
	suite.Run(t, new(DatastoreTestSuite))
}

func (suite *DatastoreTestSuite) SetupTest() {
	ds, err := NewSQLite(filepath.Join(suite.T().TempDir(), "bank.db"), true)
	suite.Require().NoError(err, "setup should create the database")
	suite.ds = ds
}

func (suite *DatastoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.ds.Close())
}

func (suite *DatastoreTestSuite) seedAccount(accountID string, balance int64) *Account {
	account := &Account{
		AccountID: accountID,
		Username:  "owner-" + accountID,
		Password:  "secret",
		Balance:   decimal.NewFromInt(balance),
	}
	created, err := suite.ds.CreateAccount(context.Background(), account)
	suite.Require().NoError(err)
	suite.Require().True(created)
	return account
}

func (suite *DatastoreTestSuite) TestCreateAccountIsIdempotent() {
	account := suite.seedAccount("ACC001", 1000)

	created, err := suite.ds.CreateAccount(context.Background(), account)
	suite.Require().NoError(err)
	suite.Require().False(created, "a second insert of the same id should be a no-op")

	stored, err := suite.ds.GetAccount(context.Background(), "ACC001")
	suite.Require().NoError(err)
	suite.Require().NotNil(stored)
	suite.Assert().Equal("owner-ACC001", stored.Username)
	suite.Assert().True(stored.Balance.Equal(decimal.NewFromInt(1000)))
}

func (suite *DatastoreTestSuite) TestGetAccountAbsent() {
	account, err := suite.ds.GetAccount(context.Background(), "ACC404")
	suite.Require().NoError(err)
	suite.Assert().Nil(account)
}

func (suite *DatastoreTestSuite) TestGetAccountByUsername() {
	suite.seedAccount("ACC001", 1000)

	account, err := suite.ds.GetAccountByUsername(context.Background(), "owner-ACC001")
	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.Assert().Equal("ACC001", account.AccountID)

	account, err = suite.ds.GetAccountByUsername(context.Background(), "nobody")
	suite.Require().NoError(err)
	suite.Assert().Nil(account)
}

func (suite *DatastoreTestSuite) TestApplyTransactionCreditAndDebit() {
	suite.seedAccount("ACC001", 1000)

	txID := uuid.NewV4().String()
	err := suite.ds.ApplyTransaction(context.Background(), "ACC001", payment.KindCredit,
		decimal.NewFromInt(250), txID, "ACC002@Bank2")
	suite.Require().NoError(err)

	err = suite.ds.ApplyTransaction(context.Background(), "ACC001", payment.KindDebit,
		decimal.NewFromInt(50), uuid.NewV4().String(), "ACC002@Bank2")
	suite.Require().NoError(err)

	account, err := suite.ds.GetAccount(context.Background(), "ACC001")
	suite.Require().NoError(err)
	suite.Assert().True(account.Balance.Equal(decimal.NewFromInt(1200)),
		"expected 1000 + 250 - 50, got %s", account.Balance)

	has, err := suite.ds.HasLedgerEntry(context.Background(), txID)
	suite.Require().NoError(err)
	suite.Assert().True(has)
}

func (suite *DatastoreTestSuite) TestApplyTransactionInsufficientFunds() {
	suite.seedAccount("ACC001", 100)

	txID := uuid.NewV4().String()
	err := suite.ds.ApplyTransaction(context.Background(), "ACC001", payment.KindDebit,
		decimal.NewFromInt(500), txID, "ACC002@Bank2")
	suite.Require().Equal(errorutils.ErrInsufficientFunds, err)

	// the failed debit must leave both the balance and the ledger untouched
	account, err := suite.ds.GetAccount(context.Background(), "ACC001")
	suite.Require().NoError(err)
	suite.Assert().True(account.Balance.Equal(decimal.NewFromInt(100)))

	has, err := suite.ds.HasLedgerEntry(context.Background(), txID)
	suite.Require().NoError(err)
	suite.Assert().False(has)
}

func (suite *DatastoreTestSuite) TestApplyTransactionAccountNotFound() {
	err := suite.ds.ApplyTransaction(context.Background(), "ACC404", payment.KindCredit,
		decimal.NewFromInt(10), uuid.NewV4().String(), "ACC001@Bank1")
	suite.Require().Equal(errorutils.ErrAccountNotFound, err)
}

func (suite *DatastoreTestSuite) TestListTransactionsNewestFirst() {
	suite.seedAccount("ACC001", 1000)

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewV4().String()
		err := suite.ds.ApplyTransaction(context.Background(), "ACC001", payment.KindCredit,
			decimal.NewFromInt(int64(i+1)), ids[i], "ACC002@Bank2")
		suite.Require().NoError(err)
	}

	transactions, err := suite.ds.ListTransactions(context.Background(), "ACC001", 2)
	suite.Require().NoError(err)
	suite.Require().Len(transactions, 2)
	suite.Assert().Equal(ids[2], transactions[0].TransactionID)
	suite.Assert().Equal(ids[1], transactions[1].TransactionID)

	transactions, err = suite.ds.ListTransactions(context.Background(), "ACC001", 10)
	suite.Require().NoError(err)
	suite.Assert().Len(transactions, 3)
}

func (suite *DatastoreTestSuite) TestProcessedOutcomeRoundTrip() {
	processed, err := suite.ds.GetProcessed(context.Background(), "p-1")
	suite.Require().NoError(err)
	suite.Require().Nil(processed)

	err = suite.ds.PutProcessed(context.Background(), &ProcessedTransaction{
		PaymentID: "p-1",
		Success:   false,
		Message:   "insufficient funds",
		CreatedAt: time.Now().UTC(),
	})
	suite.Require().NoError(err)

	// the first outcome wins over any replayed write
	err = suite.ds.PutProcessed(context.Background(), &ProcessedTransaction{
		PaymentID: "p-1",
		Success:   true,
		Message:   "transaction processed",
		CreatedAt: time.Now().UTC(),
	})
	suite.Require().NoError(err)

	processed, err = suite.ds.GetProcessed(context.Background(), "p-1")
	suite.Require().NoError(err)
	suite.Require().NotNil(processed)
	suite.Assert().False(processed.Success)
	suite.Assert().Equal("insufficient funds", processed.Message)
}
