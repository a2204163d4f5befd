package bank

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/KeyurIITGN/Strife/payment"

	migrate "github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Account holds one provisioned account and its posted balance
type Account struct {
	AccountID string          `db:"account_id"`
	Username  string          `db:"username"`
	Password  string          `db:"password"`
	Balance   decimal.Decimal `db:"balance"`
}

// Transaction is one append-only ledger row
type Transaction struct {
	ID            int64                   `db:"id"`
	AccountID     string                  `db:"account_id"`
	TransactionID string                  `db:"transaction_id"`
	Kind          payment.TransactionKind `db:"kind"`
	Amount        decimal.Decimal         `db:"amount"`
	Counterparty  string                  `db:"counterparty"`
	CreatedAt     time.Time               `db:"created_at"`
	Status        string                  `db:"status"`
}

// ProcessedTransaction caches the outcome of a direct path payment id
type ProcessedTransaction struct {
	PaymentID string    `db:"payment_id"`
	Success   bool      `db:"success"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// Datastore abstracts over the underlying datastore
type Datastore interface {
	// GetAccount returns an account by id, nil when absent
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	// GetAccountByUsername returns an account by owner username, nil when absent
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
	// CreateAccount inserts a new account, reporting whether a row was created
	CreateAccount(ctx context.Context, account *Account) (bool, error)
	// ApplyTransaction mutates a balance and appends the matching ledger entry atomically
	ApplyTransaction(ctx context.Context, accountID string, kind payment.TransactionKind, amount decimal.Decimal, transactionID string, counterparty string) error
	// ListTransactions returns ledger entries for an account, newest first
	ListTransactions(ctx context.Context, accountID string, limit int) ([]Transaction, error)
	// HasLedgerEntry reports whether any ledger row carries the transaction id
	HasLedgerEntry(ctx context.Context, transactionID string) (bool, error)
	// GetProcessed returns the cached outcome for a direct path payment id, nil when absent
	GetProcessed(ctx context.Context, paymentID string) (*ProcessedTransaction, error)
	// PutProcessed stores the outcome for a direct path payment id
	PutProcessed(ctx context.Context, processed *ProcessedTransaction) error
}

// SQLite is a Datastore wrapper around a sqlite database
type SQLite struct {
	*sqlx.DB
}

// NewSQLite creates a new SQLite Datastore
func NewSQLite(databaseURL string, performMigration bool) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", databaseURL)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single pooled connection keeps
	// transactions from contending with themselves
	db.SetMaxOpenConns(1)

	ds := &SQLite{db}

	if performMigration {
		if err := ds.Migrate(); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// NewMigrate creates a Migrate instance given a SQLite instance with an active database connection
func (s *SQLite) NewMigrate() (*migrate.Migrate, error) {
	driver, err := migratesqlite.WithInstance(s.DB.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}

// Migrate the SQLite instance to the current schema
func (s *SQLite) Migrate() error {
	m, err := s.NewMigrate()
	if err != nil {
		return err
	}

	err = m.Migrate(1)
	if err != migrate.ErrNoChange && err != nil {
		return err
	}
	return nil
}

// RollbackTx - rolls back a transaction, logging instead of surfacing the error
func (s *SQLite) RollbackTx(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logger := logging.Logger(context.Background(), "bank.RollbackTx")
		logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}

// GetAccount returns an account by id, nil when absent
func (s *SQLite) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	statement := "select * from accounts where account_id = ?"
	accounts := []Account{}
	err := s.DB.SelectContext(ctx, &accounts, statement, accountID)
	if err != nil {
		return nil, err
	}

	if len(accounts) > 0 {
		return &accounts[0], nil
	}

	return nil, nil
}

// GetAccountByUsername returns an account by owner username, nil when absent
func (s *SQLite) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	statement := "select * from accounts where username = ?"
	accounts := []Account{}
	err := s.DB.SelectContext(ctx, &accounts, statement, username)
	if err != nil {
		return nil, err
	}

	if len(accounts) > 0 {
		return &accounts[0], nil
	}

	return nil, nil
}

// CreateAccount inserts a new account, reporting whether a row was created
func (s *SQLite) CreateAccount(ctx context.Context, account *Account) (bool, error) {
	statement := `
	insert into accounts (account_id, username, password, balance)
	values (?, ?, ?, ?)
	on conflict (account_id) do nothing`
	result, err := s.DB.ExecContext(ctx, statement,
		account.AccountID, account.Username, account.Password, account.Balance)
	if err != nil {
		return false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

// ApplyTransaction mutates a balance and appends the matching ledger entry atomically.
// A debit that would overdraw the account fails with ErrInsufficientFunds and
// leaves both the balance and the ledger untouched.
func (s *SQLite) ApplyTransaction(ctx context.Context, accountID string, kind payment.TransactionKind, amount decimal.Decimal, transactionID string, counterparty string) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer s.RollbackTx(tx)

	var account Account
	err = tx.GetContext(ctx, &account, "select * from accounts where account_id = ?", accountID)
	if err == sql.ErrNoRows {
		return errorutils.ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	balance := account.Balance
	if kind == payment.KindDebit {
		if balance.LessThan(amount) {
			return errorutils.ErrInsufficientFunds
		}
		balance = balance.Sub(amount)
	} else {
		balance = balance.Add(amount)
	}

	_, err = tx.ExecContext(ctx,
		"update accounts set balance = ? where account_id = ?", balance, accountID)
	if err != nil {
		return err
	}

	statement := `
	insert into transactions (account_id, transaction_id, kind, amount, counterparty, created_at, status)
	values (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, statement,
		accountID, transactionID, string(kind), amount, counterparty, time.Now().UTC(), "completed")
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListTransactions returns ledger entries for an account, newest first
func (s *SQLite) ListTransactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	statement := "select * from transactions where account_id = ? order by id desc limit ?"
	transactions := []Transaction{}
	err := s.DB.SelectContext(ctx, &transactions, statement, accountID, limit)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// HasLedgerEntry reports whether any ledger row carries the transaction id
func (s *SQLite) HasLedgerEntry(ctx context.Context, transactionID string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count,
		"select count(*) from transactions where transaction_id = ?", transactionID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProcessed returns the cached outcome for a direct path payment id, nil when absent
func (s *SQLite) GetProcessed(ctx context.Context, paymentID string) (*ProcessedTransaction, error) {
	statement := "select * from processed_transactions where payment_id = ?"
	processed := []ProcessedTransaction{}
	err := s.DB.SelectContext(ctx, &processed, statement, paymentID)
	if err != nil {
		return nil, err
	}

	if len(processed) > 0 {
		return &processed[0], nil
	}

	return nil, nil
}

// PutProcessed stores the outcome for a direct path payment id
func (s *SQLite) PutProcessed(ctx context.Context, processed *ProcessedTransaction) error {
	statement := `
	insert into processed_transactions (payment_id, success, message, created_at)
	values (?, ?, ?, ?)
	on conflict (payment_id) do nothing`
	_, err := s.DB.ExecContext(ctx, statement,
		processed.PaymentID, processed.Success, processed.Message, processed.CreatedAt)
	return err
}
