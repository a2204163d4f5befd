package bank

import (
	"context"
	"fmt"

	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// sampleAccountCount - accounts seeded per bank: user1..user5 with balances
// 1000..5000
const sampleAccountCount = 5

// Provision seeds the bank with its sample account set. Each account starts
// from zero and receives its opening balance as a credit so the ledger and
// the balance agree from the first entry. Re-provisioning an existing
// account is a no-op.
func Provision(ctx context.Context, datastore Datastore, bankName string) error {
	logger := logging.Logger(ctx, "bank.Provision")

	for i := 1; i <= sampleAccountCount; i++ {
		account := &Account{
			AccountID: fmt.Sprintf("ACC%03d", i),
			Username:  fmt.Sprintf("user%d", i),
			Password:  fmt.Sprintf("pass%d", i),
			Balance:   decimal.Zero,
		}

		created, err := datastore.CreateAccount(ctx, account)
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		deposit := decimal.NewFromInt(int64(1000 * i))
		err = datastore.ApplyTransaction(ctx, account.AccountID, payment.KindCredit,
			deposit, uuid.NewV4().String(), bankName)
		if err != nil {
			return err
		}

		logger.Info().
			Str("accountID", account.AccountID).
			Str("balance", deposit.String()).
			Msg("account provisioned")
	}

	return nil
}
