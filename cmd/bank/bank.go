// Package bank wires the bank participant service and its provisioning
// command into the strife command tree.
package bank

import (
	"context"
	"path/filepath"

	"github.com/KeyurIITGN/Strife/bank"
	"github.com/KeyurIITGN/Strife/cmd"
	"github.com/KeyurIITGN/Strife/libs/closers"
	appctx "github.com/KeyurIITGN/Strife/libs/context"
	"github.com/KeyurIITGN/Strife/libs/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cmd.RootCmd.AddCommand(BankCmd)
	BankCmd.AddCommand(ProvisionCmd)

	cmd.ServeCmd.AddCommand(ServeBankCmd)
	ServeBankCmd.AddCommand(GRPCCmd)

	// bank-name is read through cobra rather than viper, two commands
	// carry the flag and a shared viper key would cross-bind them
	flags := cmd.NewFlagBuilder(GRPCCmd).AddCommand(ProvisionCmd)
	flags.
		String("bank-name", "", "the name of the bank this command operates on").
		Require()
}

var (
	// BankCmd - bank management commands
	BankCmd = &cobra.Command{
		Use:   "bank",
		Short: "bank provisioning and management",
	}

	// ProvisionCmd - seed a bank database with the sample account set
	ProvisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "seed a bank database with the sample account set",
		Run:   cmd.Perform("bank provision", RunProvision),
	}

	// ServeBankCmd - the bank service command
	ServeBankCmd = &cobra.Command{
		Use:   "bank",
		Short: "provides a bank participant service",
	}

	// GRPCCmd - run the bank grpc service
	GRPCCmd = &cobra.Command{
		Use:   "grpc",
		Short: "run the bank grpc service",
		Run:   cmd.Perform("bank grpc", RunGRPC),
	}
)

// DatabasePath - the bank-scoped sqlite database location
func DatabasePath(dataDir, bankName string) string {
	return filepath.Join(dataDir, bankName+".db")
}

// RunProvision seeds the named bank's database.
func RunProvision(command *cobra.Command, args []string) error {
	ctx := command.Context()
	logger := logging.Logger(ctx, "bank.RunProvision")

	bankName, err := command.Flags().GetString("bank-name")
	if err != nil {
		return err
	}
	datastore, err := bank.NewSQLite(DatabasePath(viper.GetString("data-dir"), bankName), true)
	if err != nil {
		return err
	}
	defer closers.Log(ctx, datastore)

	if err := bank.Provision(ctx, datastore, bankName); err != nil {
		return err
	}

	logger.Info().Str("bank", bankName).Msg("bank provisioned")
	return nil
}

// RunGRPC - moves the run configuration onto the context and starts the service
func RunGRPC(command *cobra.Command, args []string) error {
	ctx := command.Context()

	bankName, err := command.Flags().GetString("bank-name")
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, appctx.BankNameCTXKey, bankName)
	ctx = context.WithValue(ctx, appctx.SrvAddrCTXKey, viper.GetString("address"))
	ctx = context.WithValue(ctx, appctx.OpsAddrCTXKey, viper.GetString("ops-address"))
	ctx = context.WithValue(ctx, appctx.DataDirCTXKey, viper.GetString("data-dir"))

	return GRPCRun(ctx)
}
