// Package gateway wires the payment gateway coordinator into the strife
// command tree.
package gateway

import (
	"context"
	"time"

	"github.com/KeyurIITGN/Strife/cmd"
	appctx "github.com/KeyurIITGN/Strife/libs/context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cmd.ServeCmd.AddCommand(GatewayCmd)
	GatewayCmd.AddCommand(GRPCCmd)

	flags := cmd.NewFlagBuilder(GRPCCmd)
	flags.
		String("banks", "Bank1=localhost:50052,Bank2=localhost:50053",
			"the static bank routing table as name=address pairs").
		Env("BANKS").Bind("banks").
		Duration("tpc-timeout", 10*time.Second, "the per-phase two-phase-commit deadline").
		Env("TPC_TIMEOUT").Bind("tpc-timeout").
		Duration("abort-timeout", 2*time.Second, "the abort call deadline").
		Env("ABORT_TIMEOUT").Bind("abort-timeout").
		Duration("token-ttl", time.Hour, "the session token lifetime").
		Env("TOKEN_TTL").Bind("token-ttl")
}

var (
	// GatewayCmd - the gateway service command
	GatewayCmd = &cobra.Command{
		Use:   "gateway",
		Short: "provides the payment gateway coordinator",
	}

	// GRPCCmd - run the gateway grpc service
	GRPCCmd = &cobra.Command{
		Use:   "grpc",
		Short: "run the gateway grpc service",
		Run:   cmd.Perform("gateway grpc", RunGRPC),
	}
)

// RunGRPC - moves the run configuration onto the context and starts the service
func RunGRPC(command *cobra.Command, args []string) error {
	ctx := command.Context()

	ctx = context.WithValue(ctx, appctx.SrvAddrCTXKey, viper.GetString("address"))
	ctx = context.WithValue(ctx, appctx.OpsAddrCTXKey, viper.GetString("ops-address"))
	ctx = context.WithValue(ctx, appctx.BankAddressesCTXKey, viper.GetString("banks"))
	ctx = context.WithValue(ctx, appctx.DataDirCTXKey, viper.GetString("data-dir"))
	ctx = context.WithValue(ctx, appctx.CommitTimeoutCTXKey, viper.GetDuration("tpc-timeout"))
	ctx = context.WithValue(ctx, appctx.AbortTimeoutCTXKey, viper.GetDuration("abort-timeout"))
	ctx = context.WithValue(ctx, appctx.TokenTTLCTXKey, viper.GetDuration("token-ttl"))

	return GRPCRun(ctx)
}
