// Package client wires the interactive terminal client into the strife
// command tree.
package client

import (
	"os"
	"time"

	"github.com/KeyurIITGN/Strife/client"
	"github.com/KeyurIITGN/Strife/cmd"
	"github.com/KeyurIITGN/Strife/libs/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cmd.RootCmd.AddCommand(ClientCmd)

	flags := cmd.NewFlagBuilder(ClientCmd)
	flags.
		String("gateway-address", "localhost:50051", "the address of the payment gateway").
		Env("GATEWAY_ADDR").Bind("gateway-address").
		String("pending-dir", "data/pending_transactions", "the durable pending-payment queue directory").
		Env("PENDING_DIR").Bind("pending-dir").
		Duration("check-interval", 10*time.Second, "the connectivity supervisor tick interval").
		Env("CHECK_INTERVAL").Bind("check-interval")
}

// ClientCmd - run the interactive payment client
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "run the interactive payment client",
	Run:   cmd.Perform("client", Run),
}

// Run starts the menu loop with its connectivity supervisor.
func Run(command *cobra.Command, args []string) error {
	ctx := command.Context()
	logger := logging.Logger(ctx, "client.Run")

	creds, err := cmd.ClientCredentials()
	if err != nil {
		return err
	}

	c, err := client.New(viper.GetString("gateway-address"), creds, viper.GetString("pending-dir"))
	if err != nil {
		return err
	}
	defer c.Disconnect(ctx)

	monitor := client.NewMonitor(c, viper.GetDuration("check-interval"))
	defer monitor.Stop()

	logger.Info().Str("clientID", c.ID()).Msg("client starting")

	menu := client.NewMenu(c, monitor, os.Stdin, os.Stdout)
	menu.Run(ctx)
	return nil
}
