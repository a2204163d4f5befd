package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	RootCmd.AddCommand(ServeCmd)

	ServeCmd.PersistentFlags().String("address", ":50051",
		"the address this service binds to")
	Must(viper.BindPFlag("address", ServeCmd.PersistentFlags().Lookup("address")))
	Must(viper.BindEnv("address", "ADDR"))

	ServeCmd.PersistentFlags().String("ops-address", ":9090",
		"the address of the operational http listener")
	Must(viper.BindPFlag("ops-address", ServeCmd.PersistentFlags().Lookup("ops-address")))
	Must(viper.BindEnv("ops-address", "OPS_ADDR"))
}

// ServeCmd - the entrypoint to serve one of the strife services
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "entrypoint to serve a strife service",
}
