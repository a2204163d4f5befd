package cmd

import (
	"github.com/KeyurIITGN/Strife/libs/pki"

	"github.com/spf13/viper"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func init() {
	RootCmd.PersistentFlags().String("tls-cert", "certificate/server.cert",
		"the peer certificate file")
	Must(viper.BindPFlag("tls-cert", RootCmd.PersistentFlags().Lookup("tls-cert")))
	Must(viper.BindEnv("tls-cert", "TLS_CERT"))

	RootCmd.PersistentFlags().String("tls-key", "certificate/server.key",
		"the peer certificate key file")
	Must(viper.BindPFlag("tls-key", RootCmd.PersistentFlags().Lookup("tls-key")))
	Must(viper.BindEnv("tls-key", "TLS_KEY"))

	RootCmd.PersistentFlags().String("tls-ca", "certificate/ca.cert",
		"the shared ca certificate file")
	Must(viper.BindPFlag("tls-ca", RootCmd.PersistentFlags().Lookup("tls-ca")))
	Must(viper.BindEnv("tls-ca", "TLS_CA"))

	RootCmd.PersistentFlags().Bool("tls-disabled", false,
		"disable mutual tls (local bring-up only)")
	Must(viper.BindPFlag("tls-disabled", RootCmd.PersistentFlags().Lookup("tls-disabled")))
	Must(viper.BindEnv("tls-disabled", "TLS_DISABLED"))
}

// TLSConfigFromViper builds the pki config from the shared tls flags.
func TLSConfigFromViper() pki.Config {
	return pki.Config{
		CertFile: viper.GetString("tls-cert"),
		KeyFile:  viper.GetString("tls-key"),
		CAFile:   viper.GetString("tls-ca"),
	}
}

// ServerCredentials - mutual TLS server credentials, or insecure when
// tls-disabled is set (tests and local bring-up only)
func ServerCredentials() (credentials.TransportCredentials, error) {
	if viper.GetBool("tls-disabled") {
		return insecure.NewCredentials(), nil
	}
	return TLSConfigFromViper().ServerCredentials()
}

// ClientCredentials - mutual TLS client credentials, or insecure when
// tls-disabled is set
func ClientCredentials() (credentials.TransportCredentials, error) {
	if viper.GetBool("tls-disabled") {
		return insecure.NewCredentials(), nil
	}
	return TLSConfigFromViper().ClientCredentials()
}

