// main - main entry-point to strife commands through cobra
// individual commands are outlined in ./cmd/
package main

import (
	"github.com/KeyurIITGN/Strife/cmd"
	"github.com/KeyurIITGN/Strife/libs/logging"

	// pull in the service commands, setup code is in init
	_ "github.com/KeyurIITGN/Strife/cmd/bank"
	_ "github.com/KeyurIITGN/Strife/cmd/client"
	_ "github.com/KeyurIITGN/Strife/cmd/gateway"
)

var (
	// variables will be overwritten at build time
	version   string
	commit    string
	buildTime string
)

func main() {
	defer func() {
		if logging.Writer != nil {
			logging.Writer.Close()
		}
	}()
	cmd.Execute(version, commit, buildTime)
}
