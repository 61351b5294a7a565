package cmd

import (
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	target string
	addr   uint16
	bus    string
}

// newRootCmd builds a fresh command tree. Tests build their own so flag state
// never leaks between cases.
func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "facectl",
		Short: "Send commands to the face units over I2C",
		Long: `facectl encodes face commands and writes them to one unit on the I2C bus.

Every command is a single byte. The unit is picked by name with --target
(left, right, mouth, sensors) or by address with --addr, which wins when both
are set. The bus defaults to the first one periph finds.`,
		SilenceUsage: true,
		Version:      "0.3.0",
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.target, "target", "t", "left", "unit to address: left, right, mouth or sensors")
	flags.Uint16VarP(&opts.addr, "addr", "a", 0, "7-bit target address, overrides --target")
	flags.StringVarP(&opts.bus, "bus", "b", "", "I2C bus name or number (default: first bus)")

	root.AddCommand(
		newLEDCmd(opts),
		newLCDCmd(opts),
		newServoCmd(opts),
		newSensorCmd(opts),
		newRawCmd(opts),
		newLogsCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
