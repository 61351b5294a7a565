package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harveysanders/picoface/faceboard/command"
)

var ledModes = map[string]command.Command{
	"on":        command.LEDOn,
	"off":       command.LEDOff,
	"heartbeat": command.LEDHeartbeat,
}

func newLEDCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "led on|off|heartbeat",
		Short:     "Set the status LED",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "heartbeat"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := ledModes[args[0]]
			if !ok {
				return fmt.Errorf("unknown LED mode %q", args[0])
			}
			return withController(opts, func(ctl *Controller) error {
				return ctl.Send(c)
			})
		},
	}
}
