package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harveysanders/picoface/faceboard/command"
)

func newRawCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <byte>...",
		Short: "Send command bytes as given, e.g. raw 0x51 0x62",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cmds := make([]command.Command, len(args))
			for i, a := range args {
				b, err := strconv.ParseUint(a, 0, 8)
				if err != nil {
					return fmt.Errorf("byte %d %q: %w", i, a, err)
				}
				cmds[i] = command.Command(b)
			}
			return withController(opts, func(ctl *Controller) error {
				return ctl.Send(cmds...)
			})
		},
	}
}
