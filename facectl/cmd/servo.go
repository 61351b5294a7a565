package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harveysanders/picoface/faceboard/command"
)

func newServoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "servo <degrees>",
		Short: "Turn an eyebrow servo to an angle between 0 and 180 degrees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deg, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse angle: %w", err)
			}
			if deg < 0 || deg > 180 {
				return fmt.Errorf("angle %v out of range [0, 180]", deg)
			}
			param := command.DegreesToParam(deg)
			return withController(opts, func(ctl *Controller) error {
				if err := ctl.Send(command.ServoTurn(param)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "servo param %d\n", param)
				return nil
			})
		},
	}
}
