package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harveysanders/picoface/faceboard/command"
)

var mouthShapes = map[string]command.Command{
	"smile":      command.MouthSmile,
	"frown":      command.MouthFrown,
	"line":       command.MouthLine,
	"smirk":      command.MouthSmirk,
	"open":       command.MouthOpen,
	"open-smile": command.MouthOpenSmile,
	"zigzag":     command.MouthZigZag,
}

func newLCDCmd(opts *options) *cobra.Command {
	lcd := &cobra.Command{
		Use:   "lcd",
		Short: "Draw on a unit's LCD",
	}
	send := func(c command.Command) error {
		return withController(opts, func(ctl *Controller) error {
			return ctl.Send(c)
		})
	}

	lcd.AddCommand(
		&cobra.Command{
			Use:   "test",
			Short: "Draw the test pattern",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return send(command.LCDTest) },
		},
		&cobra.Command{
			Use:   "off",
			Short: "Clear the panel",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return send(command.LCDOff) },
		},
		&cobra.Command{
			Use:   "brow <left> <middle> <right>",
			Short: "Shape an eyebrow; each vertex is low, mid or high",
			Long: `Shape an eyebrow. Vertices are given as seen on the left unit; the right
unit mirrors them itself.`,
			Args: cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				var v [3]command.Vertex
				for i, a := range args {
					var err error
					if v[i], err = command.ParseVertex(a); err != nil {
						return err
					}
				}
				return send(command.EncodeBrow(command.Brow{Left: v[0], Middle: v[1], Right: v[2]}))
			},
		},
		&cobra.Command{
			Use:   "mouth <shape>",
			Short: "Draw a mouth shape: smile, frown, line, smirk, open, open-smile or zigzag",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				c, ok := mouthShapes[args[0]]
				if !ok {
					return fmt.Errorf("unknown mouth shape %q", args[0])
				}
				return send(c)
			},
		},
		&cobra.Command{
			Use:   "talk",
			Short: "Animate the mouth until the next LCD command",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return send(command.MouthTalk) },
		},
	)
	return lcd
}
