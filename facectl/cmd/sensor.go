package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harveysanders/picoface/faceboard/command"
)

type sensorValue struct {
	sel  command.Command
	unit string
}

var sensorValues = map[string]sensorValue{
	"temperature": {command.SensorTemperature, "°C"},
	"humidity":    {command.SensorHumidity, "%RH"},
	"pressure":    {command.SensorPressure, "Pa"},
	"accel-x":     {command.SensorAccelX, "g"},
	"accel-y":     {command.SensorAccelY, "g"},
	"accel-z":     {command.SensorAccelZ, "g"},
	"gyro-x":      {command.SensorGyroX, "°/s"},
	"gyro-y":      {command.SensorGyroY, "°/s"},
	"gyro-z":      {command.SensorGyroZ, "°/s"},
}

func sensorNames() []string {
	names := make([]string, 0, len(sensorValues))
	for n := range sensorValues {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newSensorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "sensor <name>",
		Short:     "Read one value from the sensor unit",
		Long:      "Read one value from the sensor unit. Names: " + strings.Join(sensorNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: sensorNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := sensorValues[args[0]]
			if !ok {
				return fmt.Errorf("unknown sensor value %q", args[0])
			}
			if !cmd.Flags().Changed("target") && !cmd.Flags().Changed("addr") {
				opts.target = "sensors"
			}
			return withController(opts, func(ctl *Controller) error {
				f, err := ctl.ReadValue(v.sel)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3f %s\n", args[0], f, v.unit)
				return nil
			})
		},
	}
}
