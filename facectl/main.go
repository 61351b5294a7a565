// Command facectl drives the face units from a Linux I2C controller such as a
// Raspberry Pi.
//
//	facectl --target left lcd brow low mid high
//	facectl --target mouth lcd talk
//	facectl --target left servo 90
//	facectl --addr 0x1a sensor temperature
//	facectl logs --port /dev/ttyACM0
package main

import (
	"os"

	"github.com/harveysanders/picoface/facectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
