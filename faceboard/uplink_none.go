//go:build tinygo && !picow

package main

import (
	"log/slog"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/sensors"
)

// startUplink is a no-op on boards without a radio.
func startUplink(board.Config, *slog.Logger) (chan<- fault.Fault, chan<- sensors.Reading) {
	return nil, nil
}
