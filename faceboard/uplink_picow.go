//go:build tinygo && picow

package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/sensors"
	"github.com/harveysanders/picoface/faceboard/uplink"
)

// startUplink joins WiFi and publishes telemetry in the background. The
// returned channels are never blocked on by their senders.
func startUplink(cfg board.Config, logger *slog.Logger) (chan<- fault.Fault, chan<- sensors.Reading) {
	faults := make(chan fault.Fault, cfg.FaultQueue)
	// We may need to adjust depending on the refresh period and network availability
	readings := make(chan sensors.Reading, 10)

	unit := cfg.Name()
	p := &uplink.Publisher{
		ID:                "face-" + strings.ReplaceAll(unit, "/", "-"),
		Logger:            logger,
		Timeout:           5 * time.Second,
		TCPBufSize:        2030, // MTU - ethhdr - iphdr - tcphdr
		HeartbeatInterval: 10 * time.Second,
		Encoder:           uplink.NewEncoder(unit),
	}
	go func() {
		stack, err := uplink.Join(uplink.StackConfig{
			Hostname: p.ID,
			Logger:   logger,
			RandSeed: int64(cfg.Address),
		})
		if err != nil {
			printErrForever(logger, "uplink:join", slog.Any("reason", err))
		}
		if err := p.Run(stack, uplink.Broker(), faults, readings); err != nil {
			printErrForever(logger, "uplink:run", slog.Any("reason", err))
		}
	}()
	return faults, readings
}
