//go:build tinygo

// Command faceboard is the firmware for the face units: the two eyebrows, the
// mouth and the sensor board. The variant is a build setting; an eyebrow reads
// its side from the address strap at boot.
//
//	tinygo flash -target pico -ldflags="-X main.buildVariant=mouth -X main.logLevel=debug" ./faceboard
//
// Pico W builds with -tags picow also publish faults and sensor readings to
// an MQTT broker (see the uplink package for its build settings).
package main

import (
	"context"
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/dispatch"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/graphics"
	"github.com/harveysanders/picoface/faceboard/ingest"
	"github.com/harveysanders/picoface/faceboard/led"
	"github.com/harveysanders/picoface/faceboard/sensors"
	"github.com/harveysanders/picoface/faceboard/servo"
	"github.com/harveysanders/picoface/faceboard/timer"
)

// Set at build time via -ldflags.
var (
	buildVariant string
	logLevel     string
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))

	strap := machine.Pin(board.DefaultPins.Strap)
	strap.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	cfg := board.Default(board.ParseVariant(buildVariant), board.SideFromStrap(strap.Get()))
	if err := cfg.Validate(); err != nil {
		printErrForever(logger, "board:config", slog.Any("reason", err))
	}
	logger = logger.With(slog.String("unit", cfg.Name()))
	logger.Info("boot", slog.String("addr", "0x"+strconv.FormatUint(uint64(cfg.Address), 16)))

	faults := fault.NewQueue(cfg.FaultQueue)
	in := ingest.New(faults)
	router := dispatch.New(in, faults, logger)
	faultSink, readingSink := startUplink(cfg, logger)
	router.ForwardFaults(faultSink)

	clock := timer.Clock{}
	leds := led.New(newLEDPin(machine.Pin(cfg.Pins.LED)), clock, logger)
	if err := leds.Init(); err != nil {
		logger.Error("led:init", slog.Any("reason", err))
	}
	router.Route(command.SubsystemLEDs, leds)

	switch cfg.Variant {
	case board.Eyebrow:
		w := startGraphics(ctx, cfg, graphics.NewEyebrow(cfg.Mirrored(), logger), clock, faults, logger)
		router.Route(command.SubsystemLCD, w)

		s, err := startServo(cfg, faults, logger)
		if s == nil {
			logger.Error("servo:init", slog.Any("reason", err))
			faults.Report(fault.New(fault.ModuleServo, fault.InitFault))
			break
		}
		// A side that timed out keeps its nominal bound.
		for _, f := range fault.All(err, fault.ModuleServo, fault.Timeout) {
			faults.Report(f)
		}
		router.Route(command.SubsystemServo, s)
	case board.Mouth:
		w := startGraphics(ctx, cfg, graphics.NewMouth(logger), clock, faults, logger)
		router.Route(command.SubsystemLCD, w)
	case board.Sensors:
		hub, err := startSensors(cfg, in, clock, faults, logger)
		if err != nil {
			logger.Error("sensors:init", slog.Any("reason", err))
			faults.Report(fault.New(fault.ModuleSensors, fault.InitFault))
		}
		hub.Forward(readingSink)
		router.Route(command.SubsystemServo, hub)
		// Read requests answer zero until the controller selects a value.
		in.SetRegister(0)
	}

	bus, err := listen(cfg)
	if err != nil {
		printErrForever(logger, "configure I2C target", slog.Any("reason", err))
	}
	go bus.serve(in, logger)

	router.Run(ctx)
}

func startGraphics(ctx context.Context, cfg board.Config, r graphics.Renderer, sched timer.Scheduler, faults *fault.Queue, logger *slog.Logger) *graphics.Worker {
	p := newPanel(cfg.Panel, cfg.Pins)
	fb := graphics.NewFramebuffer(p, cfg.Panel.Flipped)
	w := graphics.NewWorker(r, fb, sched, faults, logger, cfg.GraphicsQueue)
	w.Start(ctx)
	return w
}

func startServo(cfg board.Config, faults *fault.Queue, logger *slog.Logger) (*servo.Servo, error) {
	out, err := newServoOutput(machine.Pin(cfg.Pins.Servo))
	if err != nil {
		return nil, err
	}
	s := servo.New(out, faults, logger)
	watchLimit(machine.Pin(cfg.Pins.LimitLeft), func() { s.LimitReached(servo.Left) })
	watchLimit(machine.Pin(cfg.Pins.LimitRight), func() { s.LimitReached(servo.Right) })
	return s, s.Calibrate()
}

func startSensors(cfg board.Config, in *ingest.Ingest, sched timer.Scheduler, faults *fault.Queue, logger *slog.Logger) (*sensors.Hub, error) {
	env, motion, err := newSensorSources(cfg.Pins)
	hub := sensors.NewHub(env, motion, in, faults, logger)
	sched.Every(sensors.RefreshPeriod, func() {
		if _, _, err := hub.Refresh(); err != nil {
			logger.Debug("sensors:refresh", slog.Any("reason", err))
		}
	})
	return hub, err
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printErrForever logs msg @ 1hz so it is seen whenever the serial monitor
// attaches. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
