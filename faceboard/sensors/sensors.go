// Package sensors keeps a cached copy of the environment and motion readings
// on the telemetry unit and serves them to the controller one value at a time.
//
// A repeating timer calls Refresh. Reads are throttled: a Refresh within
// MinReadInterval of the last successful read returns the cached values. The
// main loop selects a value with Handle, which publishes it to the read-back
// register.
package sensors

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
)

// RefreshPeriod is how often the timer refreshes the cache.
const RefreshPeriod = time.Second

// Reading is one snapshot of every sensor.
type Reading struct {
	Temperature float32    `json:"temperature_c"`
	Humidity    float32    `json:"humidity_rh"`
	Pressure    float32    `json:"pressure_pa"`
	Accel       [3]float32 `json:"accel_g"`
	Gyro        [3]float32 `json:"gyro_dps"`
}

// Environment is the temperature, humidity and pressure sensor.
type Environment interface {
	// ReadEnvironment returns degrees Celsius, percent relative humidity and
	// pascals.
	ReadEnvironment() (temp, humidity, pressure float32, err error)
}

// Motion is the 6-axis IMU.
type Motion interface {
	// ReadMotion returns acceleration in g and rotation in degrees per second.
	ReadMotion() (accel, gyro [3]float32, err error)
}

// Register receives the selected value. *ingest.Ingest implements it.
type Register interface {
	SetRegister(v float32)
}

// Hub caches readings and answers select commands.
type Hub struct {
	env    Environment
	motion Motion
	reg    Register
	faults fault.Reporter
	log    *slog.Logger
	sink   chan<- Reading

	// MinReadInterval throttles Refresh. Now is replaced in tests.
	MinReadInterval time.Duration
	Now             func() time.Time

	mu            sync.Mutex
	cached        Reading
	lastReadTime  time.Time
	hasValidCache bool
}

// NewHub returns a Hub. Either source may be nil when the part is not fitted;
// its values then stay zero.
func NewHub(env Environment, motion Motion, reg Register, faults fault.Reporter, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Hub{
		env:             env,
		motion:          motion,
		reg:             reg,
		faults:          faults,
		log:             logger,
		MinReadInterval: RefreshPeriod / 2,
		Now:             time.Now,
	}
}

// Forward copies every fresh reading to ch without blocking.
func (h *Hub) Forward(ch chan<- Reading) {
	h.sink = ch
}

// Refresh reads the sensors unless the cache is still fresh. It returns the
// values now cached and whether they came from the cache. A failed read keeps
// the previous cache and reports an IOFault.
func (h *Hub) Refresh() (r Reading, isCached bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.Now()
	if h.hasValidCache && now.Sub(h.lastReadTime) < h.MinReadInterval {
		return h.cached, true, nil
	}

	next := h.cached
	var errs []error
	if h.env != nil {
		t, hum, p, err := h.env.ReadEnvironment()
		if err != nil {
			errs = append(errs, errors.New("environment:"+err.Error()))
		} else {
			next.Temperature, next.Humidity, next.Pressure = t, hum, p
		}
	}
	if h.motion != nil {
		a, g, err := h.motion.ReadMotion()
		if err != nil {
			errs = append(errs, errors.New("motion:"+err.Error()))
		} else {
			next.Accel, next.Gyro = a, g
		}
	}
	if len(errs) > 0 {
		err = errors.Join(errs...)
		h.log.Error("sensors:read", slog.Any("reason", err))
		h.faults.Report(fault.New(fault.ModuleSensors, fault.IOFault))
		return h.cached, h.hasValidCache, err
	}

	h.cached = next
	h.lastReadTime = now
	h.hasValidCache = true
	if h.sink != nil {
		select {
		case h.sink <- next:
		default:
		}
	}
	return next, false, nil
}

// Reading returns the cached values and whether any read has succeeded.
func (h *Hub) Reading() (Reading, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cached, h.hasValidCache
}

// Select returns the value a sensor command asks for.
func Select(r Reading, cmd command.Command) (float32, bool) {
	switch cmd {
	case command.SensorTemperature:
		return r.Temperature, true
	case command.SensorHumidity:
		return r.Humidity, true
	case command.SensorPressure:
		return r.Pressure, true
	case command.SensorAccelX, command.SensorAccelY, command.SensorAccelZ:
		return r.Accel[cmd-command.SensorAccelX], true
	case command.SensorGyroX, command.SensorGyroY, command.SensorGyroZ:
		return r.Gyro[cmd-command.SensorGyroX], true
	}
	return 0, false
}

// Handle publishes the selected cached value to the register.
func (h *Hub) Handle(cmd command.Command) error {
	r, _ := h.Reading()
	v, ok := Select(r, cmd)
	if !ok {
		h.log.Error("sensors:illegal-command", slog.String("cmd", cmd.String()))
		return fault.ForCommand(fault.ModuleSensors, fault.IllegalCommand, cmd)
	}
	h.reg.SetRegister(v)
	return nil
}
