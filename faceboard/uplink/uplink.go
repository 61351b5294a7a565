// Package uplink publishes fault and sensor telemetry to an MQTT broker over
// the Pico W's CYW43439 radio.
//
// Topics are rooted at face/<unit>, where unit is the board name
// (eyebrow/left, mouth, ...):
//
//	face/eyebrow/left/faults
//	face/sensors/sensors
//
// The radio and broker code only builds with TinyGo. Message encoding and
// address parsing here are plain Go.
package uplink

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/sensors"
)

// Set with -ldflags "-X github.com/harveysanders/picoface/faceboard/uplink.ssid=..."
var (
	ssid   string
	pass   string
	broker string
)

// SSID returns the WiFi SSID set via linker flags.
func SSID() string { return ssid }

// Password returns the WiFi password set via linker flags.
func Password() string { return pass }

// Broker returns the broker host:port set via linker flags.
func Broker() string { return broker }

// Message is one MQTT publish.
type Message struct {
	Topic   string
	Payload []byte
}

// FaultRecord is the JSON body of a fault message.
type FaultRecord struct {
	Module    string        `json:"module"`
	Kind      string        `json:"kind"`
	Command   string        `json:"cmd,omitempty"`
	SinceBoot time.Duration `json:"since_boot_ns"`
}

// SensorRecord is the JSON body of a sensor message.
type SensorRecord struct {
	sensors.Reading
	SinceBoot time.Duration `json:"since_boot_ns"`
}

// Encoder turns telemetry into messages for one unit.
type Encoder struct {
	faultTopic  string
	sensorTopic string
	start       time.Time
	// Now is replaced in tests.
	Now func() time.Time
}

// NewEncoder returns an Encoder publishing under face/<unit>.
func NewEncoder(unit string) *Encoder {
	prefix := "face/" + unit + "/"
	return &Encoder{
		faultTopic:  prefix + "faults",
		sensorTopic: prefix + "sensors",
		start:       time.Now(),
		Now:         time.Now,
	}
}

// Fault encodes f.
func (e *Encoder) Fault(f fault.Fault) (Message, error) {
	rec := FaultRecord{
		Module:    f.Module.String(),
		Kind:      f.Kind.String(),
		SinceBoot: e.Now().Sub(e.start),
	}
	if f.HasCmd {
		rec.Command = f.Command.String()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return Message{}, errors.New("marshal fault:" + err.Error())
	}
	return Message{Topic: e.faultTopic, Payload: b}, nil
}

// Sensors encodes r.
func (e *Encoder) Sensors(r sensors.Reading) (Message, error) {
	b, err := json.Marshal(SensorRecord{Reading: r, SinceBoot: e.Now().Sub(e.start)})
	if err != nil {
		return Message{}, errors.New("marshal sensors:" + err.Error())
	}
	return Message{Topic: e.sensorTopic, Payload: b}, nil
}

// splitHostPort splits a host:port string into separate host and port components.
func splitHostPort(addr string) (host, port string, err error) {
	// Last colon, so bracketless IPv6 hosts keep theirs.
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host, port = addr[:colonIdx], addr[colonIdx+1:]
	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}
	return host, port, nil
}

// parsePort converts a port string to uint16. It returns 0 for anything that
// is not a decimal number in range.
func parsePort(s string) uint16 {
	var port uint32
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		port = port*10 + uint32(s[i]-'0')
		if port > 0xFFFF {
			return 0
		}
	}
	return uint16(port)
}
