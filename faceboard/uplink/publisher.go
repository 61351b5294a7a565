//go:build tinygo

package uplink

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/sensors"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Publisher owns the broker connection.
type Publisher struct {
	ID                string
	Timeout           time.Duration
	TCPBufSize        int
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
	Encoder           *Encoder
}

// Run connects to the broker at addr and publishes faults and readings until
// the stack fails. Lost connections are redialled.
func (p *Publisher) Run(stack *Stack, addr string, faults <-chan fault.Fault, readings <-chan sensors.Reading) error {
	const pollTime = 5 * time.Millisecond

	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return errors.New("broker address " + addr + ": " + err.Error())
	}
	port := parsePort(portStr)
	if port == 0 {
		return errors.New("broker port " + portStr)
	}

	rstack := stack.s.StackRetrying(pollTime)
	ip, err := netip.ParseAddr(host)
	if err != nil {
		p.Logger.Info("uplink:resolve", slog.String("host", host))
		addrs, err := rstack.DoLookupIP(host, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup " + host + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup " + host + ": no addresses")
		}
		ip = addrs[0]
	}
	server := netip.AddrPortFrom(ip, port)

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, v mqtt.VariablesPublish, _ io.Reader) error {
			p.Logger.Debug("uplink:ignored-publish", slog.String("topic", string(v.TopicName)))
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.ID))

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, p.TCPBufSize),
		TxBuf:             make([]byte, p.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}
	closeConn := func(reason string) {
		p.Logger.Warn("uplink:close", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	for {
		localPort := uint16(stack.s.Prand32()>>17) + 1024
		if err := rstack.DoDialTCP(&conn, localPort, server, 10*time.Second, 3); err != nil {
			closeConn("dial: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		conn.SetDeadline(time.Now().Add(p.Timeout))
		if err := client.StartConnect(&conn, &varconn); err != nil {
			closeConn("connect: " + err.Error())
			continue
		}
		for retries := 50; retries > 0 && !client.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err := client.HandleNext(); err != nil {
				p.Logger.Error("uplink:handle-next", slog.Any("reason", err))
			}
		}
		if !client.IsConnected() {
			closeConn("connect timed out")
			continue
		}
		p.Logger.Info("uplink:connected", slog.String("broker", server.String()))

		heartbeat := time.NewTicker(p.HeartbeatInterval)
		for client.IsConnected() {
			var msg Message
			var err error
			select {
			case f := <-faults:
				msg, err = p.Encoder.Fault(f)
			case r := <-readings:
				msg, err = p.Encoder.Sensors(r)
			case <-heartbeat.C:
				if err := client.HandleNext(); err != nil {
					p.Logger.Error("uplink:handle-next", slog.Any("reason", err))
				}
				continue
			default:
				runtime.Gosched()
				continue
			}
			if err != nil {
				p.Logger.Error("uplink:encode", slog.Any("reason", err))
				continue
			}
			p.publish(client, &conn, stack, msg)
		}
		heartbeat.Stop()
		closeConn("disconnected")
	}
}

func (p *Publisher) publish(client *mqtt.Client, conn *tcp.Conn, stack *Stack, msg Message) {
	conn.SetDeadline(time.Now().Add(p.Timeout))
	vars := mqtt.VariablesPublish{
		TopicName:        []byte(msg.Topic),
		PacketIdentifier: uint16(stack.s.Prand32()),
	}
	if err := client.PublishPayload(pubFlags, vars, msg.Payload); err != nil {
		p.Logger.Error("uplink:publish", slog.String("topic", msg.Topic), slog.Any("reason", err))
		return
	}
	if err := client.HandleNext(); err != nil {
		p.Logger.Error("uplink:handle-next", slog.Any("reason", err))
	}
}
