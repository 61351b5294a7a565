//go:build tinygo

package uplink

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// StackConfig configures the radio and the network stack.
type StackConfig struct {
	// Hostname is sent in the DHCP request.
	Hostname string
	// StaticAddr is used when DHCP does not complete. Optional.
	StaticAddr netip.Addr
	Logger     *slog.Logger
	RandSeed   int64
}

// Stack is the CYW43439 radio joined to a WiFi network with an lneto stack
// on top.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Join brings up the radio, joins the network named by the ssid and pass
// build settings and acquires an address. Joining retries until it succeeds.
func Join(cfg StackConfig) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init:" + err.Error())
	}
	logger.Info("uplink:radio-up", slog.Duration("took", time.Since(start)))

	for {
		err := dev.JoinWPA2(ssid, pass)
		if err == nil {
			break
		}
		logger.Error("uplink:join", slog.String("ssid", ssid), slog.Any("reason", err))
		time.Sleep(5 * time.Second)
	}
	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("hardware address:" + err.Error())
	}
	logger.Info("uplink:joined", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	st := &Stack{dev: dev, log: logger, sendbuf: make([]byte, mtu)}
	err = st.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     1,
		RandSeed:        time.Since(start).Nanoseconds() ^ cfg.RandSeed,
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return st.s.Demux(pkt, 0)
	})

	go st.loop()
	if err := st.dhcp(cfg.StaticAddr); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Stack) dhcp(static netip.Addr) error {
	rstack := s.s.StackRetrying(50 * time.Millisecond)
	req := netip.AddrFrom4([4]byte{})
	if static.Is4() {
		req = static
	}

	res, err := rstack.DoDHCPv4(req.As4(), 3*time.Second, 3)
	if err != nil {
		if static.Is4() {
			s.log.Warn("uplink:dhcp-static", slog.String("ip", static.String()))
			s.s.SetIPAddr(static)
			return nil
		}
		return errors.New("dhcp:" + err.Error())
	}
	if err := s.s.AssimilateDHCPResults(res); err != nil {
		return errors.New("assimilate dhcp:" + err.Error())
	}
	gw, err := rstack.DoResolveHardwareAddress6(res.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gw)
	s.log.Info("uplink:dhcp",
		slog.String("ip", res.AssignedAddr.String()),
		slog.String("router", res.Router.String()),
	)
	return nil
}

// loop moves packets between the radio and the stack forever.
func (s *Stack) loop() {
	for {
		sent, recv := s.pump()
		if sent == 0 && !recv {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (s *Stack) pump() (sent int, recv bool) {
	recv, err := s.dev.PollOne()
	if err != nil {
		s.log.Error("uplink:poll", slog.Any("reason", err))
	}
	sent, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("uplink:encapsulate", slog.Any("reason", err))
		return 0, recv
	}
	if sent == 0 {
		return 0, recv
	}
	if err := s.dev.SendEth(s.sendbuf[:sent]); err != nil {
		s.log.Error("uplink:send", slog.Int("len", sent), slog.Any("reason", err))
	}
	return sent, recv
}
