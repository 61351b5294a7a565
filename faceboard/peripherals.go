//go:build tinygo

package main

import (
	"errors"
	"image/color"
	"machine"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/bme280"
	"tinygo.org/x/drivers/lsm6ds3tr"
	"tinygo.org/x/drivers/st7789"

	"github.com/harveysanders/picoface/faceboard/board"
	"github.com/harveysanders/picoface/faceboard/sensors"
)

// panel is an ST7789 LCD on SPI1: the 1.14" 240x135 on eyebrows and the 2"
// 320x240 on the mouth.
type panel struct {
	dev  st7789.Device
	geom board.Panel
	cfg  st7789.Config
	row  []byte
	sck  machine.Pin
	sdo  machine.Pin
}

func newPanel(geom board.Panel, pins board.Pins) *panel {
	cfg := st7789.Config{
		// Native portrait size; rotated into landscape.
		Width:    geom.Height,
		Height:   geom.Width,
		Rotation: drivers.Rotation90,
	}
	if geom.Width == 240 && geom.Height == 135 {
		cfg.RowOffset = 40
		cfg.ColumnOffset = 53
	}
	dev := st7789.New(machine.SPI1,
		machine.Pin(pins.LCDRST),
		machine.Pin(pins.LCDDC),
		machine.Pin(pins.LCDCS),
		machine.Pin(pins.LCDBL),
	)
	return &panel{
		dev:  dev,
		geom: geom,
		cfg:  cfg,
		row:  make([]byte, 2*int(geom.Width)),
		sck:  machine.Pin(pins.LCDSCK),
		sdo:  machine.Pin(pins.LCDMOSI),
	}
}

func (p *panel) Size() (int16, int16) { return p.geom.Width, p.geom.Height }

func (p *panel) Configure() error {
	err := machine.SPI1.Configure(machine.SPIConfig{
		Frequency: 62_500_000,
		SCK:       p.sck,
		SDO:       p.sdo,
		Mode:      0,
	})
	if err != nil {
		return errors.New("spi:" + err.Error())
	}
	p.dev.Configure(p.cfg)
	p.dev.EnableBacklight(true)
	return nil
}

func (p *panel) Clear(c color.RGBA) error {
	p.dev.FillScreen(c)
	return nil
}

// Show streams the frame one row at a time, big endian RGB565 on the wire.
func (p *panel) Show(pix []uint16) error {
	w := int(p.geom.Width)
	for y := int16(0); y < p.geom.Height; y++ {
		line := pix[int(y)*w : int(y+1)*w]
		for i, c := range line {
			p.row[2*i] = byte(c >> 8)
			p.row[2*i+1] = byte(c)
		}
		if err := p.dev.DrawRGBBitmap8(0, y, p.row, p.geom.Width, 1); err != nil {
			return err
		}
	}
	return nil
}

// environment is a BME280 on I2C1.
type environment struct {
	dev bme280.Device
}

func (e *environment) ReadEnvironment() (temp, humidity, pressure float32, err error) {
	t, err := e.dev.ReadTemperature()
	if err != nil {
		return 0, 0, 0, err
	}
	h, err := e.dev.ReadHumidity()
	if err != nil {
		return 0, 0, 0, err
	}
	p, err := e.dev.ReadPressure()
	if err != nil {
		return 0, 0, 0, err
	}
	// milli-°C, hundredths of %RH and milli-Pa.
	return float32(t) / 1000, float32(h) / 100, float32(p) / 1000, nil
}

// motion is an LSM6DS3TR on I2C1.
type motion struct {
	dev *lsm6ds3tr.Device
}

func (m *motion) ReadMotion() (accel, gyro [3]float32, err error) {
	ax, ay, az, err := m.dev.ReadAcceleration()
	if err != nil {
		return accel, gyro, err
	}
	gx, gy, gz, err := m.dev.ReadRotation()
	if err != nil {
		return accel, gyro, err
	}
	// µg and µ°/s.
	accel = [3]float32{float32(ax) / 1e6, float32(ay) / 1e6, float32(az) / 1e6}
	gyro = [3]float32{float32(gx) / 1e6, float32(gy) / 1e6, float32(gz) / 1e6}
	return accel, gyro, nil
}

// newSensorSources configures the sensor bus. A part that does not answer is
// left out and reported in the error; the other still works.
func newSensorSources(pins board.Pins) (sensors.Environment, sensors.Motion, error) {
	bus := machine.I2C1
	err := bus.Configure(machine.I2CConfig{
		Frequency: 400_000,
		SDA:       machine.Pin(pins.SensorSDA),
		SCL:       machine.Pin(pins.SensorSCL),
	})
	if err != nil {
		return nil, nil, errors.New("sensor bus:" + err.Error())
	}

	var (
		env  sensors.Environment
		imu  sensors.Motion
		errs []error
	)
	bme := bme280.New(bus)
	if bme.Connected() {
		bme.Configure()
		env = &environment{dev: bme}
	} else {
		errs = append(errs, errors.New("bme280 not found"))
	}

	lsm := lsm6ds3tr.New(bus)
	if err := lsm.Configure(lsm6ds3tr.Configuration{}); err != nil || !lsm.Connected() {
		errs = append(errs, errors.New("lsm6ds3tr not found"))
	} else {
		imu = &motion{dev: lsm}
	}
	return env, imu, errors.Join(errs...)
}
