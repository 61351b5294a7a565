package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

// openPort opens a serial port. Replaced in tests.
var openPort = func(name string, baud int) (io.ReadCloser, error) {
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, errors.New("no serial ports found, use --port")
		}
		name = ports[0]
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return port, nil
}

func newLogsCmd() *cobra.Command {
	var (
		portName string
		baudRate int
	)
	c := &cobra.Command{
		Use:   "logs",
		Short: "Print a unit's log output from its USB serial port",
		Long: `Print a unit's log output from its USB serial port until the port closes
or the command is interrupted. Each unit logs one line per event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			port, err := openPort(portName, baudRate)
			if err != nil {
				return err
			}
			defer port.Close()
			return copyLines(cmd.OutOrStdout(), port)
		},
	}
	c.Flags().StringVarP(&portName, "port", "p", "", "serial port device (default: first port found)")
	c.Flags().IntVar(&baudRate, "baud", 115200, "baud rate")
	return c
}

// copyLines copies complete lines from r to w until r is exhausted.
func copyLines(w io.Writer, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if _, err := fmt.Fprintln(w, sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read log: %w", err)
	}
	return nil
}
