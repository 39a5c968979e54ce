// Package monitor streams output from a device's serial port, tags
// notable lines for display, and optionally mirrors the stream to
// WebSocket subscribers.
package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// Monitor owns one open serial session. Lines read from the port
// arrive as Output envelopes on the runner returned by Stream.
type Monitor struct {
	portName string
	baud     int

	mu     sync.Mutex
	port   serial.Port
	closed bool
}

// Open opens the serial port at the given baud rate.
func Open(portName string, baud int) (*Monitor, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", portName, err)
	}
	logging.Info("serial port opened", zap.String("port", portName), zap.Int("baud", baud))
	return &Monitor{portName: portName, baud: baud, port: port}, nil
}

// Port returns the serial port name this monitor reads.
func (m *Monitor) Port() string {
	return m.portName
}

// Stream starts reading the port on a worker. Every line arrives as an
// Output envelope; the terminal envelope is posted when the port is
// closed (success) or the read fails (error).
func (m *Monitor) Stream() *tasks.Runner {
	topic := "Monitor " + m.portName
	return tasks.Stream(tasks.ClassSerial, topic, func(emit tasks.Emit) (any, error) {
		scanner := bufio.NewScanner(m.port)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			emit(tasks.StatusOutput, line)
		}
		if err := scanner.Err(); err != nil && !m.isClosed() {
			return nil, fmt.Errorf("error accessing serial port: %w", err)
		}
		// Closing the port ends the scan; any trailing garbage from the
		// teardown is not an error.
		return "monitor closed", nil
	})
}

// Send writes a command to the device, terminated with a newline.
func (m *Monitor) Send(command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("serial port is closed")
	}
	_, err := m.port.Write([]byte(command + "\n"))
	if err != nil {
		return fmt.Errorf("could not write to serial port %s: %w", m.portName, err)
	}
	logging.Debug("serial command sent", zap.String("command", command))
	return nil
}

// Close closes the serial port, ending the stream.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.port.Close()
}

func (m *Monitor) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
