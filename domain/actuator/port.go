package actuator

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.bug.st/serial"
)

// Port is the minimal surface of an opened serial device.
type Port interface {
	io.Writer
	io.Closer
}

// PortFactory opens serial devices. Tests substitute MockPortFactory.
type PortFactory interface {
	Open(path string, opts PortOptions) (Port, error)
}

// SerialPortFactory opens real devices through go.bug.st/serial.
type SerialPortFactory struct{}

// Open opens path with the normalized options.
func (SerialPortFactory) Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return p, nil
}

// ListPorts returns the serial devices visible to the OS, sorted.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}

// DefaultDevice returns the conventional device address for goos. On Linux
// the stable by-id path of an Arduino is preferred when one is listed.
func DefaultDevice(goos string, available []string) string {
	switch goos {
	case "windows":
		return "COM3"
	case "darwin":
		for _, p := range available {
			if strings.HasPrefix(p, "/dev/cu.usbmodem") {
				return p
			}
		}
		return "/dev/cu.usbmodem1101"
	default:
		for _, p := range available {
			if strings.HasPrefix(p, "/dev/serial/by-id/") && strings.Contains(p, "Arduino") {
				return p
			}
		}
		for _, p := range available {
			if strings.HasPrefix(p, "/dev/ttyACM") {
				return p
			}
		}
		return "/dev/ttyACM0"
	}
}
