package actuator

import (
	"fmt"
	"io"
	"log/slog"
)

// Writer is the non-blocking write side shared by Link and DisabledLink.
type Writer interface {
	io.Writer
	io.Closer
}

// Open returns a Link on the device at path, or a DisabledLink when disabled is
// set. An empty path is an error.
func Open(factory PortFactory, path string, opts PortOptions, disabled bool, logger *slog.Logger) (Writer, error) {
	if disabled {
		if logger != nil {
			logger.Info("actuator disabled, control signals are discarded")
		}
		return NewDisabledLink(), nil
	}
	if path == "" {
		return nil, fmt.Errorf("actuator: no device configured")
	}
	if factory == nil {
		factory = SerialPortFactory{}
	}
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	port, err := factory.Open(path, norm)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("actuator link opened", "device", path, "baud", norm.BaudRate)
	}
	return NewLink(port, logger), nil
}
