package actuator

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}
	if got != want {
		t.Fatalf("Normalize() = %+v want %+v", got, want)
	}
}

func TestPortOptionsNormalizeInvalid(t *testing.T) {
	bad := []PortOptions{
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "M"},
	}
	for _, o := range bad {
		if _, err := o.Normalize(); err == nil {
			t.Fatalf("expected error for %+v", o)
		}
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.BaudRate != 9600 || mode.DataBits != 8 {
		t.Fatalf("mode = %+v", mode)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Fatalf("stop bits = %v", mode.StopBits)
	}
	if mode.Parity != serial.EvenParity {
		t.Fatalf("parity = %v", mode.Parity)
	}
}

func TestDefaultDevice(t *testing.T) {
	if got := DefaultDevice("windows", nil); got != "COM3" {
		t.Fatalf("windows = %s", got)
	}
	byID := "/dev/serial/by-id/usb-Arduino__www.arduino.cc__0043_7583033343935150A092-if00"
	if got := DefaultDevice("linux", []string{"/dev/ttyS0", byID}); got != byID {
		t.Fatalf("linux by-id = %s", got)
	}
	if got := DefaultDevice("linux", []string{"/dev/ttyS0", "/dev/ttyACM1"}); got != "/dev/ttyACM1" {
		t.Fatalf("linux acm = %s", got)
	}
	if got := DefaultDevice("linux", nil); got != "/dev/ttyACM0" {
		t.Fatalf("linux fallback = %s", got)
	}
	if got := DefaultDevice("darwin", []string{"/dev/cu.usbmodem14201"}); got != "/dev/cu.usbmodem14201" {
		t.Fatalf("darwin = %s", got)
	}
}
