package serialmux

import (
	"io"
)

// SerialPorter is the subset of a serial port the mux needs. go.bug.st/serial
// ports satisfy it, as does TestableSerialPort.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialPortFactory opens serial ports. It lets callers swap the real device
// for a test double.
type SerialPortFactory interface {
	Open(path string, opts PortOptions) (SerialPorter, error)
}
