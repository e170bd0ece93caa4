package main

import (
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
)

// openMount opens the serial link to the pan/tilt mount, or a disabled link
// that only records commands when disabled is set.
func openMount(factory serialmux.SerialPortFactory, path string, disabled bool, opts serialmux.PortOptions) (serialmux.SerialMuxInterface, error) {
	if disabled {
		return serialmux.NewDisabledSerialMux(), nil
	}
	return serialmux.Open(factory, path, opts)
}
