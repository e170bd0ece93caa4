package main

import (
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ptz-tracker/internal/config"
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
)

func TestOpenMount_Disabled(t *testing.T) {
	factory := serialmux.NewMockSerialPortFactory(serialmux.NewTestableSerialPort())

	m, err := openMount(factory, "/dev/ttyACM0", true, serialmux.PortOptions{})
	require.NoError(t, err)
	assert.IsType(t, &serialmux.DisabledSerialMux{}, m)
	assert.Empty(t, factory.OpenCalls, "disabled mount must not open the port")

	require.NoError(t, m.SendCommand("P0T90"))
	assert.Equal(t, "P0T90", m.State().Snapshot().LastSent)
}

func TestOpenMount_Real(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	factory := serialmux.NewMockSerialPortFactory(port)
	opts := serialmux.PortOptions{BaudRate: 115200}

	m, err := openMount(factory, "/dev/ttyUSB1", false, opts)
	require.NoError(t, err)
	defer m.Close()

	require.Len(t, factory.OpenCalls, 1)
	assert.Equal(t, "/dev/ttyUSB1", factory.OpenCalls[0].Path)
	assert.Equal(t, opts, factory.OpenCalls[0].Options)

	require.NoError(t, m.SendCommand("P10T80"))
	assert.Equal(t, "P10T80\n", port.Written())
}

func TestOpenMount_OpenError(t *testing.T) {
	factory := serialmux.NewMockSerialPortFactory(nil)
	factory.Error = errors.New("no such device")

	_, err := openMount(factory, "/dev/missing", false, serialmux.PortOptions{})
	assert.ErrorIs(t, err, factory.Error)
}

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"config", config.DefaultConfigPath},
		{"camera", "0"},
		{"disable-mount", "false"},
		{"listen", ":8080"},
		{"db-path", "ptz_sessions.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flag.Lookup(tt.name)
			require.NotNil(t, f, "flag %s not defined", tt.name)
			assert.Equal(t, tt.want, f.DefValue)
		})
	}
}
