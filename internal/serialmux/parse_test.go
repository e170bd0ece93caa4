package serialmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPanTilt(t *testing.T) {
	assert.Equal(t, "P0T90", FormatPanTilt(0, 90))
	assert.Equal(t, "P-85T5", FormatPanTilt(-85, 5))
}

func TestParsePanTilt(t *testing.T) {
	pan, tilt, err := ParsePanTilt(" P-12T85\r")
	require.NoError(t, err)
	assert.Equal(t, -12, pan)
	assert.Equal(t, 85, tilt)

	for _, bad := range []string{"", "T10P5", "P10", "P10T", "PxT5", "P1T2.5"} {
		_, _, err := ParsePanTilt(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestClassifyPayload(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"ok", LineTypeAck},
		{"OK P10T20", LineTypeAck},
		{"err: pan out of range", LineTypeError},
		{"ERROR", LineTypeError},
		{"P10T20", LineTypePose},
		{"P-3T-4\r", LineTypePose},
		{"servo ready", LineTypeUnknown},
		{"", LineTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPayload(tt.payload), "payload %q", tt.payload)
	}
}
