package serialmux

import (
	"sync"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/monitoring"
)

var logf = monitoring.Componentf("serial")

// DeviceState keeps what has recently crossed the serial link. It is shared
// between Monitor, SendCommand and the admin routes.
type DeviceState struct {
	mu   sync.Mutex
	snap DeviceSnapshot
	now  func() time.Time
}

// DeviceSnapshot is a copy of DeviceState suitable for JSON encoding.
type DeviceSnapshot struct {
	LastSent     string    `json:"last_sent,omitempty"`
	LastSentAt   time.Time `json:"last_sent_at,omitempty"`
	LastReply    string    `json:"last_reply,omitempty"`
	LastReplyAt  time.Time `json:"last_reply_at,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	EchoPan      *int      `json:"echo_pan,omitempty"`
	EchoTilt     *int      `json:"echo_tilt,omitempty"`
	CommandsSent int64     `json:"commands_sent"`
	Replies      int64     `json:"replies"`
	Errors       int64     `json:"errors"`
}

func NewDeviceState() *DeviceState {
	return &DeviceState{now: time.Now}
}

func (d *DeviceState) recordSent(command string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.LastSent = command
	d.snap.LastSentAt = d.now()
	d.snap.CommandsSent++
}

// Snapshot returns a copy of the current state.
func (d *DeviceState) Snapshot() DeviceSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.snap
	if snap.EchoPan != nil {
		pan, tilt := *snap.EchoPan, *snap.EchoTilt
		snap.EchoPan, snap.EchoTilt = &pan, &tilt
	}
	return snap
}

// HandleLine records one reply line from the mount.
func HandleLine(d *DeviceState, line string) {
	kind := ClassifyPayload(line)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.LastReply = line
	d.snap.LastReplyAt = d.now()
	d.snap.Replies++

	switch kind {
	case LineTypePose:
		pan, tilt, _ := ParsePanTilt(line)
		d.snap.EchoPan, d.snap.EchoTilt = &pan, &tilt
	case LineTypeError:
		d.snap.LastError = line
		d.snap.Errors++
		logf("mount reported error: %s", line)
	case LineTypeAck:
	default:
		logf("unrecognised reply from mount: %q", line)
	}
}
