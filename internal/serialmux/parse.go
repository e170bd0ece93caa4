package serialmux

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	LineTypePose    = "pose"
	LineTypeAck     = "ack"
	LineTypeError   = "error"
	LineTypeUnknown = "unknown"
)

// FormatPanTilt encodes an absolute pose command, e.g. "P-12T85". The
// newline is added by SendCommand.
func FormatPanTilt(pan, tilt int) string {
	return fmt.Sprintf("P%dT%d", pan, tilt)
}

// ParsePanTilt decodes a pose command or a pose echoed back by the mount.
func ParsePanTilt(line string) (pan, tilt int, err error) {
	s := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(s, "P")
	if !ok {
		return 0, 0, fmt.Errorf("pose %q: missing P prefix", s)
	}
	panStr, tiltStr, ok := strings.Cut(rest, "T")
	if !ok {
		return 0, 0, fmt.Errorf("pose %q: missing T separator", s)
	}
	if pan, err = strconv.Atoi(panStr); err != nil {
		return 0, 0, fmt.Errorf("pose %q: invalid pan: %w", s, err)
	}
	if tilt, err = strconv.Atoi(tiltStr); err != nil {
		return 0, 0, fmt.Errorf("pose %q: invalid tilt: %w", s, err)
	}
	return pan, tilt, nil
}

// ClassifyPayload returns the kind of a reply line. Firmware builds differ in
// what they print, so anything unrecognised is reported as unknown rather
// than rejected.
func ClassifyPayload(payload string) string {
	s := strings.TrimSpace(payload)
	lower := strings.ToLower(s)
	switch {
	case lower == "ok" || strings.HasPrefix(lower, "ok "):
		return LineTypeAck
	case strings.HasPrefix(lower, "err"):
		return LineTypeError
	}
	if _, _, err := ParsePanTilt(s); err == nil {
		return LineTypePose
	}
	return LineTypeUnknown
}
