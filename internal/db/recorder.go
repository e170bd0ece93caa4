package db

import (
	"fmt"

	"github.com/banshee-data/ptz-tracker/internal/servo"
)

// SessionRecorder writes loop ticks for one session. It implements
// servo.Recorder.
type SessionRecorder struct {
	db        *DB
	sessionID string
}

func (db *DB) NewSessionRecorder(sessionID string) *SessionRecorder {
	return &SessionRecorder{db: db, sessionID: sessionID}
}

// RecordTick stores the tick and, when the tick changed mode, the transition.
func (r *SessionRecorder) RecordTick(tick servo.Tick) error {
	out := tick.Output
	ts := unixSeconds(tick.Time)

	var pan, tilt, zoom, conf, cx, cy any
	if out.Command != nil {
		pan, tilt = out.Command.Pan, out.Command.Tilt
	}
	if out.Zoom != nil {
		zoom = *out.Zoom
	}
	if out.Held != nil {
		c := out.Held.Box.Center()
		conf, cx, cy = out.Held.Confidence, c.X, c.Y
	}
	sendFailed := 0
	if tick.SendFailed {
		sendFailed = 1
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tick transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO ticks (
			session_id, ts_unix, mode, pan_cmd, tilt_cmd, zoom, detections,
			frames_since_last_detect, held_confidence, held_center_x, held_center_y, send_failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID, ts, out.Mode.String(), pan, tilt, zoom, tick.Detections,
		out.FramesSinceLastDetect, conf, cx, cy, sendFailed,
	); err != nil {
		return fmt.Errorf("failed to record tick: %w", err)
	}

	if tr := out.Transition; tr != nil {
		if _, err := tx.Exec(`INSERT INTO mode_transitions (
				session_id, ts_unix, from_mode, to_mode, reason, pan_cmd, tilt_cmd
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.sessionID, ts, tr.From.String(), tr.To.String(), tr.Reason, pan, tilt,
		); err != nil {
			return fmt.Errorf("failed to record mode transition: %w", err)
		}
	}
	return tx.Commit()
}
