package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one run of the tracker.
type Session struct {
	ID         string
	Label      string
	ConfigJSON string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// TickRow is a recorded control tick. Nil pointers mean the tick produced no
// such output.
type TickRow struct {
	Time                  time.Time
	Mode                  string
	Pan                   *float64
	Tilt                  *float64
	Zoom                  *float64
	Detections            int
	FramesSinceLastDetect int
	HeldConfidence        *float64
	HeldCenterX           *float64
	HeldCenterY           *float64
	SendFailed            bool
}

// TransitionRow is a recorded mode change.
type TransitionRow struct {
	Time   time.Time
	From   string
	To     string
	Reason string
	Pan    *float64
	Tilt   *float64
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	sec := int64(s)
	nsec := int64((s - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// StartSession creates a session and returns its ID.
func (db *DB) StartSession(label, configJSON string, startedAt time.Time) (string, error) {
	if configJSON == "" {
		configJSON = "{}"
	}
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, label, config_json, started_unix) VALUES (?, ?, ?, ?)`,
		id, label, configJSON, unixSeconds(startedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session end time.
func (db *DB) EndSession(id string, endedAt time.Time) error {
	res, err := db.Exec(`UPDATE sessions SET ended_unix = ? WHERE session_id = ?`, unixSeconds(endedAt), id)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func scanSession(scan func(dest ...any) error) (Session, error) {
	var (
		s       Session
		started float64
		ended   sql.NullFloat64
	)
	if err := scan(&s.ID, &s.Label, &s.ConfigJSON, &started, &ended); err != nil {
		return Session{}, err
	}
	s.StartedAt = fromUnixSeconds(started)
	if ended.Valid {
		t := fromUnixSeconds(ended.Float64)
		s.EndedAt = &t
	}
	return s, nil
}

// GetSession returns one session.
func (db *DB) GetSession(id string) (Session, error) {
	row := db.QueryRow(`SELECT session_id, label, config_json, started_unix, ended_unix
		FROM sessions WHERE session_id = ?`, id)
	s, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, err
}

// Sessions lists the most recent sessions first.
func (db *DB) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT session_id, label, config_json, started_unix, ended_unix
		FROM sessions ORDER BY started_unix DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recently started session.
func (db *DB) LatestSession() (Session, error) {
	sessions, err := db.Sessions(1)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, ErrSessionNotFound
	}
	return sessions[0], nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// SessionTicks returns every tick of a session in time order.
func (db *DB) SessionTicks(id string) ([]TickRow, error) {
	rows, err := db.Query(`SELECT ts_unix, mode, pan_cmd, tilt_cmd, zoom, detections,
			frames_since_last_detect, held_confidence, held_center_x, held_center_y, send_failed
		FROM ticks WHERE session_id = ? ORDER BY ts_unix, tick_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []TickRow
	for rows.Next() {
		var (
			t                      TickRow
			ts                     float64
			pan, tilt, zoom        sql.NullFloat64
			conf, centerX, centerY sql.NullFloat64
			sendFailed             int
		)
		if err := rows.Scan(&ts, &t.Mode, &pan, &tilt, &zoom, &t.Detections,
			&t.FramesSinceLastDetect, &conf, &centerX, &centerY, &sendFailed); err != nil {
			return nil, err
		}
		t.Time = fromUnixSeconds(ts)
		t.Pan, t.Tilt, t.Zoom = nullable(pan), nullable(tilt), nullable(zoom)
		t.HeldConfidence, t.HeldCenterX, t.HeldCenterY = nullable(conf), nullable(centerX), nullable(centerY)
		t.SendFailed = sendFailed != 0
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// SessionTransitions returns the mode changes of a session in time order.
func (db *DB) SessionTransitions(id string) ([]TransitionRow, error) {
	rows, err := db.Query(`SELECT ts_unix, from_mode, to_mode, reason, pan_cmd, tilt_cmd
		FROM mode_transitions WHERE session_id = ? ORDER BY ts_unix, transition_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []TransitionRow
	for rows.Next() {
		var (
			tr        TransitionRow
			ts        float64
			pan, tilt sql.NullFloat64
		)
		if err := rows.Scan(&ts, &tr.From, &tr.To, &tr.Reason, &pan, &tilt); err != nil {
			return nil, err
		}
		tr.Time = fromUnixSeconds(ts)
		tr.Pan, tr.Tilt = nullable(pan), nullable(tilt)
		transitions = append(transitions, tr)
	}
	return transitions, rows.Err()
}
