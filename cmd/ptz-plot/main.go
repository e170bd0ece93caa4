// Command ptz-plot renders the pan/tilt/zoom trajectory of a recorded session.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/ptz-tracker/internal/db"
	"github.com/banshee-data/ptz-tracker/internal/report"
)

var (
	dbPath    = flag.String("db-path", "ptz_sessions.db", "Path to the session database")
	sessionID = flag.String("session", "", "Session ID; defaults to the most recent session")
	pngPath   = flag.String("png", "", "Write a PNG plot to this path")
	htmlPath  = flag.String("html", "", "Write an interactive HTML chart to this path")
	list      = flag.Bool("list", false, "List recent sessions and exit")
)

func main() {
	flag.Parse()

	store, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session database: %v", err)
	}
	defer store.Close()

	if *list {
		sessions, err := store.Sessions(20)
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %q\n", s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Label)
		}
		return
	}

	var session db.Session
	if *sessionID != "" {
		session, err = store.GetSession(*sessionID)
	} else {
		session, err = store.LatestSession()
	}
	if errors.Is(err, db.ErrSessionNotFound) {
		log.Fatalf("no recorded session found in %s", *dbPath)
	} else if err != nil {
		log.Fatalf("failed to load session: %v", err)
	}

	ticks, err := store.SessionTicks(session.ID)
	if err != nil {
		log.Fatalf("failed to load ticks: %v", err)
	}
	traj := report.NewTrajectory(ticks)
	s := report.Summarise(traj)

	fmt.Printf("session %s (%s)\n", session.ID, session.Label)
	fmt.Printf("  ticks:      %d over %s\n", s.Ticks, s.Duration)
	fmt.Printf("  tracking:   %.1f%% (%d searches)\n", 100*s.TrackFraction, s.Searches)
	fmt.Printf("  pan range:  %.0f .. %.0f\n", s.PanMin, s.PanMax)
	fmt.Printf("  tilt range: %.0f .. %.0f\n", s.TiltMin, s.TiltMax)
	fmt.Printf("  mean zoom:  %.2f\n", s.MeanZoom)

	title := "Session " + session.ID
	if session.Label != "" {
		title = session.Label
	}
	if *pngPath != "" {
		if err := report.SaveTrajectoryPlot(traj, title, *pngPath); err != nil {
			log.Fatalf("failed to save plot: %v", err)
		}
		log.Printf("wrote %s", *pngPath)
	}
	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *htmlPath, err)
		}
		if err := report.RenderChart(f, traj, title); err != nil {
			f.Close()
			log.Fatalf("failed to render chart: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("failed to write %s: %v", *htmlPath, err)
		}
		log.Printf("wrote %s", *htmlPath)
	}
}
