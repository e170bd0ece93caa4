package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/banshee-data/ptz-tracker/internal/db"
)

func lineData(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			out[i] = opts.LineData{Value: "-"}
			continue
		}
		out[i] = opts.LineData{Value: x}
	}
	return out
}

// RenderChart writes an HTML line chart of pan, tilt and zoom.
func RenderChart(w io.Writer, t Trajectory, title string) error {
	x := make([]string, t.Len())
	for i, s := range t.Seconds {
		x[i] = fmt.Sprintf("%.1f", s)
	}
	sum := Summarise(t)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "ptz-tracker session", Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("ticks=%d tracked=%.0f%% searches=%d", sum.Ticks, sum.TrackFraction*100, sum.Searches),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "deg", Min: -90, Max: 90}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).
		AddSeries("pan", lineData(t.Pan)).
		AddSeries("tilt", lineData(t.Tilt)).
		AddSeries("zoom", lineData(t.Zoom))

	return line.Render(w)
}

// SessionSource is the part of db.DB the trajectory route reads.
type SessionSource interface {
	GetSession(id string) (db.Session, error)
	LatestSession() (db.Session, error)
	SessionTicks(id string) ([]db.TickRow, error)
}

// AttachAdminRoutes serves /debug/trajectory, a chart of the session named by
// the "session" query parameter or of the latest session.
func AttachAdminRoutes(mux *http.ServeMux, sessions SessionSource) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("trajectory", "pan/tilt/zoom chart of a recorded session", func(w http.ResponseWriter, r *http.Request) {
		var (
			session db.Session
			err     error
		)
		if id := r.URL.Query().Get("session"); id != "" {
			session, err = sessions.GetSession(id)
		} else {
			session, err = sessions.LatestSession()
		}
		if errors.Is(err, db.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load session: %v", err), http.StatusInternalServerError)
			return
		}

		ticks, err := sessions.SessionTicks(session.ID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load ticks: %v", err), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		title := fmt.Sprintf("Session %s", session.ID)
		if session.Label != "" {
			title = fmt.Sprintf("%s (%s)", title, session.Label)
		}
		if err := RenderChart(&buf, NewTrajectory(ticks), title); err != nil {
			http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
