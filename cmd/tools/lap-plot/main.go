// Command lap-plot charts recorded lap times for one car in one session
// from a recording database produced by telemetryd.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gridline-data/apex.report/internal/db"
)

var (
	dbPath  = flag.String("db", "telemetry.db", "path to the recording database")
	session = flag.String("session", "", "session uid to chart (as stored, decimal)")
	car     = flag.Int("car", 0, "car index to chart")
	out     = flag.String("out", "laptimes.png", "output image path")
)

func main() {
	flag.Parse()

	if *session == "" {
		log.Fatal("-session is required")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	laps, err := database.SessionLaps(*session, *car)
	if err != nil {
		log.Fatalf("failed to query laps: %v", err)
	}
	if len(laps) == 0 {
		log.Fatalf("no laps recorded for session %s car %d", *session, *car)
	}

	pts := make(plotter.XYs, 0, len(laps))
	for _, lap := range laps {
		pts = append(pts, plotter.XY{
			X: float64(lap.LapNumber),
			Y: float64(lap.LapTimeMS) / 1000.0,
		})
	}

	p := plot.New()
	p.Title.Text = "Lap times"
	p.X.Label.Text = "Lap"
	p.Y.Label.Text = "Lap time (s)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build line: %v", err)
	}
	line.Width = vg.Points(1.5)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, *out); err != nil {
		log.Fatalf("failed to save chart: %v", err)
	}
	log.Printf("wrote %s (%d laps)", *out, len(laps))
}
