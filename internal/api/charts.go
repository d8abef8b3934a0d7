package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleSpeedChart renders the retained player speed trace as an HTML line
// chart. This is a debugging view, not part of the stable API.
func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	samples := s.speedSamples()
	if len(samples) == 0 {
		writeJSONError(w, http.StatusNotFound, "no speed samples yet")
		return
	}

	xs := make([]string, len(samples))
	data := make([]opts.LineData, len(samples))
	for i, v := range samples {
		xs[i] = fmt.Sprintf("%d", i-len(samples))
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Player speed trace", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Player speed", Subtitle: fmt.Sprintf("last %d samples (km/h)", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km/h"}),
	)
	line.SetXAxis(xs)
	line.AddSeries("speed", data)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
