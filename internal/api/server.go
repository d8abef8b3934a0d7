// Package api serves the HTTP status and monitoring surface for a running
// telemetry client: liveness, receive counters, recent laps and a live
// speed trace.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gridline-data/apex.report/internal/db"
	"github.com/gridline-data/apex.report/internal/telemetry"
	"github.com/gridline-data/apex.report/internal/telemetry/network"
)

// speedRingSize bounds the retained speed trace; at the sim's 20Hz rate this
// is about 30 seconds of samples.
const speedRingSize = 600

// TelemetrySource is the subset of the network client the server needs.
type TelemetrySource interface {
	Connected() bool
	LastPacket() time.Time
	EnabledTags() []telemetry.PacketTag
	Subscribe(tag telemetry.PacketTag) (string, <-chan telemetry.Packet)
	Unsubscribe(id string)
}

// Server exposes client state over HTTP. Construct with NewServer, start the
// sampling goroutine with Start, and mount ServeMux under /api/.
type Server struct {
	source TelemetrySource
	stats  *network.PacketStats
	db     *db.DB

	mu     sync.Mutex
	speeds []float64 // ring of recent player speed samples, km/h
	next   int
	filled bool
}

// NewServer creates an API server. stats and database may be nil; the
// corresponding endpoints degrade gracefully.
func NewServer(source TelemetrySource, stats *network.PacketStats, database *db.DB) *Server {
	return &Server{
		source: source,
		stats:  stats,
		db:     database,
		speeds: make([]float64, speedRingSize),
	}
}

// Start launches the speed sampling goroutine. It subscribes to the car
// telemetry stream and keeps a ring of the player's recent speed samples for
// the status summary and the chart endpoint. Returns immediately.
func (s *Server) Start(ctx context.Context) {
	id, ch := s.source.Subscribe(telemetry.TagCarTelemetry)
	go func() {
		defer s.source.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case pkt, ok := <-ch:
				if !ok {
					return
				}
				if ct, ok := pkt.(*telemetry.CarTelemetryPacket); ok {
					s.addSpeed(float64(ct.Player().Speed))
				}
			}
		}
	}()
}

func (s *Server) addSpeed(kmh float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speeds[s.next] = kmh
	s.next++
	if s.next == len(s.speeds) {
		s.next = 0
		s.filled = true
	}
}

// speedSamples returns the retained samples in arrival order.
func (s *Server) speedSamples() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.filled {
		return append([]float64(nil), s.speeds[:s.next]...)
	}
	out := make([]float64, 0, len(s.speeds))
	out = append(out, s.speeds[s.next:]...)
	out = append(out, s.speeds[:s.next]...)
	return out
}

// SpeedSummary describes the retained speed trace.
type SpeedSummary struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_kmh"`
	StdDev  float64 `json:"stddev_kmh"`
	Max     float64 `json:"max_kmh"`
}

func summarise(samples []float64) SpeedSummary {
	sum := SpeedSummary{Samples: len(samples)}
	if len(samples) == 0 {
		return sum
	}
	sum.Mean = stat.Mean(samples, nil)
	if len(samples) > 1 {
		sum.StdDev = stat.StdDev(samples, nil)
	}
	for _, v := range samples {
		if v > sum.Max {
			sum.Max = v
		}
	}
	return sum
}

// ServeMux returns the API routes, intended to be mounted under /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/laps", s.handleLaps)
	mux.HandleFunc("/charts/speed", s.handleSpeedChart)
	return mux
}

type statusResponse struct {
	Connected  bool                   `json:"connected"`
	LastPacket time.Time              `json:"last_packet"`
	Enabled    []string               `json:"enabled_packets"`
	Stats      *network.StatsSnapshot `json:"stats,omitempty"`
	Speed      SpeedSummary           `json:"speed"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Connected:  s.source.Connected(),
		LastPacket: s.source.LastPacket(),
		Speed:      summarise(s.speedSamples()),
	}
	for _, tag := range s.source.EnabledTags() {
		resp.Enabled = append(resp.Enabled, tag.String())
	}
	if s.stats != nil {
		snap := s.stats.Snapshot()
		resp.Stats = &snap
	}
	writeJSON(w, resp)
}

func (s *Server) handleLaps(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSONError(w, http.StatusNotFound, "no recording database configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	laps, err := s.db.RecentLaps(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query laps: %v", err))
		return
	}
	writeJSON(w, laps)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
