package api

import (
	"fmt"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

// AttachAdminRoutes mounts debugging endpoints on the given mux under
// /debug/. These routes are reachable only over localhost/Tailscale.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Live tail of decoded packets as Server-Sent Events, one summary line
	// per packet across every enabled type.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // disable buffering for nginx

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		// Merge every enabled packet stream into one line channel.
		lines := make(chan string, 64)
		var ids []string
		for _, tag := range s.source.EnabledTags() {
			id, ch := s.source.Subscribe(tag)
			ids = append(ids, id)
			go func(tag telemetry.PacketTag, ch <-chan telemetry.Packet) {
				for pkt := range ch {
					select {
					case lines <- summariseLine(tag, pkt):
					default:
					}
				}
			}(tag, ch)
		}
		defer func() {
			for _, id := range ids {
				s.source.Unsubscribe(id)
			}
		}()

		// Initial ping to establish the stream.
		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case line := <-lines:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}

// summariseLine renders a one-line description of a decoded packet for the
// admin tail stream.
func summariseLine(tag telemetry.PacketTag, pkt telemetry.Packet) string {
	switch p := pkt.(type) {
	case *telemetry.CarTelemetryPacket:
		player := p.Player()
		return fmt.Sprintf("%s frame=%d speed=%d rpm=%d gear=%d",
			tag, p.Header.FrameIdentifier, player.Speed, player.EngineRPM, player.Gear)
	case *telemetry.LapDataPacket:
		lap := p.Cars[int(p.Header.PlayerCarIndex)%telemetry.MaxCars]
		return fmt.Sprintf("%s frame=%d lap=%d pos=%d current_ms=%d",
			tag, p.Header.FrameIdentifier, lap.CurrentLapNum, lap.CarPosition, lap.CurrentLapTimeInMS)
	case *telemetry.EventPacket:
		return fmt.Sprintf("%s frame=%d code=%s", tag, p.Header.FrameIdentifier, p.CodeString())
	default:
		return tag.String()
	}
}
