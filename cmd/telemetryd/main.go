// Command telemetryd receives the sim's UDP telemetry broadcast, records
// laps and results to a local SQLite database, optionally drives a serial
// pit display, and serves a status API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gridline-data/apex.report/internal/api"
	"github.com/gridline-data/apex.report/internal/dashboard"
	"github.com/gridline-data/apex.report/internal/db"
	"github.com/gridline-data/apex.report/internal/telemetry"
	"github.com/gridline-data/apex.report/internal/telemetry/network"
	"github.com/gridline-data/apex.report/internal/version"
)

var (
	port          = flag.Int("port", 20777, "UDP port to listen on (must match the sim's configured destination)")
	timeout       = flag.Duration("timeout", network.DefaultTimeout, "liveness window: connection is flagged lost after this long without traffic")
	packets       = flag.String("packets", "all", "comma-separated packet types to decode (e.g. LapData,CarTelemetry), or 'all'")
	dbPath        = flag.String("db", "telemetry.db", "path to the recording database (empty disables recording)")
	listen        = flag.String("listen", ":8080", "HTTP listen address for the status API (empty disables)")
	serialDevice  = flag.String("serial", "", "serial device for the pit display (empty disables)")
	statsInterval = flag.Duration("stats-interval", time.Minute, "interval between receive statistics log lines")
	showVersion   = flag.Bool("version", false, "print build information and exit")
)

// parsePackets resolves the -packets flag into an enabled set, nil meaning
// every known type.
func parsePackets(value string) ([]telemetry.PacketTag, error) {
	if value == "" || value == "all" {
		return nil, nil
	}
	var tags []telemetry.PacketTag
	for _, name := range strings.Split(value, ",") {
		tag, ok := telemetry.ParseTag(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown packet type %q", name)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("telemetryd " + version.String())
		os.Exit(0)
	}

	enabled, err := parsePackets(*packets)
	if err != nil {
		log.Fatalf("invalid -packets: %v", err)
	}

	log.Printf("telemetryd %s starting", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var database *db.DB
	if *dbPath != "" {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open recording database: %v", err)
		}
		defer database.Close()
	}

	stats := network.NewPacketStats()
	client, err := network.Listen(network.Config{
		Port:           *port,
		EnabledPackets: enabled,
		Timeout:        *timeout,
		Stats:          stats,
		LogInterval:    *statsInterval,
	})
	if err != nil {
		log.Fatalf("failed to start telemetry listener: %v", err)
	}
	defer client.Close()

	var wg sync.WaitGroup

	// log liveness transitions
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, ch := client.SubscribeStatus()
		defer client.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case connected, ok := <-ch:
				if !ok {
					return
				}
				log.Printf("telemetry feed connected=%v", connected)
			}
		}
	}()

	if database != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recordLoop(ctx, client, database)
		}()
	}

	if *serialDevice != "" {
		display, err := dashboard.OpenPort(*serialDevice)
		if err != nil {
			log.Fatalf("failed to open pit display: %v", err)
		}
		defer display.Close()

		fwd := dashboard.NewForwarder(display, client)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fwd.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("display forwarder stopped: %v", err)
			}
		}()
	}

	if *listen != "" {
		server := api.NewServer(client, stats, database)
		server.Start(ctx)

		mux := http.NewServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", server.ServeMux()))
		server.AttachAdminRoutes(mux)
		if database != nil {
			database.AttachAdminRoutes(mux)
		}

		httpServer := &http.Server{Addr: *listen, Handler: mux}

		wg.Add(1)
		go func() {
			defer wg.Done()

			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start HTTP server: %v", err)
				}
			}()

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}()

		log.Printf("status API listening on %s", *listen)
	}

	<-ctx.Done()
	wg.Wait()
	log.Print("graceful shutdown complete")
}

// recordLoop persists completed laps and final classifications. LapData
// gives prompt lap times; SessionHistory later overwrites them with full
// sector splits for the same lap rows.
func recordLoop(ctx context.Context, client *network.Client, database *db.DB) {
	lapID, lapCh := client.Subscribe(telemetry.TagLapData)
	histID, histCh := client.Subscribe(telemetry.TagSessionHistory)
	classID, classCh := client.Subscribe(telemetry.TagFinalClassification)
	defer client.Unsubscribe(lapID)
	defer client.Unsubscribe(histID)
	defer client.Unsubscribe(classID)

	seenSessions := make(map[uint64]bool)
	ensure := func(hdr telemetry.PacketHeader) {
		if seenSessions[hdr.SessionUID] {
			return
		}
		if err := database.EnsureSession(hdr.SessionUID, hdr.PacketFormat); err != nil {
			log.Printf("failed to record session: %v", err)
			return
		}
		seenSessions[hdr.SessionUID] = true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case pkt, ok := <-lapCh:
			if !ok {
				return
			}
			p, ok := pkt.(*telemetry.LapDataPacket)
			if !ok {
				continue
			}
			ensure(p.Header)
			for i, lap := range p.Cars {
				if lap.LastLapTimeInMS == 0 || lap.CurrentLapNum < 2 {
					continue
				}
				if err := database.RecordLap(p.Header.SessionUID, i, int(lap.CurrentLapNum)-1, lap.LastLapTimeInMS, 0, 0); err != nil {
					log.Printf("failed to record lap: %v", err)
				}
			}

		case pkt, ok := <-histCh:
			if !ok {
				return
			}
			p, ok := pkt.(*telemetry.SessionHistoryPacket)
			if !ok {
				continue
			}
			ensure(p.Header)
			for n := 0; n < int(p.NumLaps) && n < len(p.Laps); n++ {
				lap := p.Laps[n]
				if lap.LapTimeInMS == 0 {
					continue
				}
				if err := database.RecordLap(p.Header.SessionUID, int(p.CarIdx), n+1, lap.LapTimeInMS, lap.Sector1TimeInMS, lap.Sector2TimeInMS); err != nil {
					log.Printf("failed to record lap history: %v", err)
				}
			}

		case pkt, ok := <-classCh:
			if !ok {
				return
			}
			p, ok := pkt.(*telemetry.FinalClassificationPacket)
			if !ok {
				continue
			}
			ensure(p.Header)
			for i := 0; i < int(p.NumCars) && i < telemetry.MaxCars; i++ {
				if err := database.RecordClassification(p.Header.SessionUID, i, p.Cars[i]); err != nil {
					log.Printf("failed to record classification: %v", err)
				}
			}
		}
	}
}
