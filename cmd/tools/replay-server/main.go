// Command replay-server replays a captured telemetry session from a PCAP
// file to a UDP destination, preserving the original packet timing. Requires
// the pcap build tag; without it the command reports that replay support is
// not compiled in.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
)

var (
	pcapFile = flag.String("pcap", "", "PCAP file containing a captured telemetry session")
	udpPort  = flag.Int("port", 20777, "UDP port the capture was recorded on (BPF filter)")
	target   = flag.String("target", "127.0.0.1:20777", "UDP destination to replay to")
	speed    = flag.Float64("speed", 1.0, "replay speed multiplier (1.0 = real time)")
)

func main() {
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := replay(ctx, *pcapFile, *udpPort, *target, *speed); err != nil && err != context.Canceled {
		log.Fatalf("replay failed: %v", err)
	}
}
