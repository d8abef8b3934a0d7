// Command sim-sender emits synthetic, well-formed telemetry datagrams to a
// UDP destination. Useful for exercising telemetryd without a running sim.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"log"
	"math"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

var (
	target   = flag.String("target", "127.0.0.1:20777", "UDP destination address")
	rate     = flag.Duration("interval", 50*time.Millisecond, "interval between telemetry frames")
	duration = flag.Duration("duration", 0, "how long to send (0 = until interrupted)")
)

func encode(v interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		log.Fatalf("failed to encode packet: %v", err)
	}
	return buf.Bytes()
}

func header(tag telemetry.PacketTag, frame uint32, sessionTime float32) telemetry.PacketHeader {
	return telemetry.PacketHeader{
		PacketFormat:            2023,
		GameYear:                23,
		GameMajorVersion:        1,
		PacketVersion:           1,
		PacketID:                uint8(tag),
		SessionUID:              0xFEEDC0DE,
		SessionTime:             sessionTime,
		FrameIdentifier:         frame,
		PlayerCarIndex:          0,
		SecondaryPlayerCarIndex: 255,
	}
}

func main() {
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		log.Fatalf("failed to resolve %s: %v", *target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *target, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	log.Printf("sending synthetic telemetry to %s every %v", *target, *rate)

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	start := time.Now()
	var frame uint32
	var sent int
	for {
		select {
		case <-ctx.Done():
			log.Printf("done: %d datagrams sent", sent)
			return
		case <-ticker.C:
			frame++
			sessionTime := float32(time.Since(start).Seconds())

			// a plausible speed trace: oscillate between 80 and 320 km/h
			speed := uint16(200 + 120*math.Sin(float64(sessionTime)/5))

			ct := &telemetry.CarTelemetryPacket{Header: header(telemetry.TagCarTelemetry, frame, sessionTime)}
			ct.Cars[0] = telemetry.CarTelemetryData{
				Speed:     speed,
				Throttle:  0.8,
				Gear:      6,
				EngineRPM: uint16(9000 + 20*speed),
				DRS:       1,
			}

			lap := &telemetry.LapDataPacket{Header: header(telemetry.TagLapData, frame, sessionTime)}
			lap.Cars[0] = telemetry.LapData{
				CurrentLapTimeInMS: uint32(sessionTime*1000) % 90000,
				CurrentLapNum:      uint8(sessionTime/90) + 1,
				CarPosition:        1,
				LastLapTimeInMS:    89500,
			}
			if lap.Cars[0].CurrentLapNum < 2 {
				lap.Cars[0].LastLapTimeInMS = 0
			}

			for _, pkt := range []interface{}{ct, lap} {
				if _, err := conn.Write(encode(pkt)); err != nil {
					log.Printf("send failed: %v", err)
					continue
				}
				sent++
			}
		}
	}
}
