//go:build pcap
// +build pcap

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// replay reads the capture and resends each UDP payload to the target,
// sleeping between packets to reproduce the original pacing scaled by the
// speed multiplier.
func replay(ctx context.Context, pcapFile string, udpPort int, target string, speed float64) error {
	if speed <= 0 {
		speed = 1.0
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
	}

	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return fmt.Errorf("failed to resolve target %s: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("failed to dial target %s: %w", target, err)
	}
	defer conn.Close()

	log.Printf("replaying %s to %s (filter %q, speed %.1fx)", pcapFile, target, filter, speed)

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	var lastCapture time.Time
	count := 0
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Printf("replay stopping after %d packets", count)
			return ctx.Err()
		case packet := <-source.Packets():
			if packet == nil {
				log.Printf("replay complete: %d packets in %v", count, time.Since(start))
				return nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			captureTime := packet.Metadata().Timestamp
			if !lastCapture.IsZero() {
				delay := time.Duration(float64(captureTime.Sub(lastCapture)) / speed)
				if delay > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(delay):
					}
				}
			}
			lastCapture = captureTime

			if _, err := conn.Write(udp.Payload); err != nil {
				log.Printf("send failed: %v", err)
				continue
			}
			count++

			if count%10000 == 0 {
				log.Printf("replay progress: %d packets in %v", count, time.Since(start))
			}
		}
	}
}
