// Package dashboard bridges live telemetry to a serial-attached pit display.
// The display protocol is one ASCII line per sample: "S<kmh> R<rpm> G<gear>".
package dashboard

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/gridline-data/apex.report/internal/monitoring"
	"github.com/gridline-data/apex.report/internal/telemetry"
)

// Porter is the minimal interface needed for the display port. The
// abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.Writer
	io.Closer
}

// OpenPort opens the serial device for a real display.
func OpenPort(path string) (Porter, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, fmt.Errorf("failed to open display port %s: %w", path, err)
	}
	return port, nil
}

// Source is the subset of the network client the forwarder needs.
type Source interface {
	Subscribe(tag telemetry.PacketTag) (string, <-chan telemetry.Packet)
	Unsubscribe(id string)
}

// Forwarder subscribes to car telemetry and writes the player's speed, RPM
// and gear to the display port.
type Forwarder struct {
	port   Porter
	source Source
}

// NewForwarder creates a forwarder writing to the given port.
func NewForwarder(port Porter, source Source) *Forwarder {
	return &Forwarder{port: port, source: source}
}

// Run forwards samples until the context is cancelled or the telemetry
// stream closes. Write errors are logged and skipped: a glitching display
// must not take down the receive path.
func (f *Forwarder) Run(ctx context.Context) error {
	id, ch := f.source.Subscribe(telemetry.TagCarTelemetry)
	defer f.source.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-ch:
			if !ok {
				return nil
			}
			ct, ok := pkt.(*telemetry.CarTelemetryPacket)
			if !ok {
				continue
			}
			if err := f.writeSample(ct.Player()); err != nil {
				monitoring.Logf("display write failed: %v", err)
			}
		}
	}
}

func (f *Forwarder) writeSample(t telemetry.CarTelemetryData) error {
	_, err := fmt.Fprintf(f.port, "S%d R%d G%d\n", t.Speed, t.EngineRPM, t.Gear)
	return err
}
