package dashboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

// mockPort captures display writes in memory.
type mockPort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	failed bool
}

func (p *mockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return 0, errors.New("display unplugged")
	}
	return p.buf.Write(b)
}

func (p *mockPort) Close() error { return nil }

func (p *mockPort) lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := strings.TrimSuffix(p.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

type mockSource struct {
	ch chan telemetry.Packet
}

func (s *mockSource) Subscribe(telemetry.PacketTag) (string, <-chan telemetry.Packet) {
	return "mock", s.ch
}
func (s *mockSource) Unsubscribe(string) {}

func samplePacket(speed uint16, rpm uint16, gear int8) *telemetry.CarTelemetryPacket {
	pkt := &telemetry.CarTelemetryPacket{}
	pkt.Cars[0].Speed = speed
	pkt.Cars[0].EngineRPM = rpm
	pkt.Cars[0].Gear = gear
	return pkt
}

func TestForwarder_WritesDisplayLines(t *testing.T) {
	port := &mockPort{}
	source := &mockSource{ch: make(chan telemetry.Packet, 4)}

	source.ch <- samplePacket(287, 11400, 7)
	source.ch <- samplePacket(120, 6500, 3)
	close(source.ch)

	fwd := NewForwarder(port, source)
	if err := fwd.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	lines := port.lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 display lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "S287 R11400 G7" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "S120 R6500 G3" {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestForwarder_SurvivesWriteErrors(t *testing.T) {
	port := &mockPort{failed: true}
	source := &mockSource{ch: make(chan telemetry.Packet, 4)}

	source.ch <- samplePacket(100, 5000, 2)
	close(source.ch)

	fwd := NewForwarder(port, source)
	if err := fwd.Run(context.Background()); err != nil {
		t.Fatalf("write error must not abort the forwarder: %v", err)
	}
}

func TestForwarder_StopsOnContextCancel(t *testing.T) {
	port := &mockPort{}
	source := &mockSource{ch: make(chan telemetry.Packet)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	fwd := NewForwarder(port, source)
	go func() { done <- fwd.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop on cancel")
	}
}
