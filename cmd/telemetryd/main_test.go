package main

import (
	"testing"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

func TestParsePackets(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []telemetry.PacketTag
		wantErr bool
	}{
		{name: "all keyword", value: "all", want: nil},
		{name: "empty means all", value: "", want: nil},
		{name: "single type", value: "LapData", want: []telemetry.PacketTag{telemetry.TagLapData}},
		{
			name:  "multiple with spaces",
			value: "LapData, CarTelemetry ,Event",
			want:  []telemetry.PacketTag{telemetry.TagLapData, telemetry.TagCarTelemetry, telemetry.TagEvent},
		},
		{name: "unknown type", value: "LapData,Bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePackets(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tag %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}
