package telemetry

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// encodeHeader writes a header at its documented field offsets.
func encodeHeader(h PacketHeader) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.PacketFormat)
	buf[2] = h.GameYear
	buf[3] = h.GameMajorVersion
	buf[4] = h.GameMinorVersion
	buf[5] = h.PacketVersion
	buf[6] = h.PacketID
	binary.LittleEndian.PutUint64(buf[7:15], h.SessionUID)
	binary.LittleEndian.PutUint32(buf[15:19], math.Float32bits(h.SessionTime))
	binary.LittleEndian.PutUint32(buf[19:23], h.FrameIdentifier)
	buf[23] = h.PlayerCarIndex
	buf[24] = h.SecondaryPlayerCarIndex
	return buf
}

func TestDecodeHeader_RoundTrip(t *testing.T) {
	want := PacketHeader{
		PacketFormat:            2023,
		GameYear:                23,
		GameMajorVersion:        1,
		GameMinorVersion:        18,
		PacketVersion:           1,
		PacketID:                uint8(TagLapData),
		SessionUID:              0xDEADBEEFCAFEF00D,
		SessionTime:             123.456,
		FrameIdentifier:         99999,
		PlayerCarIndex:          19,
		SecondaryPlayerCarIndex: 255,
	}

	got, err := DecodeHeader(encodeHeader(want))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded header mismatch (-want +got):\n%s", diff)
	}
	if got.Tag() != TagLapData {
		t.Errorf("expected tag %v, got %v", TagLapData, got.Tag())
	}
}

// The header's packed struct layout must agree with the documented offsets:
// binary.Write of the struct and the hand-rolled encoder must byte-match.
func TestHeaderLayout_MatchesStruct(t *testing.T) {
	h := PacketHeader{
		PacketFormat:            2023,
		GameYear:                23,
		GameMajorVersion:        1,
		GameMinorVersion:        2,
		PacketVersion:           3,
		PacketID:                uint8(TagMotion),
		SessionUID:              42,
		SessionTime:             1.5,
		FrameIdentifier:         7,
		PlayerCarIndex:          0,
		SecondaryPlayerCarIndex: 255,
	}

	if size := binary.Size(h); size != HeaderSize {
		t.Fatalf("binary.Size(PacketHeader) = %d, want %d", size, HeaderSize)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		t.Fatalf("binary.Write failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), encodeHeader(h)) {
		t.Errorf("struct layout does not match documented offsets:\nstruct:  %x\noffsets: %x", buf.Bytes(), encodeHeader(h))
	}
}

func TestDecodeHeader_UnknownTagIsLegal(t *testing.T) {
	h := PacketHeader{PacketID: 200}
	got, err := DecodeHeader(encodeHeader(h))
	if err != nil {
		t.Fatalf("DecodeHeader rejected out-of-catalog tag: %v", err)
	}
	if got.PacketID != 200 {
		t.Errorf("expected PacketID 200, got %d", got.PacketID)
	}
}

func TestDecodeHeader_ShortBuffer(t *testing.T) {
	for _, n := range []int{0, 1, HeaderSize - 1} {
		if _, err := DecodeHeader(make([]byte, n)); err == nil {
			t.Errorf("DecodeHeader accepted %d-byte buffer", n)
		}
	}
}

func TestPacketTag_String(t *testing.T) {
	if got := TagCarTelemetry.String(); got != "CarTelemetry" {
		t.Errorf("expected 'CarTelemetry', got %q", got)
	}
	if got := PacketTag(99).String(); got != "PacketTag(99)" {
		t.Errorf("expected 'PacketTag(99)', got %q", got)
	}
}

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag("LapData")
	if !ok || tag != TagLapData {
		t.Errorf("ParseTag(LapData) = %v, %v", tag, ok)
	}
	if _, ok := ParseTag("NotAPacket"); ok {
		t.Error("ParseTag accepted unknown name")
	}
}
