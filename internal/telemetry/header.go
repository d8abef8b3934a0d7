package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed number of bytes occupied by the packed header at
// the start of every datagram. Fields are little-endian with no padding.
const HeaderSize = 25

// PacketHeader is the common header shared by every packet type. Field
// offsets are fixed by the wire layout:
//
//	 0  PacketFormat            uint16
//	 2  GameYear                uint8
//	 3  GameMajorVersion        uint8
//	 4  GameMinorVersion        uint8
//	 5  PacketVersion           uint8
//	 6  PacketID                uint8
//	 7  SessionUID              uint64
//	15  SessionTime             float32
//	19  FrameIdentifier         uint32
//	23  PlayerCarIndex          uint8
//	24  SecondaryPlayerCarIndex uint8
type PacketHeader struct {
	PacketFormat            uint16  // wire format revision (e.g. 2023)
	GameYear                uint8   // last two digits of the game year
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8   // layout revision of this packet type
	PacketID                uint8   // PacketTag value selecting the payload layout
	SessionUID              uint64  // unique id for the running session
	SessionTime             float32 // seconds since session start
	FrameIdentifier         uint32  // sim frame the data was sourced from
	PlayerCarIndex          uint8   // index of the player's car in the car arrays
	SecondaryPlayerCarIndex uint8   // 255 when there is no second player
}

// Tag returns the header's packet type tag.
func (h PacketHeader) Tag() PacketTag { return PacketTag(h.PacketID) }

// DecodeHeader extracts the common header from the first HeaderSize bytes of
// a datagram. It performs no validation of field values: an out-of-catalog
// PacketID is a legal header, just unrecognised downstream. The only failure
// is a buffer shorter than the header.
func DecodeHeader(data []byte) (PacketHeader, error) {
	if len(data) < HeaderSize {
		return PacketHeader{}, fmt.Errorf("short header: need %d bytes, have %d", HeaderSize, len(data))
	}

	return PacketHeader{
		PacketFormat:            binary.LittleEndian.Uint16(data[0:2]),
		GameYear:                data[2],
		GameMajorVersion:        data[3],
		GameMinorVersion:        data[4],
		PacketVersion:           data[5],
		PacketID:                data[6],
		SessionUID:              binary.LittleEndian.Uint64(data[7:15]),
		SessionTime:             math.Float32frombits(binary.LittleEndian.Uint32(data[15:19])),
		FrameIdentifier:         binary.LittleEndian.Uint32(data[19:23]),
		PlayerCarIndex:          data[23],
		SecondaryPlayerCarIndex: data[24],
	}, nil
}
