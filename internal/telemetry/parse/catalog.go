// Package parse holds the packet catalog: the static mapping from packet
// type tag to wire size and decode function. The catalog is immutable after
// construction and safe for concurrent use.
package parse

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

// Entry describes one known packet type.
type Entry struct {
	// Size is the exact datagram length in bytes (header included) declared
	// for this packet type. Datagrams shorter than Size fail to decode;
	// bytes beyond Size are tolerated and ignored (sim-specific trailing
	// padding).
	Size int

	// Decode produces the typed record for this tag from a full datagram.
	Decode func(data []byte) (telemetry.Packet, error)
}

// Catalog is the set of known packet types. Tags absent from the catalog are
// not an error condition: the dispatcher skips them the same way it skips
// disabled tags.
type Catalog struct {
	entries map[telemetry.PacketTag]Entry
}

// newEntry builds a catalog entry for the packet type P. The declared size is
// computed from the packed little-endian layout of P, and the decoder reads
// the whole datagram (header included) field by field into a fresh value, so
// no decoded packet retains a reference into the receive buffer.
func newEntry[P any, PP interface {
	*P
	telemetry.Packet
}]() Entry {
	var zero P
	size := binary.Size(zero)

	return Entry{
		Size: size,
		Decode: func(data []byte) (telemetry.Packet, error) {
			if len(data) < size {
				return nil, fmt.Errorf("short payload: need %d bytes, have %d", size, len(data))
			}
			pkt := PP(new(P))
			if err := binary.Read(bytes.NewReader(data[:size]), binary.LittleEndian, pkt); err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
			return pkt, nil
		},
	}
}

// NewCatalog builds the catalog of every known packet type. The mapping is
// defined once here and never mutated.
func NewCatalog() *Catalog {
	return &Catalog{entries: map[telemetry.PacketTag]Entry{
		telemetry.TagMotion:              newEntry[telemetry.MotionPacket](),
		telemetry.TagSession:             newEntry[telemetry.SessionPacket](),
		telemetry.TagLapData:             newEntry[telemetry.LapDataPacket](),
		telemetry.TagEvent:               newEntry[telemetry.EventPacket](),
		telemetry.TagParticipants:        newEntry[telemetry.ParticipantsPacket](),
		telemetry.TagCarSetups:           newEntry[telemetry.CarSetupsPacket](),
		telemetry.TagCarTelemetry:        newEntry[telemetry.CarTelemetryPacket](),
		telemetry.TagCarStatus:           newEntry[telemetry.CarStatusPacket](),
		telemetry.TagFinalClassification: newEntry[telemetry.FinalClassificationPacket](),
		telemetry.TagLobbyInfo:           newEntry[telemetry.LobbyInfoPacket](),
		telemetry.TagCarDamage:           newEntry[telemetry.CarDamagePacket](),
		telemetry.TagSessionHistory:      newEntry[telemetry.SessionHistoryPacket](),
		telemetry.TagTyreSets:            newEntry[telemetry.TyreSetsPacket](),
		telemetry.TagMotionEx:            newEntry[telemetry.MotionExPacket](),
	}}
}

// Lookup returns the entry for the given tag. The second return is false for
// tags the catalog does not know.
func (c *Catalog) Lookup(tag telemetry.PacketTag) (Entry, bool) {
	e, ok := c.entries[tag]
	return e, ok
}

// Tags returns every known tag in ascending order.
func (c *Catalog) Tags() []telemetry.PacketTag {
	tags := make([]telemetry.PacketTag, 0, len(c.entries))
	for tag := range c.entries {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
