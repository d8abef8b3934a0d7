package telemetry

import "fmt"

// PacketTag identifies the packet type carried by a datagram. The tag is
// embedded in the header of every packet and selects the decoded record
// layout for the bytes that follow.
type PacketTag uint8

const (
	TagMotion              PacketTag = 0  // world-space motion for every car
	TagSession             PacketTag = 1  // track, weather, rules
	TagLapData             PacketTag = 2  // per-car lap timing
	TagEvent               PacketTag = 3  // session events (code + raw detail)
	TagParticipants        PacketTag = 4  // driver roster
	TagCarSetups           PacketTag = 5  // per-car setup sheets
	TagCarTelemetry        PacketTag = 6  // speed, pedals, temperatures
	TagCarStatus           PacketTag = 7  // fuel, ERS, flags
	TagFinalClassification PacketTag = 8  // end-of-session results
	TagLobbyInfo           PacketTag = 9  // multiplayer lobby roster
	TagCarDamage           PacketTag = 10 // wear and damage levels
	TagSessionHistory      PacketTag = 11 // lap/stint history for one car
	TagTyreSets            PacketTag = 12 // tyre set allocation for one car
	TagMotionEx            PacketTag = 13 // extended player-car physics
)

var tagNames = map[PacketTag]string{
	TagMotion:              "Motion",
	TagSession:             "Session",
	TagLapData:             "LapData",
	TagEvent:               "Event",
	TagParticipants:        "Participants",
	TagCarSetups:           "CarSetups",
	TagCarTelemetry:        "CarTelemetry",
	TagCarStatus:           "CarStatus",
	TagFinalClassification: "FinalClassification",
	TagLobbyInfo:           "LobbyInfo",
	TagCarDamage:           "CarDamage",
	TagSessionHistory:      "SessionHistory",
	TagTyreSets:            "TyreSets",
	TagMotionEx:            "MotionEx",
}

func (t PacketTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PacketTag(%d)", uint8(t))
}

// ParseTag resolves a tag name as used on the command line (case-sensitive,
// matching String output) back to its numeric value.
func ParseTag(name string) (PacketTag, bool) {
	for tag, n := range tagNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}
