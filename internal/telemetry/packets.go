package telemetry

import "bytes"

// MaxCars is the number of car slots carried by the multi-car packet types.
// Unused slots are zero-filled by the sim.
const MaxCars = 22

// Packet is the interface satisfied by every decoded packet variant. Decoded
// packets are pure values: decoding copies every field out of the receive
// buffer, so the buffer may be reused as soon as decode returns.
type Packet interface {
	Tag() PacketTag
}

// CarMotionData is one car's world-space motion sample.
type CarMotionData struct {
	WorldPositionX     float32
	WorldPositionY     float32
	WorldPositionZ     float32
	WorldVelocityX     float32
	WorldVelocityY     float32
	WorldVelocityZ     float32
	WorldForwardDirX   int16 // normalised direction, divide by 32767
	WorldForwardDirY   int16
	WorldForwardDirZ   int16
	WorldRightDirX     int16
	WorldRightDirY     int16
	WorldRightDirZ     int16
	GForceLateral      float32
	GForceLongitudinal float32
	GForceVertical     float32
	Yaw                float32
	Pitch              float32
	Roll               float32
}

// MotionPacket carries a motion sample for every car on track.
type MotionPacket struct {
	Header PacketHeader
	Cars   [MaxCars]CarMotionData
}

func (*MotionPacket) Tag() PacketTag { return TagMotion }

// MarshalZone is one marshal-flag zone along the lap.
type MarshalZone struct {
	ZoneStart float32 // fraction of the lap at which the zone starts
	ZoneFlag  int8
}

// SessionPacket describes the running session: track, weather and rules.
type SessionPacket struct {
	Header              PacketHeader
	Weather             uint8
	TrackTemperature    int8
	AirTemperature      int8
	TotalLaps           uint8
	TrackLength         uint16 // metres
	SessionType         uint8
	TrackID             int8
	Formula             uint8
	SessionTimeLeft     uint16
	SessionDuration     uint16
	PitSpeedLimit       uint8 // km/h
	GamePaused          uint8
	IsSpectating        uint8
	SpectatorCarIndex   uint8
	SLIProNativeSupport uint8
	NumMarshalZones     uint8
	MarshalZones        [21]MarshalZone
	SafetyCarStatus     uint8
	NetworkGame         uint8
}

func (*SessionPacket) Tag() PacketTag { return TagSession }

// LapData is one car's lap timing state.
type LapData struct {
	LastLapTimeInMS    uint32
	CurrentLapTimeInMS uint32
	Sector1TimeInMS    uint16
	Sector2TimeInMS    uint16
	LapDistance        float32 // metres into the current lap, negative before the line
	TotalDistance      float32
	SafetyCarDelta     float32
	CarPosition        uint8
	CurrentLapNum      uint8
	PitStatus          uint8
	NumPitStops        uint8
	Sector             uint8
	CurrentLapInvalid  uint8
	Penalties          uint8 // accumulated penalty seconds
	Warnings           uint8
	GridPosition       uint8
	DriverStatus       uint8
	ResultStatus       uint8
}

// LapDataPacket carries lap timing for every car plus the time-trial rivals.
type LapDataPacket struct {
	Header               PacketHeader
	Cars                 [MaxCars]LapData
	TimeTrialPBCarIdx    uint8
	TimeTrialRivalCarIdx uint8
}

func (*LapDataPacket) Tag() PacketTag { return TagLapData }

// EventPacket signals a session event. The detail bytes are event-specific
// and are carried raw: interpreting them is the subscriber's business.
type EventPacket struct {
	Header  PacketHeader
	Code    [4]byte // four-character event code, e.g. "SSTA", "FTLP"
	Details [12]byte
}

func (*EventPacket) Tag() PacketTag { return TagEvent }

// CodeString returns the four-character event code as a string.
func (p *EventPacket) CodeString() string {
	return string(bytes.TrimRight(p.Code[:], "\x00"))
}

// ParticipantData is one entry in the driver roster.
type ParticipantData struct {
	AIControlled  uint8
	DriverID      uint8
	NetworkID     uint8
	TeamID        uint8
	MyTeam        uint8
	RaceNumber    uint8
	Nationality   uint8
	Name          [48]byte // UTF-8, NUL padded
	YourTelemetry uint8    // 0 = restricted, 1 = public
}

// NameString returns the participant name with NUL padding removed.
func (p ParticipantData) NameString() string {
	return string(bytes.TrimRight(p.Name[:], "\x00"))
}

// ParticipantsPacket carries the driver roster.
type ParticipantsPacket struct {
	Header        PacketHeader
	NumActiveCars uint8
	Participants  [MaxCars]ParticipantData
}

func (*ParticipantsPacket) Tag() PacketTag { return TagParticipants }

// CarSetupData is one car's setup sheet.
type CarSetupData struct {
	FrontWing              uint8
	RearWing               uint8
	OnThrottle             uint8
	OffThrottle            uint8
	FrontCamber            float32
	RearCamber             float32
	FrontToe               float32
	RearToe                float32
	FrontSuspension        uint8
	RearSuspension         uint8
	FrontAntiRollBar       uint8
	RearAntiRollBar        uint8
	FrontSuspensionHeight  uint8
	RearSuspensionHeight   uint8
	BrakePressure          uint8
	BrakeBias              uint8
	RearLeftTyrePressure   float32
	RearRightTyrePressure  float32
	FrontLeftTyrePressure  float32
	FrontRightTyrePressure float32
	Ballast                uint8
	FuelLoad               float32
}

// CarSetupsPacket carries the setup sheet for every car.
type CarSetupsPacket struct {
	Header PacketHeader
	Cars   [MaxCars]CarSetupData
}

func (*CarSetupsPacket) Tag() PacketTag { return TagCarSetups }

// CarTelemetryData is one car's live telemetry sample.
type CarTelemetryData struct {
	Speed                   uint16  // km/h
	Throttle                float32 // 0.0 to 1.0
	Steer                   float32 // -1.0 full left to 1.0 full right
	Brake                   float32 // 0.0 to 1.0
	Clutch                  uint8   // 0 to 100
	Gear                    int8    // R = -1, N = 0
	EngineRPM               uint16
	DRS                     uint8
	RevLightsPercent        uint8
	RevLightsBitValue       uint16
	BrakesTemperature       [4]uint16 // celsius, RL RR FL FR
	TyresSurfaceTemperature [4]uint8
	TyresInnerTemperature   [4]uint8
	EngineTemperature       uint16
	TyresPressure           [4]float32 // PSI
	SurfaceType             [4]uint8
}

// CarTelemetryPacket carries telemetry for every car plus player-only fields.
type CarTelemetryPacket struct {
	Header                       PacketHeader
	Cars                         [MaxCars]CarTelemetryData
	MFDPanelIndex                uint8 // 255 = MFD closed
	MFDPanelIndexSecondaryPlayer uint8
	SuggestedGear                int8 // 0 if no gear suggested
}

func (*CarTelemetryPacket) Tag() PacketTag { return TagCarTelemetry }

// Player returns the telemetry sample for the player's car, falling back to
// slot zero when the header index is out of range.
func (p *CarTelemetryPacket) Player() CarTelemetryData {
	idx := int(p.Header.PlayerCarIndex)
	if idx >= MaxCars {
		idx = 0
	}
	return p.Cars[idx]
}

// CarStatusData is one car's consumables and flag state.
type CarStatusData struct {
	TractionControl         uint8
	AntiLockBrakes          uint8
	FuelMix                 uint8
	FrontBrakeBias          uint8
	PitLimiterStatus        uint8
	FuelInTank              float32
	FuelCapacity            float32
	FuelRemainingLaps       float32
	MaxRPM                  uint16
	IdleRPM                 uint16
	MaxGears                uint8
	DRSAllowed              uint8
	DRSActivationDistance   uint16
	ActualTyreCompound      uint8
	VisualTyreCompound      uint8
	TyresAgeLaps            uint8
	VehicleFIAFlags         int8
	ERSStoreEnergy          float32 // joules
	ERSDeployMode           uint8
	ERSHarvestedThisLapMGUK float32
	ERSHarvestedThisLapMGUH float32
	ERSDeployedThisLap      float32
	NetworkPaused           uint8
}

// CarStatusPacket carries status for every car.
type CarStatusPacket struct {
	Header PacketHeader
	Cars   [MaxCars]CarStatusData
}

func (*CarStatusPacket) Tag() PacketTag { return TagCarStatus }

// FinalClassificationData is one car's end-of-session result.
type FinalClassificationData struct {
	Position          uint8
	NumLaps           uint8
	GridPosition      uint8
	Points            uint8
	NumPitStops       uint8
	ResultStatus      uint8
	BestLapTimeInMS   uint32
	TotalRaceTime     float64 // seconds, without penalties
	PenaltiesTime     uint8
	NumPenalties      uint8
	NumTyreStints     uint8
	TyreStintsActual  [8]uint8
	TyreStintsVisual  [8]uint8
	TyreStintsEndLaps [8]uint8
}

// FinalClassificationPacket carries the confirmed end-of-session results.
type FinalClassificationPacket struct {
	Header  PacketHeader
	NumCars uint8
	Cars    [MaxCars]FinalClassificationData
}

func (*FinalClassificationPacket) Tag() PacketTag { return TagFinalClassification }

// LobbyInfoData is one player slot in a multiplayer lobby.
type LobbyInfoData struct {
	AIControlled uint8
	TeamID       uint8
	Nationality  uint8
	Name         [48]byte
	CarNumber    uint8
	ReadyStatus  uint8
}

// LobbyInfoPacket carries the multiplayer lobby roster.
type LobbyInfoPacket struct {
	Header     PacketHeader
	NumPlayers uint8
	Players    [MaxCars]LobbyInfoData
}

func (*LobbyInfoPacket) Tag() PacketTag { return TagLobbyInfo }

// CarDamageData is one car's wear and damage state.
type CarDamageData struct {
	TyresWear            [4]float32 // percentage
	TyresDamage          [4]uint8
	BrakesDamage         [4]uint8
	FrontLeftWingDamage  uint8
	FrontRightWingDamage uint8
	RearWingDamage       uint8
	FloorDamage          uint8
	DiffuserDamage       uint8
	SidepodDamage        uint8
	DRSFault             uint8
	ERSFault             uint8
	GearBoxDamage        uint8
	EngineDamage         uint8
	EngineMGUHWear       uint8
	EngineESWear         uint8
	EngineCEWear         uint8
	EngineICEWear        uint8
	EngineMGUKWear       uint8
	EngineTCWear         uint8
	EngineBlown          uint8
	EngineSeized         uint8
}

// CarDamagePacket carries damage state for every car.
type CarDamagePacket struct {
	Header PacketHeader
	Cars   [MaxCars]CarDamageData
}

func (*CarDamagePacket) Tag() PacketTag { return TagCarDamage }

// LapHistoryData is one completed (or in-progress) lap in a car's history.
type LapHistoryData struct {
	LapTimeInMS      uint32
	Sector1TimeInMS  uint16
	Sector2TimeInMS  uint16
	Sector3TimeInMS  uint16
	LapValidBitFlags uint8 // bit 0 lap, bits 1-3 sectors
}

// TyreStintHistoryData is one stint in a car's tyre history.
type TyreStintHistoryData struct {
	EndLap             uint8 // 255 for the current stint
	TyreActualCompound uint8
	TyreVisualCompound uint8
}

// SessionHistoryPacket carries the full lap and stint history for one car.
// Unlike the other multi-car packets it describes a single car, cycled
// through the field by the sim.
type SessionHistoryPacket struct {
	Header            PacketHeader
	CarIdx            uint8
	NumLaps           uint8
	NumTyreStints     uint8
	BestLapTimeLapNum uint8
	BestSector1LapNum uint8
	BestSector2LapNum uint8
	BestSector3LapNum uint8
	Laps              [100]LapHistoryData
	TyreStints        [8]TyreStintHistoryData
}

func (*SessionHistoryPacket) Tag() PacketTag { return TagSessionHistory }

// TyreSetData is one tyre set in a car's allocation.
type TyreSetData struct {
	ActualTyreCompound uint8
	VisualTyreCompound uint8
	Wear               uint8 // percentage
	Available          uint8
	RecommendedSession uint8
	LifeSpan           uint8
	UsableLife         uint8
	LapDeltaTime       int16 // ms delta to the fitted set
	Fitted             uint8
}

// TyreSetsPacket carries the tyre allocation for one car.
type TyreSetsPacket struct {
	Header    PacketHeader
	CarIdx    uint8
	TyreSets  [20]TyreSetData // 13 dry + 7 wet
	FittedIdx uint8
}

func (*TyreSetsPacket) Tag() PacketTag { return TagTyreSets }

// MotionExPacket carries extended physics for the player's car only.
type MotionExPacket struct {
	Header                 PacketHeader
	SuspensionPosition     [4]float32 // RL RR FL FR
	SuspensionVelocity     [4]float32
	SuspensionAcceleration [4]float32
	WheelSpeed             [4]float32
	WheelSlipRatio         [4]float32
	WheelSlipAngle         [4]float32
	WheelLatForce          [4]float32
	WheelLongForce         [4]float32
	HeightOfCOGAboveGround float32
	LocalVelocityX         float32
	LocalVelocityY         float32
	LocalVelocityZ         float32
	AngularVelocityX       float32
	AngularVelocityY       float32
	AngularVelocityZ       float32
	AngularAccelerationX   float32
	AngularAccelerationY   float32
	AngularAccelerationZ   float32
	FrontWheelsAngle       float32
	WheelVertForce         [4]float32
}

func (*MotionExPacket) Tag() PacketTag { return TagMotionEx }
