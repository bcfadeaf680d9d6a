// Broadcast message shapes exchanged over the SmartGlass system-broadcast
// channel: the session-bootstrap collaborator the core never talks to
// directly.

package smartglass

// BroadcastMessageType tags a broadcast JSON message's type field.
type BroadcastMessageType int

const (
	BroadcastUnknown           BroadcastMessageType = 0x0
	BroadcastStartGameStream   BroadcastMessageType = 0x1
	BroadcastStopGameStream    BroadcastMessageType = 0x2
	BroadcastGameStreamState   BroadcastMessageType = 0x3
	BroadcastGameStreamEnabled BroadcastMessageType = 0x4
	BroadcastGameStreamError   BroadcastMessageType = 0x5
	BroadcastTelemetry         BroadcastMessageType = 0x6
	BroadcastPreviewStatus     BroadcastMessageType = 0x7
)

// GameStreamState is the sub-state carried by a GameStreamState broadcast.
type GameStreamState int

const (
	GameStreamStateUnknown      GameStreamState = 0x0
	GameStreamStateInitializing GameStreamState = 0x1
	GameStreamStateStarted      GameStreamState = 0x2
	GameStreamStateStopped      GameStreamState = 0x3
	GameStreamStatePaused       GameStreamState = 0x4
)

// GameStreamError is the sub-code carried by a GameStreamError broadcast.
type GameStreamError int

const (
	GameStreamErrorUnknown              GameStreamError = 0x0
	GameStreamErrorGeneral               GameStreamError = 0x1
	GameStreamErrorFailedToInstantiate    GameStreamError = 0x2
	GameStreamErrorFailedToInitialize     GameStreamError = 0x3
	GameStreamErrorFailedToStart          GameStreamError = 0x4
	GameStreamErrorFailedToStop           GameStreamError = 0x5
	GameStreamErrorNoController          GameStreamError = 0x6
	GameStreamErrorDifferentMsaActive    GameStreamError = 0x7
	GameStreamErrorDrmVideo              GameStreamError = 0x8
	GameStreamErrorHdcpVideo             GameStreamError = 0x9
	GameStreamErrorKinectTitle           GameStreamError = 0xA
	GameStreamErrorProhibitedGame        GameStreamError = 0xB
	GameStreamErrorPoorNetworkConnection GameStreamError = 0xC
	GameStreamErrorStreamingDisabled     GameStreamError = 0xD
	GameStreamErrorCannotReachConsole    GameStreamError = 0xE
	GameStreamErrorGenericError          GameStreamError = 0xF
	GameStreamErrorVersionMismatch       GameStreamError = 0x10
	GameStreamErrorNoProfile             GameStreamError = 0x11
	GameStreamErrorBroadcastInProgress   GameStreamError = 0x12
)

// broadcastEnvelope is the only field every broadcast message shares; the
// rest of a message's fields depend on Type and are decoded on demand
// (see Bootstrapper.handleBroadcast).
type broadcastEnvelope struct {
	Type BroadcastMessageType `json:"type"`
}

// gameStreamStateMessage is the payload of a GameStreamState broadcast.
// sessionId/tcpPort/udpPort are only present when State is Initializing.
type gameStreamStateMessage struct {
	State     GameStreamState `json:"state"`
	SessionID string          `json:"sessionId"`
	TCPPort   int             `json:"tcpPort"`
	UDPPort   int             `json:"udpPort"`

	IsWirelessConnection bool `json:"isWirelessConnection"`
	TransmitLinkSpeed    int  `json:"transmitLinkSpeed"`
	WirelessChannel      int  `json:"wirelessChannel"`
}

type gameStreamEnabledMessage struct {
	Enabled              bool `json:"enabled"`
	CanBeEnabled         bool `json:"canBeEnabled"`
	MajorProtocolVersion int  `json:"majorProtocolVersion"`
	MinorProtocolVersion int  `json:"minorProtocolVersion"`
}

type gameStreamErrorMessage struct {
	Error GameStreamError `json:"error"`
}

// startGameStreamMessage is sent by the client to request a stream start.
type startGameStreamMessage struct {
	Type              BroadcastMessageType `json:"type"`
	ReQueryPreviewStatus bool              `json:"reQueryPreviewStatus"`
	Configuration     map[string]string    `json:"configuration"`
}

type stopGameStreamMessage struct {
	Type BroadcastMessageType `json:"type"`
}

// SessionParams is the ready tuple the Bootstrapper yields once the
// console has reported GameStreamState=Initializing: everything the core
// needs to dial its own Control/Streamer transports.
type SessionParams struct {
	Address   string
	SessionID string
	TCPPort   int
	UDPPort   int
}

// DefaultStreamConfig is the configuration blob a caller forwards in a
// StartGameStream broadcast. The core never reads it; it only matters to
// the console's stream encoder.
var DefaultStreamConfig = map[string]string{
	"audioFecType":             "0",
	"audioSyncPolicy":          "1",
	"audioSyncMaxLatency":      "170",
	"audioSyncDesiredLatency":  "40",
	"audioSyncMinLatency":      "10",
	"audioSyncCompressLatency": "100",
	"audioSyncCompressFactor":  "0.99",
	"audioSyncLengthenFactor":  "1.01",
	"audioBufferLengthHns":     "10000000",

	"enableOpusChatAudio":   "true",
	"enableDynamicBitrate":  "false",
	"enableAudioChat":       "true",
	"enableVideoFrameAcks":  "false",
	"enableOpusAudio":       "false",

	"dynamicBitrateUpdateMs":    "5000",
	"dynamicBitrateScaleFactor": "1",

	"inputReadsPerSecond": "120",

	"videoFecType":               "0",
	"videoFecLevel":              "3",
	"videoMaximumWidth":          "1280",
	"videoMaximumHeight":         "720",
	"videoMaximumFrameRate":      "60",
	"videoPacketUtilization":     "0",
	"videoPacketDefragTimeoutMs": "16",
	"sendKeyframesOverTCP":       "false",

	"udpSubBurstGroups":          "5",
	"udpBurstDurationMs":         "11",
	"udpMaxSendPacketsInWinsock": "250",

	"urcpType":               "0",
	"urcpFixedRate":          "-1",
	"urcpMaximumRate":        "10000000",
	"urcpMinimumRate":        "256000",
	"urcpMaximumWindow":      "1310720",
	"urcpKeepAliveTimeoutMs": "0",
}
