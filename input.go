// Input / Input Feedback channel streamer payload codec

package nano

import "encoding/binary"

// InputServerHandshakePayload advertises the console's touch/display
// capabilities before any controller state is exchanged.
type InputServerHandshakePayload struct {
	ProtocolVersion uint32
	DesktopWidth    uint32
	DesktopHeight   uint32
	MaxTouches      uint32
	InitialFrameID  uint32
}

func encodeInputServerHandshake(p *InputServerHandshakePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.ProtocolVersion)
	buf = binary.LittleEndian.AppendUint32(buf, p.DesktopWidth)
	buf = binary.LittleEndian.AppendUint32(buf, p.DesktopHeight)
	buf = binary.LittleEndian.AppendUint32(buf, p.MaxTouches)
	buf = binary.LittleEndian.AppendUint32(buf, p.InitialFrameID)
	return buf
}

func decodeInputServerHandshake(buf []byte) (*InputServerHandshakePayload, error) {
	if len(buf) < 20 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &InputServerHandshakePayload{
		ProtocolVersion: binary.LittleEndian.Uint32(buf[0:4]),
		DesktopWidth:    binary.LittleEndian.Uint32(buf[4:8]),
		DesktopHeight:   binary.LittleEndian.Uint32(buf[8:12]),
		MaxTouches:      binary.LittleEndian.Uint32(buf[12:16]),
		InitialFrameID:  binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// InputClientHandshakePayload is the client's reply, establishing the
// timebase used by every subsequent InputFramePayload timestamp.
type InputClientHandshakePayload struct {
	MaxTouches         uint32
	ReferenceTimestamp uint64 // milliseconds since Unix epoch
}

func encodeInputClientHandshake(p *InputClientHandshakePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.MaxTouches)
	buf = binary.LittleEndian.AppendUint64(buf, p.ReferenceTimestamp)
	return buf
}

func decodeInputClientHandshake(buf []byte) (*InputClientHandshakePayload, error) {
	if len(buf) < 12 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &InputClientHandshakePayload{
		MaxTouches:         binary.LittleEndian.Uint32(buf[0:4]),
		ReferenceTimestamp: binary.LittleEndian.Uint64(buf[4:12]),
	}, nil
}

// InputFrameAckPayload is the console's periodic acknowledgement of the
// last input frame it applied.
type InputFrameAckPayload struct {
	AckedFrame uint32
}

func encodeInputFrameAck(p *InputFrameAckPayload) []byte {
	return binary.LittleEndian.AppendUint32(nil, p.AckedFrame)
}

func decodeInputFrameAck(buf []byte) (*InputFrameAckPayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &InputFrameAckPayload{AckedFrame: binary.LittleEndian.Uint32(buf[0:4])}, nil
}

// InputButtons is the digital button bitfield, one byte (0 or 1) per
// button in wire order.
type InputButtons struct {
	DPadUp          bool
	DPadDown        bool
	DPadLeft        bool
	DPadRight       bool
	Start           bool
	Back            bool
	LeftThumbstick  bool
	RightThumbstick bool
	LeftShoulder    bool
	RightShoulder   bool
	Guide           bool
	Unknown         bool
	A               bool
	B               bool
	X               bool
	Y               bool
}

func encodeInputButtons(b InputButtons) []byte {
	bits := []bool{
		b.DPadUp, b.DPadDown, b.DPadLeft, b.DPadRight,
		b.Start, b.Back, b.LeftThumbstick, b.RightThumbstick,
		b.LeftShoulder, b.RightShoulder, b.Guide, b.Unknown,
		b.A, b.B, b.X, b.Y,
	}
	out := make([]byte, len(bits))
	for i, v := range bits {
		out[i] = boolBit(v)
	}
	return out
}

func decodeInputButtons(buf []byte) InputButtons {
	get := func(i int) bool { return buf[i] != 0 }
	return InputButtons{
		DPadUp: get(0), DPadDown: get(1), DPadLeft: get(2), DPadRight: get(3),
		Start: get(4), Back: get(5), LeftThumbstick: get(6), RightThumbstick: get(7),
		LeftShoulder: get(8), RightShoulder: get(9), Guide: get(10), Unknown: get(11),
		A: get(12), B: get(13), X: get(14), Y: get(15),
	}
}

// InputAnalog is the trigger/thumbstick/rumble-echo block: 2 bytes of
// trigger pressure, 4 signed 16-bit thumbstick axes, 4 bytes of rumble echo.
type InputAnalog struct {
	LeftTrigger  uint8
	RightTrigger uint8

	LeftThumbX  int16
	LeftThumbY  int16
	RightThumbX int16
	RightThumbY int16

	RumbleTriggerL uint8
	RumbleTriggerR uint8
	RumbleHandleL  uint8
	RumbleHandleR  uint8
}

func encodeInputAnalog(a InputAnalog) []byte {
	buf := make([]byte, 14)
	buf[0] = a.LeftTrigger
	buf[1] = a.RightTrigger
	binary.LittleEndian.PutUint16(buf[2:4], uint16(a.LeftThumbX))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(a.LeftThumbY))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(a.RightThumbX))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(a.RightThumbY))
	buf[10] = a.RumbleTriggerL
	buf[11] = a.RumbleTriggerR
	buf[12] = a.RumbleHandleL
	buf[13] = a.RumbleHandleR
	return buf
}

func decodeInputAnalog(buf []byte) InputAnalog {
	return InputAnalog{
		LeftTrigger:    buf[0],
		RightTrigger:   buf[1],
		LeftThumbX:     int16(binary.LittleEndian.Uint16(buf[2:4])),
		LeftThumbY:     int16(binary.LittleEndian.Uint16(buf[4:6])),
		RightThumbX:    int16(binary.LittleEndian.Uint16(buf[6:8])),
		RightThumbY:    int16(binary.LittleEndian.Uint16(buf[8:10])),
		RumbleTriggerL: buf[10],
		RumbleTriggerR: buf[11],
		RumbleHandleL:  buf[12],
		RumbleHandleR:  buf[13],
	}
}

// InputExtension is nine reserved/rumble-echo bytes whose individual
// meaning the console never documents; preserved opaque per byte.
type InputExtension [9]byte

// InputFramePayload is one controller-state sample sent on the Input
// channel. Timestamp is in 10-microsecond ticks since the handshake's
// ReferenceTimestamp (see EncodeInputTimestamp).
type InputFramePayload struct {
	FrameID    uint32
	Timestamp  uint64
	CreatedTS  uint64
	Buttons    InputButtons
	Analog     InputAnalog
	Extension  InputExtension
}

func encodeInputFrame(p *InputFramePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.FrameID)
	buf = binary.LittleEndian.AppendUint64(buf, p.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, p.CreatedTS)
	buf = append(buf, encodeInputButtons(p.Buttons)...)
	buf = append(buf, encodeInputAnalog(p.Analog)...)
	buf = append(buf, p.Extension[:]...)
	return buf
}

func decodeInputFrame(buf []byte) (*InputFramePayload, error) {
	const fixed = 4 + 8 + 8 + 16 + 14 + 9
	if len(buf) < fixed {
		return nil, newMalformedError(0, errShortBody)
	}
	off := 0
	p := &InputFramePayload{}
	p.FrameID = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	p.Timestamp = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.CreatedTS = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.Buttons = decodeInputButtons(buf[off : off+16])
	off += 16
	p.Analog = decodeInputAnalog(buf[off : off+14])
	off += 14
	copy(p.Extension[:], buf[off:off+9])
	return p, nil
}

// inputTimestampTickHz is the number of ticks in one second of the
// reference timebase established by InputClientHandshakePayload.
const inputTimestampTickHz = 100000

// EncodeInputTimestamp converts an elapsed duration since a channel's
// negotiated reference timestamp into the 10-microsecond tick count the
// wire format carries.
func EncodeInputTimestamp(elapsedSeconds float64) uint64 {
	return uint64(elapsedSeconds * inputTimestampTickHz)
}

// DecodeInputTimestamp converts a wire tick count back into elapsed seconds.
func DecodeInputTimestamp(ticks uint64) float64 {
	return float64(ticks) / inputTimestampTickHz
}
