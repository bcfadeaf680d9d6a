// Control channel payload codec: the ControlPacket envelope and its
// eleven opcode bodies.

package nano

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// ControlPacket is the envelope every message on the Control channel's
// logical sub-stream carries, on top of the Streamer sub-header.
type ControlPacket struct {
	PrevSeqDup uint32
	Unk1       uint16
	Unk2       uint16
	Opcode     ControlPayloadType
	Body       []byte
}

func encodeControlPacket(p *ControlPacket) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.PrevSeqDup)
	buf = binary.LittleEndian.AppendUint16(buf, p.Unk1)
	buf = binary.LittleEndian.AppendUint16(buf, p.Unk2)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(p.Opcode))
	buf = append(buf, p.Body...)
	return buf
}

func decodeControlPacket(buf []byte) (*ControlPacket, error) {
	if len(buf) < 10 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &ControlPacket{
		PrevSeqDup: binary.LittleEndian.Uint32(buf[0:4]),
		Unk1:       binary.LittleEndian.Uint16(buf[4:6]),
		Unk2:       binary.LittleEndian.Uint16(buf[6:8]),
		Opcode:     ControlPayloadType(binary.LittleEndian.Uint16(buf[8:10])),
		Body:       append([]byte(nil), buf[10:]...),
	}, nil
}

func appendUUID(buf []byte, id uuid.UUID) []byte {
	return append(buf, id[:]...)
}

func decodeUUID(buf []byte) (uuid.UUID, error) {
	var id uuid.UUID
	if len(buf) < 16 {
		return id, newMalformedError(0, errShortBody)
	}
	copy(id[:], buf[:16])
	return id, nil
}

func appendFloat32(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
}

func decodeFloat32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// SessionInitBody (opcode ControlSessionInit) is an opaque blob whose
// contents the client never needs to interpret, only echo.
type SessionInitBody struct {
	Raw []byte
}

func encodeSessionInit(b *SessionInitBody) []byte { return b.Raw }

func decodeSessionInit(buf []byte) (*SessionInitBody, error) {
	return &SessionInitBody{Raw: append([]byte(nil), buf...)}, nil
}

// SessionCreateBody (opcode ControlSessionCreate).
type SessionCreateBody struct {
	GUID uuid.UUID
	Unk3 []byte
}

func encodeSessionCreate(b *SessionCreateBody) []byte {
	buf := appendUUID(nil, b.GUID)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Unk3)))
	buf = append(buf, b.Unk3...)
	return buf
}

func decodeSessionCreate(buf []byte) (*SessionCreateBody, error) {
	id, err := decodeUUID(buf)
	if err != nil {
		return nil, err
	}
	off := 16
	if len(buf) < off+4 {
		return nil, newMalformedError(off, errShortBody)
	}
	n := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if len(buf) < off+n {
		return nil, newMalformedError(off, errShortBody)
	}
	return &SessionCreateBody{GUID: id, Unk3: append([]byte(nil), buf[off:off+n]...)}, nil
}

// SessionCreateResponseBody (opcode ControlSessionCreateResponse).
type SessionCreateResponseBody struct {
	GUID uuid.UUID
}

func encodeSessionCreateResponse(b *SessionCreateResponseBody) []byte {
	return appendUUID(nil, b.GUID)
}

func decodeSessionCreateResponse(buf []byte) (*SessionCreateResponseBody, error) {
	id, err := decodeUUID(buf)
	if err != nil {
		return nil, err
	}
	return &SessionCreateResponseBody{GUID: id}, nil
}

// SessionDestroyBody (opcode ControlSessionDestroy).
type SessionDestroyBody struct {
	Unk3 float32
	Unk5 []byte
}

func encodeSessionDestroy(b *SessionDestroyBody) []byte {
	buf := appendFloat32(nil, b.Unk3)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Unk5)))
	buf = append(buf, b.Unk5...)
	return buf
}

func decodeSessionDestroy(buf []byte) (*SessionDestroyBody, error) {
	if len(buf) < 8 {
		return nil, newMalformedError(0, errShortBody)
	}
	n := int(binary.LittleEndian.Uint32(buf[4:8]))
	if len(buf) < 8+n {
		return nil, newMalformedError(8, errShortBody)
	}
	return &SessionDestroyBody{
		Unk3: decodeFloat32(buf, 0),
		Unk5: append([]byte(nil), buf[8:8+n]...),
	}, nil
}

// VideoStatisticsBody (opcode ControlVideoStatistics) carries six
// client-measured floats the console uses for adaptive bitrate decisions.
type VideoStatisticsBody struct {
	Unk3, Unk4, Unk5, Unk6, Unk7, Unk8 float32
}

func encodeVideoStatistics(b *VideoStatisticsBody) []byte {
	buf := appendFloat32(nil, b.Unk3)
	buf = appendFloat32(buf, b.Unk4)
	buf = appendFloat32(buf, b.Unk5)
	buf = appendFloat32(buf, b.Unk6)
	buf = appendFloat32(buf, b.Unk7)
	buf = appendFloat32(buf, b.Unk8)
	return buf
}

func decodeVideoStatistics(buf []byte) (*VideoStatisticsBody, error) {
	if len(buf) < 24 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &VideoStatisticsBody{
		Unk3: decodeFloat32(buf, 0),
		Unk4: decodeFloat32(buf, 4),
		Unk5: decodeFloat32(buf, 8),
		Unk6: decodeFloat32(buf, 12),
		Unk7: decodeFloat32(buf, 16),
		Unk8: decodeFloat32(buf, 20),
	}, nil
}

// TelemetryEntry is one key/value pair of a RealtimeTelemetryBody.
type TelemetryEntry struct {
	Key   uint16
	Value uint64
}

// RealtimeTelemetryBody (opcode ControlRealtimeTelemetry).
type RealtimeTelemetryBody struct {
	Entries []TelemetryEntry
}

func encodeRealtimeTelemetry(b *RealtimeTelemetryBody) []byte {
	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(b.Entries)))
	for _, e := range b.Entries {
		buf = binary.LittleEndian.AppendUint16(buf, e.Key)
		buf = binary.LittleEndian.AppendUint64(buf, e.Value)
	}
	return buf
}

func decodeRealtimeTelemetry(buf []byte) (*RealtimeTelemetryBody, error) {
	if len(buf) < 2 {
		return nil, newMalformedError(0, errShortBody)
	}
	count := int(binary.LittleEndian.Uint16(buf[0:2]))
	off := 2
	entries := make([]TelemetryEntry, 0, count)
	for i := 0; i < count; i++ {
		if len(buf) < off+10 {
			return nil, newMalformedError(off, errShortBody)
		}
		entries = append(entries, TelemetryEntry{
			Key:   binary.LittleEndian.Uint16(buf[off : off+2]),
			Value: binary.LittleEndian.Uint64(buf[off+2 : off+10]),
		})
		off += 10
	}
	return &RealtimeTelemetryBody{Entries: entries}, nil
}

// ChangeVideoQualityBody (opcode ControlChangeVideoQuality) carries a
// VideoQuality preset as six raw uint32 fields.
type ChangeVideoQualityBody struct {
	Quality VideoQuality
}

func encodeChangeVideoQuality(b *ChangeVideoQualityBody) []byte {
	buf := make([]byte, 0, 24)
	for _, v := range b.Quality {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}

func decodeChangeVideoQuality(buf []byte) (*ChangeVideoQualityBody, error) {
	if len(buf) < 24 {
		return nil, newMalformedError(0, errShortBody)
	}
	var q VideoQuality
	for i := range q {
		q[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return &ChangeVideoQualityBody{Quality: q}, nil
}

// InitiateNetworkTestBody (opcode ControlInitiateNetworkTest).
type InitiateNetworkTestBody struct {
	GUID uuid.UUID
}

func encodeInitiateNetworkTest(b *InitiateNetworkTestBody) []byte {
	return appendUUID(nil, b.GUID)
}

func decodeInitiateNetworkTest(buf []byte) (*InitiateNetworkTestBody, error) {
	id, err := decodeUUID(buf)
	if err != nil {
		return nil, err
	}
	return &InitiateNetworkTestBody{GUID: id}, nil
}

// NetworkInformationBody (opcode ControlNetworkInformation).
type NetworkInformationBody struct {
	GUID uuid.UUID
	Unk4 uint64
	Unk5 uint8
	Unk6 float32
}

func encodeNetworkInformation(b *NetworkInformationBody) []byte {
	buf := appendUUID(nil, b.GUID)
	buf = binary.LittleEndian.AppendUint64(buf, b.Unk4)
	buf = append(buf, b.Unk5)
	buf = appendFloat32(buf, b.Unk6)
	return buf
}

func decodeNetworkInformation(buf []byte) (*NetworkInformationBody, error) {
	id, err := decodeUUID(buf)
	if err != nil {
		return nil, err
	}
	off := 16
	if len(buf) < off+13 {
		return nil, newMalformedError(off, errShortBody)
	}
	return &NetworkInformationBody{
		GUID: id,
		Unk4: binary.LittleEndian.Uint64(buf[off : off+8]),
		Unk5: buf[off+8],
		Unk6: decodeFloat32(buf, off+9),
	}, nil
}

// NetworkTestResponseBody (opcode ControlNetworkTestResponse).
type NetworkTestResponseBody struct {
	GUID                         uuid.UUID
	Unk3, Unk4, Unk5, Unk6, Unk7 float32
	Unk8, Unk9                   uint64
	Unk10                        float32
}

func encodeNetworkTestResponse(b *NetworkTestResponseBody) []byte {
	buf := appendUUID(nil, b.GUID)
	buf = appendFloat32(buf, b.Unk3)
	buf = appendFloat32(buf, b.Unk4)
	buf = appendFloat32(buf, b.Unk5)
	buf = appendFloat32(buf, b.Unk6)
	buf = appendFloat32(buf, b.Unk7)
	buf = binary.LittleEndian.AppendUint64(buf, b.Unk8)
	buf = binary.LittleEndian.AppendUint64(buf, b.Unk9)
	buf = appendFloat32(buf, b.Unk10)
	return buf
}

func decodeNetworkTestResponse(buf []byte) (*NetworkTestResponseBody, error) {
	id, err := decodeUUID(buf)
	if err != nil {
		return nil, err
	}
	off := 16
	if len(buf) < off+40 {
		return nil, newMalformedError(off, errShortBody)
	}
	return &NetworkTestResponseBody{
		GUID:  id,
		Unk3:  decodeFloat32(buf, off),
		Unk4:  decodeFloat32(buf, off+4),
		Unk5:  decodeFloat32(buf, off+8),
		Unk6:  decodeFloat32(buf, off+12),
		Unk7:  decodeFloat32(buf, off+16),
		Unk8:  binary.LittleEndian.Uint64(buf[off+20 : off+28]),
		Unk9:  binary.LittleEndian.Uint64(buf[off+28 : off+36]),
		Unk10: decodeFloat32(buf, off+36),
	}, nil
}

// ControllerEventBody (opcode ControlControllerEvent) signals a
// controller plug/unplug event to the console.
type ControllerEventBody struct {
	Event          ControllerEvent
	ControllerNum  uint8
}

func encodeControllerEvent(b *ControllerEventBody) []byte {
	return []byte{byte(b.Event), b.ControllerNum}
}

func decodeControllerEvent(buf []byte) (*ControllerEventBody, error) {
	if len(buf) < 2 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &ControllerEventBody{Event: ControllerEvent(buf[0]), ControllerNum: buf[1]}, nil
}
