// Channel-control and UDP-handshake payload codec (RtpPayloadControl,
// RtpPayloadChannelControl, RtpPayloadUDPHandshake)

package nano

import "encoding/binary"

// ChannelControlHandshakePayload is the 3-byte body carried by
// RtpPayloadControl (0x60): the session-level handshake exchanged before
// any channel exists.
type ChannelControlHandshakePayload struct {
	Type         ChannelControlPayloadType
	ConnectionID uint16
}

func encodeChannelControlHandshake(p *ChannelControlHandshakePayload) []byte {
	b := make([]byte, 3)
	b[0] = byte(p.Type)
	binary.LittleEndian.PutUint16(b[1:3], p.ConnectionID)
	return b
}

func decodeChannelControlHandshake(buf []byte) (*ChannelControlHandshakePayload, error) {
	if len(buf) < 3 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &ChannelControlHandshakePayload{
		Type:         ChannelControlPayloadType(buf[0]),
		ConnectionID: binary.LittleEndian.Uint16(buf[1:3]),
	}, nil
}

// ChannelControlPayload is the body carried by RtpPayloadChannelControl
// (0x61): ChannelCreate/ChannelOpen/ChannelClose requests from the console.
type ChannelControlPayload struct {
	Type ChannelControlPayloadType

	// Name is set only for Type == ChannelControlChannelCreate.
	Name ChannelClass

	// CreateFlags is meaningful for ChannelCreate and ChannelClose.
	CreateFlags uint32

	// OpenFlags is meaningful for ChannelOpen: an opaque, length-prefixed
	// byte blob the client is expected to echo back unmodified.
	OpenFlags []byte
}

func encodeChannelControl(p *ChannelControlPayload) []byte {
	var body []byte
	body = binary.LittleEndian.AppendUint32(body, uint32(p.Type))

	if p.Type == ChannelControlChannelCreate {
		name := []byte(p.Name)
		lenBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBuf, uint16(len(name)))
		body = append(body, lenBuf...)
		body = append(body, name...)
	}

	switch p.Type {
	case ChannelControlChannelCreate, ChannelControlChannelClose:
		body = binary.LittleEndian.AppendUint32(body, p.CreateFlags)
	case ChannelControlChannelOpen:
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(p.OpenFlags)))
		body = append(body, lenBuf...)
		body = append(body, p.OpenFlags...)
	}

	return body
}

func decodeChannelControl(buf []byte) (*ChannelControlPayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &ChannelControlPayload{Type: ChannelControlPayloadType(binary.LittleEndian.Uint32(buf[0:4]))}
	off := 4

	if p.Type == ChannelControlChannelCreate {
		if len(buf) < off+2 {
			return nil, newMalformedError(off, errShortBody)
		}
		nameLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
		off += 2
		if len(buf) < off+nameLen {
			return nil, newMalformedError(off, errShortBody)
		}
		p.Name = ChannelClass(buf[off : off+nameLen])
		off += nameLen
	}

	switch p.Type {
	case ChannelControlChannelCreate, ChannelControlChannelClose:
		if len(buf) < off+4 {
			return nil, newMalformedError(off, errShortBody)
		}
		p.CreateFlags = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	case ChannelControlChannelOpen:
		if len(buf) < off+4 {
			return nil, newMalformedError(off, errShortBody)
		}
		flagsLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		if len(buf) < off+flagsLen {
			return nil, newMalformedError(off, errShortBody)
		}
		p.OpenFlags = append([]byte(nil), buf[off:off+flagsLen]...)
		off += flagsLen
	}

	return p, nil
}

// UDPHandshakePayload is the single-byte body carried by
// RtpPayloadUDPHandshake (0x64); Unknown is always observed to be 1.
type UDPHandshakePayload struct {
	Unknown uint8
}

func encodeUDPHandshake(p *UDPHandshakePayload) []byte {
	return []byte{p.Unknown}
}

func decodeUDPHandshake(buf []byte) (*UDPHandshakePayload, error) {
	if len(buf) < 1 {
		return nil, newMalformedError(0, errShortBody)
	}
	return &UDPHandshakePayload{Unknown: buf[0]}, nil
}
