// RTP header and streamer sub-header codec

package nano

import (
	"encoding/binary"
)

const rtpHeaderSize = 12 // flags(2) + sequence_num(2) + timestamp(4) + ssrc(4)

// RtpHeader is the 12-byte legacy RTP header this protocol repurposes,
// plus the optional streamer sub-header that follows it when
// PayloadType == RtpPayloadStreamer.
type RtpHeader struct {
	Version      uint8 // always 2
	Padding      bool
	Extension    bool
	CsrcCount    uint8 // 4 bits
	Marker       bool
	PayloadType  RtpPayloadType
	SequenceNum  uint16
	Timestamp    uint32
	ConnectionID uint16
	ChannelID    uint16
	Csrc         []uint32

	Streamer *StreamerSubHeader
}

// StreamerSubHeader follows the RTP header when PayloadType is Streamer.
// Type is decoded tentatively as a raw integer; the session/channel layer
// rebinds it to the per-channel-class enumeration once the channel is
// known.
type StreamerSubHeader struct {
	StreamerVersion uint32 // 3 on TCP, 0 on UDP
	HasSequence     bool   // StreamerVersion & 1
	SequenceNum     uint32
	PrevSequenceNum uint32
	Type            uint32
}

func (h *RtpHeader) sizeOnWire() int {
	n := rtpHeaderSize + 4*int(h.CsrcCount)
	if h.PayloadType == RtpPayloadStreamer && h.Streamer != nil {
		n += 4 // streamer_version
		if h.Streamer.HasSequence {
			n += 8 // sequence_num + prev_sequence_num
		}
		n += 4 // type
	}
	return n
}

// encodeHeader serializes the RTP header (and streamer sub-header, if
// present) into its wire form.
func encodeHeader(h *RtpHeader) []byte {
	buf := make([]byte, h.sizeOnWire())

	var b0, b1 byte
	b0 = (h.Version&0x3)<<6 | boolBit(h.Padding)<<5 | boolBit(h.Extension)<<4 | (h.CsrcCount & 0xF)
	b1 = boolBit(h.Marker)<<7 | byte(h.PayloadType)&0x7F
	buf[0] = b0
	buf[1] = b1

	binary.BigEndian.PutUint16(buf[2:4], h.SequenceNum)
	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)
	binary.BigEndian.PutUint16(buf[8:10], h.ConnectionID)
	binary.BigEndian.PutUint16(buf[10:12], h.ChannelID)

	off := rtpHeaderSize
	for _, c := range h.Csrc {
		binary.BigEndian.PutUint32(buf[off:off+4], c)
		off += 4
	}

	if h.PayloadType == RtpPayloadStreamer && h.Streamer != nil {
		binary.LittleEndian.PutUint32(buf[off:off+4], h.Streamer.StreamerVersion)
		off += 4
		if h.Streamer.HasSequence {
			binary.LittleEndian.PutUint32(buf[off:off+4], h.Streamer.SequenceNum)
			off += 4
			binary.LittleEndian.PutUint32(buf[off:off+4], h.Streamer.PrevSequenceNum)
			off += 4
		}
		binary.LittleEndian.PutUint32(buf[off:off+4], h.Streamer.Type)
		off += 4
	}

	return buf
}

// decodeHeader parses an RTP header (and streamer sub-header, if present)
// from the start of buf, returning the header and the number of bytes
// consumed.
func decodeHeader(buf []byte) (*RtpHeader, int, error) {
	if len(buf) < rtpHeaderSize {
		return nil, 0, newMalformedError(0, errShortHeader)
	}

	b0, b1 := buf[0], buf[1]
	h := &RtpHeader{
		Version:     (b0 >> 6) & 0x3,
		Padding:     b0&0x20 != 0,
		Extension:   b0&0x10 != 0,
		CsrcCount:   b0 & 0xF,
		Marker:      b1&0x80 != 0,
		PayloadType: RtpPayloadType(b1 & 0x7F),
	}

	if h.Version != 2 {
		return nil, 0, &ProtocolError{Kind: ErrInvariantViolation, cause: errVersionMismatch}
	}

	h.SequenceNum = binary.BigEndian.Uint16(buf[2:4])
	h.Timestamp = binary.BigEndian.Uint32(buf[4:8])
	h.ConnectionID = binary.BigEndian.Uint16(buf[8:10])
	h.ChannelID = binary.BigEndian.Uint16(buf[10:12])

	off := rtpHeaderSize
	need := off + 4*int(h.CsrcCount)
	if len(buf) < need {
		return nil, 0, newMalformedError(off, errShortHeader)
	}
	if h.CsrcCount > 0 {
		h.Csrc = make([]uint32, h.CsrcCount)
		for i := range h.Csrc {
			h.Csrc[i] = binary.BigEndian.Uint32(buf[off : off+4])
			off += 4
		}
	}

	if h.PayloadType == RtpPayloadStreamer {
		if len(buf) < off+4 {
			return nil, 0, newMalformedError(off, errShortHeader)
		}
		sh := &StreamerSubHeader{
			StreamerVersion: binary.LittleEndian.Uint32(buf[off : off+4]),
		}
		off += 4
		sh.HasSequence = sh.StreamerVersion&1 != 0
		if sh.HasSequence {
			if len(buf) < off+8 {
				return nil, 0, newMalformedError(off, errShortHeader)
			}
			sh.SequenceNum = binary.LittleEndian.Uint32(buf[off : off+4])
			off += 4
			sh.PrevSequenceNum = binary.LittleEndian.Uint32(buf[off : off+4])
			off += 4
		}
		if len(buf) < off+4 {
			return nil, 0, newMalformedError(off, errShortHeader)
		}
		sh.Type = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		h.Streamer = sh
	}

	return h, off, nil
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
