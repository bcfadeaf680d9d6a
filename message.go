// Message envelope: ties an RtpHeader to its decoded payload, and
// implements the Streamer payload's length-prefixed-vs-greedy framing
// rule plus TCP length framing.

package nano

import (
	"encoding/binary"
	"io"
)

// StreamerEnvelope holds a Streamer-payload message's inner bytes before
// they are rebound to a concrete payload type. Rebinding requires
// knowing the owning channel's class, which the codec alone doesn't have
// (see DecodeStreamerPayload), so Decode stops here for PayloadType ==
// RtpPayloadStreamer.
type StreamerEnvelope struct {
	Raw []byte
}

// Message is one complete RTP frame: a header plus exactly one decoded
// payload, matching Header.PayloadType.
type Message struct {
	Header RtpHeader

	ChannelControlHandshake *ChannelControlHandshakePayload
	ChannelControl          *ChannelControlPayload
	UDPHandshake            *UDPHandshakePayload
	Streamer                *StreamerEnvelope
}

// isLogicalControlEnvelope reports whether a Streamer message is the
// connectionless, type-0 envelope of the logical Control channel whose payload runs to
// the end of the frame instead of being length-prefixed.
func isLogicalControlEnvelope(h *RtpHeader) bool {
	return h.ConnectionID == 0 && h.Streamer != nil && h.Streamer.Type == 0
}

// Decode parses one complete frame (one UDP datagram, or one already
// length-delimited TCP frame) into a Message.
func Decode(buf []byte) (*Message, error) {
	h, consumed, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}

	end := len(buf)
	if h.Padding {
		if end == 0 {
			return nil, newMalformedError(consumed, errShortBody)
		}
		padCount := int(buf[end-1])
		if padCount > end-consumed {
			return nil, newMalformedError(end-1, errShortBody)
		}
		end -= padCount
	}
	body := buf[consumed:end]

	msg := &Message{Header: *h}

	switch h.PayloadType {
	case RtpPayloadControl:
		p, err := decodeChannelControlHandshake(body)
		if err != nil {
			return nil, err
		}
		msg.ChannelControlHandshake = p
	case RtpPayloadChannelControl:
		p, err := decodeChannelControl(body)
		if err != nil {
			return nil, err
		}
		msg.ChannelControl = p
	case RtpPayloadUDPHandshake:
		p, err := decodeUDPHandshake(body)
		if err != nil {
			return nil, err
		}
		msg.UDPHandshake = p
	case RtpPayloadStreamer:
		raw, err := decodeStreamerEnvelope(h, body)
		if err != nil {
			return nil, err
		}
		msg.Streamer = &StreamerEnvelope{Raw: raw}
	default:
		return nil, newProtocolError(ErrUnknownStreamerType, errNoChannels)
	}

	return msg, nil
}

func decodeStreamerEnvelope(h *RtpHeader, body []byte) ([]byte, error) {
	if isLogicalControlEnvelope(h) {
		return append([]byte(nil), body...), nil
	}
	if len(body) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	n := int(binary.LittleEndian.Uint32(body[0:4]))
	if len(body) < 4+n {
		return nil, newMalformedError(4, errShortBody)
	}
	return append([]byte(nil), body[4:4+n]...), nil
}

// Encode serializes msg back to wire bytes, computing any Streamer
// length prefix before padding the frame to a 4-byte boundary (padding
// must be applied last: it pads the combined envelope, not the inner
// payload the length prefix describes).
func Encode(msg *Message) ([]byte, error) {
	h := msg.Header

	var body []byte
	switch h.PayloadType {
	case RtpPayloadControl:
		if msg.ChannelControlHandshake == nil {
			return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
		}
		body = encodeChannelControlHandshake(msg.ChannelControlHandshake)
	case RtpPayloadChannelControl:
		if msg.ChannelControl == nil {
			return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
		}
		body = encodeChannelControl(msg.ChannelControl)
	case RtpPayloadUDPHandshake:
		if msg.UDPHandshake == nil {
			return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
		}
		body = encodeUDPHandshake(msg.UDPHandshake)
	case RtpPayloadStreamer:
		if msg.Streamer == nil {
			return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
		}
		body = encodeStreamerEnvelope(&h, msg.Streamer.Raw)
	default:
		return nil, newProtocolError(ErrUnknownStreamerType, errNoChannels)
	}

	paddedBody, wasPadded := padX923(body, 4)
	h.Padding = wasPadded

	headerBytes := encodeHeader(&h)
	return append(headerBytes, paddedBody...), nil
}

func encodeStreamerEnvelope(h *RtpHeader, raw []byte) []byte {
	if isLogicalControlEnvelope(h) {
		return append([]byte(nil), raw...)
	}
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(raw)))
	return append(buf, raw...)
}

// ReadTCPFrame reads one length-framed message from the Control
// transport: a u32 LE byte count followed by that many bytes.
func ReadTCPFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteTCPFrame writes frame to w prefixed with its u32 LE byte count.
func WriteTCPFrame(w io.Writer, frame []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}
