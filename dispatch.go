// Per-channel-class streamer payload dispatch: rebinds a Streamer
// envelope's raw bytes and tentative type integer to a concrete payload
// once the owning channel's class is known, mirroring the console's own
// per-(class, type) lookup table.

package nano

// ControlMessage is the decoded logical-Control-channel payload: the
// ControlPacket envelope plus its opcode-specific body.
type ControlMessage struct {
	Packet *ControlPacket
	Body   interface{}
}

// DecodeStreamerPayload completes decoding a Streamer envelope once the
// owning channel's class is known. streamerType is RtpHeader.Streamer.Type
// from the tentative header decode.
func DecodeStreamerPayload(class ChannelClass, streamerType uint32, raw []byte) (interface{}, error) {
	switch class {
	case ChannelClassVideo:
		switch VideoPayloadType(streamerType) {
		case VideoServerHandshake:
			return decodeVideoServerHandshake(raw)
		case VideoClientHandshake:
			return decodeVideoClientHandshake(raw)
		case VideoControl:
			return decodeVideoControl(raw)
		case VideoData:
			return decodeVideoData(raw)
		}
	case ChannelClassAudio, ChannelClassChatAudio:
		switch AudioPayloadType(streamerType) {
		case AudioServerHandshake:
			return decodeAudioServerHandshake(raw)
		case AudioClientHandshake:
			return decodeAudioClientHandshake(raw)
		case AudioControl:
			return decodeAudioControl(raw)
		case AudioData:
			return decodeAudioData(raw)
		}
	case ChannelClassInput, ChannelClassInputFeedback:
		switch InputPayloadType(streamerType) {
		case InputServerHandshake:
			return decodeInputServerHandshake(raw)
		case InputClientHandshake:
			return decodeInputClientHandshake(raw)
		case InputFrameAck:
			return decodeInputFrameAck(raw)
		case InputFrame:
			return decodeInputFrame(raw)
		}
	case ChannelClassControl:
		return decodeControlMessage(raw)
	}
	return nil, newProtocolError(ErrUnknownStreamerType, errNoChannels)
}

// EncodeStreamerPayload serializes a concrete payload back to the raw
// bytes a Streamer envelope carries, inverse of DecodeStreamerPayload.
func EncodeStreamerPayload(class ChannelClass, streamerType uint32, payload interface{}) ([]byte, error) {
	switch class {
	case ChannelClassVideo:
		switch VideoPayloadType(streamerType) {
		case VideoServerHandshake:
			p, ok := payload.(*VideoServerHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeVideoServerHandshake(p), nil
		case VideoClientHandshake:
			p, ok := payload.(*VideoClientHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeVideoClientHandshake(p), nil
		case VideoControl:
			p, ok := payload.(*VideoControlPayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeVideoControl(p), nil
		case VideoData:
			p, ok := payload.(*VideoDataPayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeVideoData(p), nil
		}
	case ChannelClassAudio, ChannelClassChatAudio:
		switch AudioPayloadType(streamerType) {
		case AudioServerHandshake:
			p, ok := payload.(*AudioServerHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeAudioServerHandshake(p), nil
		case AudioClientHandshake:
			p, ok := payload.(*AudioClientHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeAudioClientHandshake(p), nil
		case AudioControl:
			p, ok := payload.(*AudioControlPayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeAudioControl(p), nil
		case AudioData:
			p, ok := payload.(*AudioDataPayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeAudioData(p), nil
		}
	case ChannelClassInput, ChannelClassInputFeedback:
		switch InputPayloadType(streamerType) {
		case InputServerHandshake:
			p, ok := payload.(*InputServerHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeInputServerHandshake(p), nil
		case InputClientHandshake:
			p, ok := payload.(*InputClientHandshakePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeInputClientHandshake(p), nil
		case InputFrameAck:
			p, ok := payload.(*InputFrameAckPayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeInputFrameAck(p), nil
		case InputFrame:
			p, ok := payload.(*InputFramePayload)
			if !ok {
				return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
			}
			return encodeInputFrame(p), nil
		}
	case ChannelClassControl:
		p, ok := payload.(*ControlMessage)
		if !ok {
			return nil, newProtocolError(ErrInvariantViolation, errNoChannels)
		}
		return encodeControlMessage(p), nil
	}
	return nil, newProtocolError(ErrUnknownStreamerType, errNoChannels)
}

func decodeControlMessage(raw []byte) (*ControlMessage, error) {
	pkt, err := decodeControlPacket(raw)
	if err != nil {
		return nil, err
	}
	body, err := decodeControlBody(pkt.Opcode, pkt.Body)
	if err != nil {
		return nil, err
	}
	return &ControlMessage{Packet: pkt, Body: body}, nil
}

func encodeControlMessage(m *ControlMessage) []byte {
	body := encodeControlBody(m.Packet.Opcode, m.Body)
	pkt := *m.Packet
	pkt.Body = body
	return encodeControlPacket(&pkt)
}

func decodeControlBody(opcode ControlPayloadType, buf []byte) (interface{}, error) {
	switch opcode {
	case ControlSessionInit:
		return decodeSessionInit(buf)
	case ControlSessionCreate:
		return decodeSessionCreate(buf)
	case ControlSessionCreateResponse:
		return decodeSessionCreateResponse(buf)
	case ControlSessionDestroy:
		return decodeSessionDestroy(buf)
	case ControlVideoStatistics:
		return decodeVideoStatistics(buf)
	case ControlRealtimeTelemetry:
		return decodeRealtimeTelemetry(buf)
	case ControlChangeVideoQuality:
		return decodeChangeVideoQuality(buf)
	case ControlInitiateNetworkTest:
		return decodeInitiateNetworkTest(buf)
	case ControlNetworkInformation:
		return decodeNetworkInformation(buf)
	case ControlNetworkTestResponse:
		return decodeNetworkTestResponse(buf)
	case ControlControllerEvent:
		return decodeControllerEvent(buf)
	default:
		return nil, newProtocolError(ErrUnknownStreamerType, errNoChannels)
	}
}

func encodeControlBody(opcode ControlPayloadType, body interface{}) []byte {
	switch b := body.(type) {
	case *SessionInitBody:
		return encodeSessionInit(b)
	case *SessionCreateBody:
		return encodeSessionCreate(b)
	case *SessionCreateResponseBody:
		return encodeSessionCreateResponse(b)
	case *SessionDestroyBody:
		return encodeSessionDestroy(b)
	case *VideoStatisticsBody:
		return encodeVideoStatistics(b)
	case *RealtimeTelemetryBody:
		return encodeRealtimeTelemetry(b)
	case *ChangeVideoQualityBody:
		return encodeChangeVideoQuality(b)
	case *InitiateNetworkTestBody:
		return encodeInitiateNetworkTest(b)
	case *NetworkInformationBody:
		return encodeNetworkInformation(b)
	case *NetworkTestResponseBody:
		return encodeNetworkTestResponse(b)
	case *ControllerEventBody:
		return encodeControllerEvent(b)
	default:
		return nil
	}
}
