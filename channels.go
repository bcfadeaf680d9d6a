// Per-channel-class behavior: what the session does when a channel opens
// or closes, and how it turns each decoded Streamer payload into a
// facade callback or a reply.

package nano

import "time"

// defaultChatAudioFormat is advertised when Collaborators.ChatAudioFormats
// is left empty.
var defaultChatAudioFormat = AudioFormat{Channels: 1, SampleRate: 24000, Codec: AudioCodecOpus}

func timeFromUnixMillis(ms uint64) time.Time {
	return time.UnixMilli(int64(ms))
}

// onChannelOpen fires the client-initiated handshakes for the two
// role-inverted channel classes. Unlike Video/Audio/Input, where the
// console speaks first, ChatAudio and InputFeedback wait for the client
// to send its own ServerHandshake before the console replies.
func (s *Session) onChannelOpen(ch *Channel) {
	LogChannel(ch.ID, ch.Class, "channel opened")
	switch ch.Class {
	case ChannelClassChatAudio:
		formats := s.collab.ChatAudioFormats
		if len(formats) == 0 {
			formats = []AudioFormat{defaultChatAudioFormat}
		}
		now := time.Now()
		ch.setReferenceTimestamp(now)
		hs := &AudioServerHandshakePayload{
			ReferenceTimestamp: uint64(now.UnixMilli()),
			Formats:            formats,
		}
		if err := s.sendChannelTCP(ch, uint32(AudioServerHandshake), hs); err != nil {
			LogError(err)
		}
	case ChannelClassInputFeedback:
		hs := &InputServerHandshakePayload{
			DesktopWidth:   1280,
			DesktopHeight:  720,
			MaxTouches:     0,
			InitialFrameID: ch.nextFrameID(),
		}
		if err := s.sendChannelTCP(ch, uint32(InputServerHandshake), hs); err != nil {
			LogError(err)
		}
	}
}

func (s *Session) onChannelClose(ch *Channel) {
	LogChannel(ch.ID, ch.Class, "channel closed")
}

// handleChannelPayload routes one decoded Streamer payload to its
// class-specific handler.
func (s *Session) handleChannelPayload(ch *Channel, streamerType uint32, payload interface{}) {
	switch ch.Class {
	case ChannelClassVideo:
		s.handleVideoPayload(ch, payload)
	case ChannelClassAudio:
		s.handleAudioPayload(ch, payload, false)
	case ChannelClassChatAudio:
		s.handleAudioPayload(ch, payload, true)
	case ChannelClassInput, ChannelClassInputFeedback:
		s.handleInputPayload(ch, payload)
	case ChannelClassControl:
		s.handleControlChannelPayload(ch, payload)
	}
}

func (s *Session) handleVideoPayload(ch *Channel, payload interface{}) {
	switch p := payload.(type) {
	case *VideoServerHandshakePayload:
		ch.setReferenceTimestamp(timeFromUnixMillis(p.ReferenceTimestamp))
		format := VideoFormat{FPS: p.FPS, Width: p.Width, Height: p.Height, Codec: VideoCodecH264}
		if len(p.Formats) > 0 {
			format = p.Formats[0]
		}
		reply := &VideoClientHandshakePayload{InitialFrameID: ch.nextFrameID(), RequestedFormat: format}
		if err := s.sendChannelTCP(ch, uint32(VideoClientHandshake), reply); err != nil {
			LogError(err)
		}
		s.client.SetVideoFormat(format)
		startCtrl := &VideoControlPayload{StartStream: true, RequestKeyframe: true}
		if err := s.sendChannelTCP(ch, uint32(VideoControl), startCtrl); err != nil {
			LogError(err)
		}
	case *VideoDataPayload:
		if frame, ok := ch.reassembly.addPacket(p.FrameID, p.PacketCount, p.Offset, p.Data); ok {
			s.client.RenderVideo(frame)
		}
	case *VideoControlPayload:
		LogChannel(ch.ID, ch.Class, "unexpected inbound video control payload")
	}
}

func (s *Session) handleAudioPayload(ch *Channel, payload interface{}, chat bool) {
	switch p := payload.(type) {
	case *AudioServerHandshakePayload:
		ch.setReferenceTimestamp(timeFromUnixMillis(p.ReferenceTimestamp))
		format := defaultChatAudioFormat
		if chat && len(s.collab.ChatAudioFormats) > 0 {
			format = s.collab.ChatAudioFormats[0]
		} else if !chat && len(p.Formats) > 0 {
			format = p.Formats[0]
		}
		reply := &AudioClientHandshakePayload{InitialFrameID: ch.nextFrameID(), RequestedFormat: format}
		if err := s.sendChannelTCP(ch, uint32(AudioClientHandshake), reply); err != nil {
			LogError(err)
		}
		if !chat {
			s.client.SetAudioFormat(format)
		}
	case *AudioClientHandshakePayload:
		// The console's reply to our own ChatAudio ServerHandshake,
		// confirming the format it will accept upstream.
		LogChannel(ch.ID, ch.Class, "console accepted chat audio format")
	case *AudioDataPayload:
		if !chat {
			s.client.RenderAudio(p.Data)
		}
	case *AudioControlPayload:
		LogChannel(ch.ID, ch.Class, "unexpected inbound audio control payload")
	}
}

func (s *Session) handleInputPayload(ch *Channel, payload interface{}) {
	switch p := payload.(type) {
	case *InputServerHandshakePayload:
		ch.mu.Lock()
		ch.frameID = p.InitialFrameID
		ch.mu.Unlock()
		now := time.Now()
		ch.setReferenceTimestamp(now)
		reply := &InputClientHandshakePayload{
			MaxTouches:         10,
			ReferenceTimestamp: uint64(now.UnixMilli()),
		}
		if err := s.sendChannelTCP(ch, uint32(InputClientHandshake), reply); err != nil {
			LogError(err)
		}
	case *InputFrameAckPayload:
		LogChannel(ch.ID, ch.Class, "input frame ack received")
	case *InputFramePayload:
		// InputFeedback carries rumble/vibration samples from the console;
		// there is no dedicated collaborator for it, so it's only logged.
		LogChannel(ch.ID, ch.Class, "input feedback frame received")
	}
}

func (s *Session) handleControlChannelPayload(ch *Channel, payload interface{}) {
	cm, ok := payload.(*ControlMessage)
	if !ok {
		return
	}
	switch b := cm.Body.(type) {
	case *SessionCreateResponseBody:
		LogChannel(ch.ID, ch.Class, "session created: "+b.GUID.String())
	case *InitiateNetworkTestBody:
		reply := &NetworkTestResponseBody{GUID: b.GUID}
		if err := s.sendControlMessage(ch, ControlNetworkTestResponse, reply); err != nil {
			LogError(err)
		}
	case *SessionDestroyBody:
		LogChannel(ch.ID, ch.Class, "session destroyed by console")
	}
}

// sendChannelTCP sends a reliable (handshake/control-class) Streamer
// message for ch over the Control transport, advancing its TCP
// sequence counter.
func (s *Session) sendChannelTCP(ch *Channel, streamerType uint32, payload interface{}) error {
	raw, err := EncodeStreamerPayload(ch.Class, streamerType, payload)
	if err != nil {
		return err
	}
	prev, cur := ch.nextTCPSequence()
	header := RtpHeader{
		Version:      2,
		PayloadType:  RtpPayloadStreamer,
		ConnectionID: s.connectionIDValue(),
		ChannelID:    ch.ID,
		Streamer: &StreamerSubHeader{
			StreamerVersion: 3,
			HasSequence:     true,
			SequenceNum:     cur,
			PrevSequenceNum: prev,
			Type:            streamerType,
		},
	}
	return s.control.Send(&Message{Header: header, Streamer: &StreamerEnvelope{Raw: raw}})
}

// sendChannelUDP sends a datagram (data-path) Streamer message for ch
// over the Streamer transport. No sequence numbers are carried:
// StreamerVersion 0 never sets the has-sequence bit.
func (s *Session) sendChannelUDP(ch *Channel, streamerType uint32, payload interface{}) error {
	raw, err := EncodeStreamerPayload(ch.Class, streamerType, payload)
	if err != nil {
		return err
	}
	header := RtpHeader{
		Version:      2,
		PayloadType:  RtpPayloadStreamer,
		ConnectionID: s.connectionIDValue(),
		ChannelID:    ch.ID,
		Streamer:     &StreamerSubHeader{StreamerVersion: 0, Type: streamerType},
	}
	return s.streamer.Send(&Message{Header: header, Streamer: &StreamerEnvelope{Raw: raw}})
}

// sendControlMessage sends an application-level message on the Control
// channel class. Its envelope hardcodes ConnectionID 0 and streamer type
// 0 regardless of the carried opcode (the "logical Control channel"
// quirk, isLogicalControlEnvelope in message.go); PrevSeqDup mirrors the
// same prev-sequence value the envelope's own PrevSequenceNum carries
// (observed in capture: a ChangeVideoQuality with sequence_num=3 carries
// prev_seq_dup=2, not some independently tracked counter).
func (s *Session) sendControlMessage(ch *Channel, opcode ControlPayloadType, body interface{}) error {
	prev, cur := ch.nextTCPSequence()
	pkt := &ControlPacket{PrevSeqDup: prev, Unk1: 1, Unk2: 1406, Opcode: opcode}
	raw, err := EncodeStreamerPayload(ChannelClassControl, 0, &ControlMessage{Packet: pkt, Body: body})
	if err != nil {
		return err
	}
	header := RtpHeader{
		Version:      2,
		PayloadType:  RtpPayloadStreamer,
		ConnectionID: 0,
		ChannelID:    ch.ID,
		Streamer: &StreamerSubHeader{
			StreamerVersion: 3,
			HasSequence:     true,
			SequenceNum:     cur,
			PrevSequenceNum: prev,
			Type:            0,
		},
	}
	return s.control.Send(&Message{Header: header, Streamer: &StreamerEnvelope{Raw: raw}})
}

func (s *Session) sendInputFrame(frame InputFrameFields, createdAt time.Time) error {
	ch, ok := s.registry.getByClass(ChannelClassInput)
	if !ok {
		return newProtocolError(ErrUnknownChannel, errNoChannels)
	}
	elapsed := time.Since(ch.ReferenceTimestamp()).Seconds()
	payload := &InputFramePayload{
		FrameID:   ch.nextFrameID(),
		Timestamp: EncodeInputTimestamp(elapsed),
		CreatedTS: uint64(createdAt.UnixMilli()),
		Buttons:   frame.Buttons,
		Analog:    frame.Analog,
		Extension: frame.Extension,
	}
	return s.sendChannelUDP(ch, uint32(InputFrame), payload)
}

func (s *Session) sendControllerEvent(event ControllerEvent, index uint8) error {
	ch, ok := s.registry.getByClass(ChannelClassControl)
	if !ok {
		return newProtocolError(ErrUnknownChannel, errNoChannels)
	}
	return s.sendControlMessage(ch, ControlControllerEvent, &ControllerEventBody{Event: event, ControllerNum: index})
}

func (s *Session) sendChangeVideoQuality(q VideoQuality) error {
	ch, ok := s.registry.getByClass(ChannelClassControl)
	if !ok {
		return newProtocolError(ErrUnknownChannel, errNoChannels)
	}
	return s.sendControlMessage(ch, ControlChangeVideoQuality, &ChangeVideoQualityBody{Quality: q})
}

func (s *Session) sendChatAudio(frame []byte) error {
	ch, ok := s.registry.getByClass(ChannelClassChatAudio)
	if !ok {
		return newProtocolError(ErrUnknownChannel, errNoChannels)
	}
	payload := &AudioDataPayload{
		FrameID:   ch.nextFrameID(),
		Timestamp: uint64(time.Since(ch.ReferenceTimestamp()) / time.Millisecond),
		Data:      frame,
	}
	return s.sendChannelUDP(ch, uint32(AudioData), payload)
}
