package nano

import (
	"net"
	"testing"
	"time"
)

// attachLoopbackControl gives a test Session a real Control transport
// backed by a TCP loopback pair, so code paths that call s.control.Send
// (ChannelOpen replies, handshake sends) can be exercised without a nil
// pointer dereference. It returns the accepted server-side net.Conn so
// the test can read back whatever the session sends.
func attachLoopbackControl(t *testing.T, s *Session) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	serverConnCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			serverConnCh <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	transport, err := DialControlTransport("127.0.0.1", addr.Port, func(*Message) {}, func(error) {})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(transport.Stop)
	s.control = transport

	select {
	case conn := <-serverConnCh:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted connection")
		return nil
	}
}

func readDecodedFrame(t *testing.T, conn net.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := ReadTCPFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

type recordingVideoRenderer struct {
	format VideoFormat
	frames [][]byte
}

func (r *recordingVideoRenderer) SetVideoFormat(format VideoFormat) { r.format = format }
func (r *recordingVideoRenderer) RenderVideo(frame []byte)          { r.frames = append(r.frames, frame) }

func newTestSession(collab *Collaborators) *Session {
	client := &Client{session: collab}
	s := newSession("127.0.0.1", 0, 0, collab, client)
	client.s = s
	return s
}

func TestSessionHandleControlHandshakeSetsConnectionID(t *testing.T) {
	s := newTestSession(&Collaborators{})

	msg := &Message{
		Header: RtpHeader{Version: 2, PayloadType: RtpPayloadControl},
		ChannelControlHandshake: &ChannelControlHandshakePayload{
			Type:         ChannelControlServerHandshake,
			ConnectionID: 54321,
		},
	}
	s.handleControlHandshake(msg)

	if s.connectionIDValue() != 54321 {
		t.Fatalf("connectionID = %d, want 54321", s.connectionIDValue())
	}
	select {
	case <-s.connected:
	default:
		t.Fatal("expected connected channel to be closed")
	}
}

func TestSessionHandleControlHandshakeIgnoresWrongType(t *testing.T) {
	s := newTestSession(&Collaborators{})
	msg := &Message{
		Header: RtpHeader{Version: 2, PayloadType: RtpPayloadControl},
		ChannelControlHandshake: &ChannelControlHandshakePayload{
			Type:         ChannelControlClientHandshake,
			ConnectionID: 1,
		},
	}
	s.handleControlHandshake(msg)
	select {
	case <-s.connected:
		t.Fatal("did not expect connected channel to be closed by a client-handshake echo")
	default:
	}
}

func TestSessionHandleChannelControlCreate(t *testing.T) {
	s := newTestSession(&Collaborators{})
	msg := &Message{
		Header: RtpHeader{Version: 2, PayloadType: RtpPayloadChannelControl, ChannelID: 1024},
		ChannelControl: &ChannelControlPayload{
			Type:        ChannelControlChannelCreate,
			Name:        ChannelClassVideo,
			CreateFlags: 1,
		},
	}
	s.handleChannelControl(msg)

	ch, ok := s.registry.get(1024)
	if !ok {
		t.Fatal("expected channel 1024 to be registered")
	}
	if ch.Class != ChannelClassVideo {
		t.Fatalf("class = %v, want Video", ch.Class)
	}
}

func TestSessionHandleChannelControlCreateRejectsTcpBase(t *testing.T) {
	s := newTestSession(&Collaborators{})
	msg := &Message{
		Header: RtpHeader{Version: 2, PayloadType: RtpPayloadChannelControl, ChannelID: 2048},
		ChannelControl: &ChannelControlPayload{
			Type: ChannelControlChannelCreate,
			Name: ChannelClassTcpBase,
		},
	}
	s.handleChannelControl(msg)

	if _, ok := s.registry.get(2048); ok {
		t.Fatal("expected TcpBase ChannelCreate to be rejected, not registered")
	}
}

func TestSessionHandleChannelControlClose(t *testing.T) {
	s := newTestSession(&Collaborators{})
	ch := s.registry.create(1024, ChannelClassAudio, 0)
	ch.markOpen()

	msg := &Message{
		Header:         RtpHeader{Version: 2, PayloadType: RtpPayloadChannelControl, ChannelID: 1024},
		ChannelControl: &ChannelControlPayload{Type: ChannelControlChannelClose},
	}
	s.handleChannelControl(msg)

	if ch.isOpen() {
		t.Fatal("expected channel to be closed")
	}
}

func TestSessionDispatchStreamerVideoData(t *testing.T) {
	renderer := &recordingVideoRenderer{}
	s := newTestSession(&Collaborators{Video: renderer})
	s.registry.create(1024, ChannelClassVideo, 0)

	payload := &VideoDataPayload{FrameID: 1, PacketCount: 1, Data: []byte{1, 2, 3}}
	raw, err := EncodeStreamerPayload(ChannelClassVideo, uint32(VideoData), payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg := &Message{
		Header: RtpHeader{
			Version: 2, PayloadType: RtpPayloadStreamer, ChannelID: 1024,
			Streamer: &StreamerSubHeader{StreamerVersion: 0, Type: uint32(VideoData)},
		},
		Streamer: &StreamerEnvelope{Raw: raw},
	}
	s.dispatchStreamer(msg)

	if len(renderer.frames) != 1 {
		t.Fatalf("expected one rendered frame, got %d", len(renderer.frames))
	}
	if string(renderer.frames[0]) != "\x01\x02\x03" {
		t.Fatalf("frame = %v, want [1 2 3]", renderer.frames[0])
	}
}

// TestSessionVideoHandshakeSendsClientHandshakeThenControl verifies the
// Video channel's mandatory reply sequence: a ClientHandshake followed by
// a Control message requesting stream start + keyframe, in that order.
func TestSessionVideoHandshakeSendsClientHandshakeThenControl(t *testing.T) {
	renderer := &recordingVideoRenderer{}
	s := newTestSession(&Collaborators{Video: renderer})
	conn := attachLoopbackControl(t, s)
	ch := s.registry.create(1024, ChannelClassVideo, 0)

	hs := &VideoServerHandshakePayload{
		ReferenceTimestamp: 1000,
		Formats:            []VideoFormat{{FPS: 60, Width: 1280, Height: 720, Codec: VideoCodecH264}},
	}
	s.handleVideoPayload(ch, hs)

	first := readDecodedFrame(t, conn)
	if first.Header.Streamer == nil || VideoPayloadType(first.Header.Streamer.Type) != VideoClientHandshake {
		t.Fatalf("first message streamer type = %v, want VideoClientHandshake", first.Header.Streamer)
	}
	clientHandshake, err := DecodeStreamerPayload(ChannelClassVideo, first.Header.Streamer.Type, first.Streamer.Raw)
	if err != nil {
		t.Fatalf("decode client handshake: %v", err)
	}
	if _, ok := clientHandshake.(*VideoClientHandshakePayload); !ok {
		t.Fatalf("got %T, want *VideoClientHandshakePayload", clientHandshake)
	}

	second := readDecodedFrame(t, conn)
	if second.Header.Streamer == nil || VideoPayloadType(second.Header.Streamer.Type) != VideoControl {
		t.Fatalf("second message streamer type = %v, want VideoControl", second.Header.Streamer)
	}
	controlPayload, err := DecodeStreamerPayload(ChannelClassVideo, second.Header.Streamer.Type, second.Streamer.Raw)
	if err != nil {
		t.Fatalf("decode control: %v", err)
	}
	ctrl, ok := controlPayload.(*VideoControlPayload)
	if !ok {
		t.Fatalf("got %T, want *VideoControlPayload", controlPayload)
	}
	if !ctrl.StartStream || !ctrl.RequestKeyframe {
		t.Fatalf("got %+v, want StartStream=true RequestKeyframe=true", ctrl)
	}

	if renderer.format.Width != 1280 {
		t.Fatalf("renderer format = %+v, want Width=1280", renderer.format)
	}
}

// TestSessionChannelOpenSendsChatAudioServerHandshake verifies the
// role-inverted ChatAudio channel speaks first on open.
func TestSessionChannelOpenSendsChatAudioServerHandshake(t *testing.T) {
	s := newTestSession(&Collaborators{})
	conn := attachLoopbackControl(t, s)
	ch := s.registry.create(2048, ChannelClassChatAudio, 0)

	s.onChannelOpen(ch)

	msg := readDecodedFrame(t, conn)
	if msg.Header.Streamer == nil || AudioPayloadType(msg.Header.Streamer.Type) != AudioServerHandshake {
		t.Fatalf("streamer type = %v, want AudioServerHandshake", msg.Header.Streamer)
	}
	payload, err := DecodeStreamerPayload(ChannelClassChatAudio, msg.Header.Streamer.Type, msg.Streamer.Raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	hs, ok := payload.(*AudioServerHandshakePayload)
	if !ok {
		t.Fatalf("got %T, want *AudioServerHandshakePayload", payload)
	}
	if len(hs.Formats) != 1 || hs.Formats[0] != defaultChatAudioFormat {
		t.Fatalf("formats = %+v, want default chat audio format", hs.Formats)
	}
}

// TestSessionChannelOpenSendsInputFeedbackServerHandshake verifies the
// role-inverted InputFeedback channel speaks first on open with the
// fixed desktop geometry and zero max touches.
func TestSessionChannelOpenSendsInputFeedbackServerHandshake(t *testing.T) {
	s := newTestSession(&Collaborators{})
	conn := attachLoopbackControl(t, s)
	ch := s.registry.create(3072, ChannelClassInputFeedback, 0)

	s.onChannelOpen(ch)

	msg := readDecodedFrame(t, conn)
	if msg.Header.Streamer == nil || InputPayloadType(msg.Header.Streamer.Type) != InputServerHandshake {
		t.Fatalf("streamer type = %v, want InputServerHandshake", msg.Header.Streamer)
	}
	payload, err := DecodeStreamerPayload(ChannelClassInputFeedback, msg.Header.Streamer.Type, msg.Streamer.Raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	hs, ok := payload.(*InputServerHandshakePayload)
	if !ok {
		t.Fatalf("got %T, want *InputServerHandshakePayload", payload)
	}
	if hs.DesktopWidth != 1280 || hs.DesktopHeight != 720 || hs.MaxTouches != 0 {
		t.Fatalf("got %+v, want 1280x720 and MaxTouches=0", hs)
	}
}

func TestSessionDispatchStreamerIgnoresReservedChannelZero(t *testing.T) {
	s := newTestSession(&Collaborators{})
	msg := &Message{
		Header: RtpHeader{
			Version: 2, PayloadType: RtpPayloadStreamer, ChannelID: 0,
			Streamer: &StreamerSubHeader{Type: uint32(VideoData)},
		},
		Streamer: &StreamerEnvelope{Raw: []byte{}},
	}
	// Must not panic despite no registered channel 0.
	s.dispatchStreamer(msg)
}

func TestSessionDispatchStreamerDropsUnknownChannel(t *testing.T) {
	s := newTestSession(&Collaborators{})
	msg := &Message{
		Header: RtpHeader{
			Version: 2, PayloadType: RtpPayloadStreamer, ChannelID: 9999,
			Streamer: &StreamerSubHeader{Type: uint32(VideoData)},
		},
		Streamer: &StreamerEnvelope{Raw: []byte{}},
	}
	// Must not panic despite no registered channel 9999.
	s.dispatchStreamer(msg)
}
