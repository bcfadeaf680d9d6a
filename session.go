// Session engine: the two-phase handshake, UDP-handshake retry loop, and
// channel create/open/close routing that bring a NANO session up and
// keep it running.

package nano

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// connectionIDRangeLow/High bound the client-proposed connection id
	// generated for the Control handshake.
	connectionIDRangeLow  = 50000
	connectionIDRangeHigh = 60000

	udpHandshakeInterval = 500 * time.Millisecond
	handshakeTimeout     = 10 * time.Second
)

// Session drives one NANO protocol session against a single console. It
// is constructed by Client and never exposed directly to collaborators
// (channel handlers are Session methods that take the Channel as a
// parameter rather than letting channels own the session).
type Session struct {
	address  string
	tcpPort  int
	udpPort  int

	registry *channelRegistry
	collab   *Collaborators
	client   *Client

	control  *ControlTransport
	streamer *StreamerTransport

	mu           sync.Mutex
	connectionID uint16
	connected    chan struct{}
	connectedSet bool
}

func newSession(address string, tcpPort, udpPort int, collab *Collaborators, client *Client) *Session {
	return &Session{
		address:   address,
		tcpPort:   tcpPort,
		udpPort:   udpPort,
		registry:  newChannelRegistry(),
		collab:    collab,
		client:    client,
		connected: make(chan struct{}),
	}
}

// start runs the full bring-up sequence and returns once
// both the Control and UDP handshakes have completed, or a
// HandshakeTimeout/TransportClosed error if they don't within the window.
func (s *Session) start() error {
	control, err := DialControlTransport(s.address, s.tcpPort, s.onControlMessage, s.onControlClosed)
	if err != nil {
		return err
	}
	s.control = control

	proposedID := uint16(connectionIDRangeLow + rand.Intn(connectionIDRangeHigh-connectionIDRangeLow))
	handshake := &Message{
		Header: RtpHeader{Version: 2, PayloadType: RtpPayloadControl},
		ChannelControlHandshake: &ChannelControlHandshakePayload{
			Type:         ChannelControlClientHandshake,
			ConnectionID: proposedID,
		},
	}
	if err := s.control.Send(handshake); err != nil {
		s.control.Stop()
		return err
	}

	select {
	case <-s.connected:
	case <-time.After(handshakeTimeout):
		s.control.Stop()
		return newProtocolError(ErrHandshakeTimeout, errControlHandshakeTimeout)
	}

	streamer, err := DialStreamerTransport(s.address, s.udpPort, s.onStreamerMessage)
	if err != nil {
		s.control.Stop()
		return err
	}
	s.streamer = streamer

	if err := s.runUDPHandshake(); err != nil {
		s.control.Stop()
		s.streamer.Stop()
		return err
	}

	return nil
}

// runUDPHandshake sends a UDPHandshake every 500ms until the streamer
// transport's first inbound datagram fires, or the overall 10s timeout
// elapses.
func (s *Session) runUDPHandshake() error {
	deadline := time.After(handshakeTimeout)
	ticker := time.NewTicker(udpHandshakeInterval)
	defer ticker.Stop()

	send := func() error {
		msg := &Message{
			Header: RtpHeader{Version: 2, PayloadType: RtpPayloadUDPHandshake, ConnectionID: s.connectionIDValue()},
			UDPHandshake: &UDPHandshakePayload{Unknown: 1},
		}
		return s.streamer.Send(msg)
	}

	if err := send(); err != nil {
		return newProtocolError(ErrTransportClosed, err)
	}

	for {
		select {
		case <-s.streamer.Connected():
			return nil
		case <-ticker.C:
			_ = send() // best effort; a send failure here surfaces as the overall timeout
		case <-deadline:
			return newProtocolError(ErrHandshakeTimeout, errUDPHandshakeTimeout)
		}
	}
}

func (s *Session) connectionIDValue() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionID
}

// stop cancels both receive loops and closes both sockets.
func (s *Session) stop() {
	if s.control != nil {
		s.control.Stop()
	}
	if s.streamer != nil {
		s.streamer.Stop()
	}
}

func (s *Session) onControlClosed(err error) {
	if err == nil {
		return
	}
	LogError(err)
	if s.client != nil {
		s.client.reportError(err.Error())
	}
}

// onControlMessage is the Control transport's single subscriber (
// "avoid multi-subscriber semantics").
func (s *Session) onControlMessage(msg *Message) {
	switch msg.Header.PayloadType {
	case RtpPayloadControl:
		s.handleControlHandshake(msg)
	case RtpPayloadChannelControl:
		s.handleChannelControl(msg)
	case RtpPayloadStreamer:
		s.dispatchStreamer(msg)
	default:
		LogWarning("session: unexpected payload type on control transport")
	}
}

// onStreamerMessage is the Streamer transport's single subscriber.
func (s *Session) onStreamerMessage(msg *Message) {
	switch msg.Header.PayloadType {
	case RtpPayloadStreamer:
		s.dispatchStreamer(msg)
	case RtpPayloadUDPHandshake:
		// The console never replies in kind; any datagram at all signals
		// udp_connected, which the transport already tracks.
	default:
		LogWarning("session: unexpected payload type on streamer transport")
	}
}

func (s *Session) handleControlHandshake(msg *Message) {
	p := msg.ChannelControlHandshake
	if p == nil || p.Type != ChannelControlServerHandshake {
		return
	}
	s.mu.Lock()
	if s.connectedSet {
		s.mu.Unlock()
		return
	}
	s.connectionID = p.ConnectionID
	s.connectedSet = true
	s.mu.Unlock()
	close(s.connected)
}

func (s *Session) handleChannelControl(msg *Message) {
	p := msg.ChannelControl
	if p == nil {
		return
	}
	channelID := msg.Header.ChannelID

	switch p.Type {
	case ChannelControlChannelCreate:
		if !knownChannelClasses[p.Name] {
			LogWarning("session: ChannelCreate for unsupported channel class " + string(p.Name))
			return
		}
		s.registry.create(channelID, p.Name, p.CreateFlags)

	case ChannelControlChannelOpen:
		ch, ok := s.registry.get(channelID)
		if !ok {
			LogWarning("session: ChannelOpen for unknown channel")
			return
		}
		ch.markOpen()
		s.onChannelOpen(ch)

		reply := &Message{
			Header: RtpHeader{Version: 2, PayloadType: RtpPayloadChannelControl, ConnectionID: s.connectionIDValue(), ChannelID: channelID},
			ChannelControl: &ChannelControlPayload{
				Type:      ChannelControlChannelOpen,
				OpenFlags: p.OpenFlags,
			},
		}
		if err := s.control.Send(reply); err != nil {
			LogError(err)
		}

	case ChannelControlChannelClose:
		ch, ok := s.registry.get(channelID)
		s.registry.close(channelID)
		if ok {
			s.onChannelClose(ch)
		}
	}
}

// dispatchStreamer routes a decoded Streamer envelope to its owning
// channel and finishes decoding with the channel-specific payload codec.
func (s *Session) dispatchStreamer(msg *Message) {
	h := msg.Header
	if msg.Streamer == nil || h.Streamer == nil {
		return
	}
	if h.ChannelID == 0 {
		LogWarning("session: streamer message on reserved channel 0")
		return
	}
	ch, ok := s.registry.get(h.ChannelID)
	if !ok {
		LogWarning("session: streamer message on unknown channel")
		return
	}

	payload, err := DecodeStreamerPayload(ch.Class, h.Streamer.Type, msg.Streamer.Raw)
	if err != nil {
		LogChannelWarning(ch.ID, ch.Class, "dropping undecodable streamer payload: "+err.Error())
		return
	}

	s.handleChannelPayload(ch, h.Streamer.Type, payload)
}
