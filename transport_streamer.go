// Streamer transport: the connected UDP datagram endpoint carrying
// Video/Audio/ChatAudio/Input/InputFeedback data, plus the UDP handshake
// that establishes it.

package nano

import (
	"net"
	"sync"
)

// streamerReadBufferSize is larger than any single NANO datagram observed
// in capture; UDP reads never span multiple messages.
const streamerReadBufferSize = 65536

// StreamerTransport owns the UDP "connection" to the console's media
// port. It is never fatal on a malformed datagram — only Stop() ends the
// receive loop; a malformed datagram is never fatal.
type StreamerTransport struct {
	conn *net.UDPConn

	onMessage func(*Message)

	connectedOnce sync.Once
	connected     chan struct{}

	stopped chan struct{}
	stopOne sync.Once
}

// DialStreamerTransport connects a UDP socket to address:port and starts
// the receive loop. onMessage is invoked for every successfully decoded
// datagram.
func DialStreamerTransport(address string, port int, onMessage func(*Message)) (*StreamerTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", netJoin(address, port))
	if err != nil {
		return nil, newProtocolError(ErrTransportClosed, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, newProtocolError(ErrTransportClosed, err)
	}
	t := &StreamerTransport{
		conn:      conn,
		onMessage: onMessage,
		connected: make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go t.runReaderLoop()
	return t, nil
}

// Send encodes msg and writes exactly one datagram.
func (t *StreamerTransport) Send(msg *Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = t.conn.Write(frame)
	return err
}

// Connected returns a channel closed the moment the first inbound
// datagram arrives (the session engine's udp_connected signal).
func (t *StreamerTransport) Connected() <-chan struct{} {
	return t.connected
}

func (t *StreamerTransport) runReaderLoop() {
	buf := make([]byte, streamerReadBufferSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			break
		}
		t.connectedOnce.Do(func() { close(t.connected) })

		datagram := append([]byte(nil), buf[:n]...)
		msg, err := Decode(datagram)
		if err != nil {
			LogWarning("streamer transport: dropping malformed datagram: " + err.Error())
			continue
		}
		t.onMessage(msg)
	}
	close(t.stopped)
}

// Stop closes the socket, unblocking the reader, and waits for the
// receive loop to exit.
func (t *StreamerTransport) Stop() {
	t.stopOne.Do(func() {
		t.conn.Close()
	})
	<-t.stopped
}
