// Control transport: the length-framed TCP stream carrying the
// Control-channel-control handshake and every Streamer message whose
// channel negotiated a reliable (TCP) path.

package nano

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
)

// controlReadBufferSize is the chunk size the receive loop reads at a
// time; a single read can span several framed messages.
const controlReadBufferSize = 4096

// ControlTransport owns the TCP connection to the console's control
// port. Writes happen immediately on the caller's goroutine (the
// source's queue+flush pattern is a vestige that always flushed right
// after enqueueing, so a single immediate write is equivalent);
// reads happen on a single background goroutine that feeds decoded
// messages to onMessage.
type ControlTransport struct {
	conn net.Conn

	writeMu sync.Mutex

	onMessage func(*Message)
	onClose   func(error)

	stopped chan struct{}
	once    sync.Once
}

// DialControlTransport connects to address:port and starts the receive
// loop. onMessage is invoked from the receive goroutine for every
// successfully decoded frame; onClose is invoked once, with the error
// that ended the receive loop (nil on a clean Stop).
func DialControlTransport(address string, port int, onMessage func(*Message), onClose func(error)) (*ControlTransport, error) {
	conn, err := net.Dial("tcp", netJoin(address, port))
	if err != nil {
		return nil, newProtocolError(ErrTransportClosed, err)
	}
	t := &ControlTransport{
		conn:      conn,
		onMessage: onMessage,
		onClose:   onClose,
		stopped:   make(chan struct{}),
	}
	go t.runReaderLoop()
	return t, nil
}

// Send encodes msg and writes it to the wire immediately, framed with its
// u32 LE byte count.
func (t *ControlTransport) Send(msg *Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return WriteTCPFrame(t.conn, frame)
}

// runReaderLoop reads length-framed messages until the connection closes
// or a read error occurs, decoding and dispatching each one in turn. A
// malformed frame body is logged and the loop continues; framing itself
// (the length prefix) is trusted since a corrupt prefix desyncs the
// stream beyond recovery, so that still ends the loop.
func (t *ControlTransport) runReaderLoop() {
	r := bufio.NewReaderSize(t.conn, controlReadBufferSize)
	var endErr error
	for {
		frame, err := ReadTCPFrame(r)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				endErr = err
			}
			break
		}
		msg, err := Decode(frame)
		if err != nil {
			LogWarning("control transport: dropping malformed frame: " + err.Error())
			continue
		}
		t.onMessage(msg)
	}
	t.conn.Close()
	close(t.stopped)
	if t.onClose != nil {
		t.onClose(endErr)
	}
}

// Stop closes the socket, unblocking the reader, and waits for the
// receive loop to exit.
func (t *ControlTransport) Stop() {
	t.once.Do(func() {
		t.conn.Close()
	})
	<-t.stopped
}

func netJoin(address string, port int) string {
	return net.JoinHostPort(address, strconv.Itoa(port))
}

var _ io.Closer = (*ControlTransport)(nil)

func (t *ControlTransport) Close() error {
	t.Stop()
	return nil
}
