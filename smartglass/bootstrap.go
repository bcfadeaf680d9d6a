// Bootstrapper: dials the console's SmartGlass system-broadcast channel,
// accumulates GameStreamState the way the original NanoManager did, and
// yields a SessionParams tuple once a stream is ready to attach to.

package smartglass

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 10 * time.Second

// Bootstrapper owns the websocket connection to one console's broadcast
// channel. It never talks to the NANO Control/Streamer transports itself;
// it only hands a caller the parameters needed to dial them.
type Bootstrapper struct {
	address       string
	connectionURL string

	mu      sync.Mutex
	conn    *websocket.Conn
	enabled bool
	stopped bool

	states map[GameStreamState]*gameStreamStateMessage

	// Ready receives a SessionParams the moment the console reports
	// GameStreamState=Initializing with a session id and ports. Buffered
	// by 1 so a Connect/reconnect race never blocks the reader loop.
	Ready chan SessionParams

	// OnError receives every GameStreamError broadcast.
	OnError func(GameStreamError)
}

// NewBootstrapper constructs a Bootstrapper for the console reachable at
// wsURL (its broadcast websocket endpoint). address is the console's IP,
// forwarded into the SessionParams this bootstrapper eventually yields.
func NewBootstrapper(address, wsURL string) (*Bootstrapper, error) {
	parsed, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	return &Bootstrapper{
		address:       address,
		connectionURL: parsed.String(),
		states:        make(map[GameStreamState]*gameStreamStateMessage),
		Ready:         make(chan SessionParams, 1),
	}, nil
}

// Start dials the broadcast channel and begins reading. Reconnection on
// failure runs until Stop is called.
func (b *Bootstrapper) Start() {
	b.mu.Lock()
	b.enabled = true
	b.mu.Unlock()
	go b.connect()
}

// Stop ends the reconnect loop and closes any open connection.
func (b *Bootstrapper) Stop() {
	b.mu.Lock()
	b.enabled = false
	b.stopped = true
	conn := b.conn
	b.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (b *Bootstrapper) connect() {
	b.mu.Lock()
	if b.conn != nil || b.stopped {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(b.connectionURL, http.Header{})
	if err != nil {
		b.scheduleReconnect()
		return
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	go b.runReaderLoop(conn)
}

func (b *Bootstrapper) scheduleReconnect() {
	b.mu.Lock()
	enabled := b.enabled
	b.mu.Unlock()
	if !enabled {
		return
	}
	time.AfterFunc(reconnectDelay, b.connect)
}

func (b *Bootstrapper) onDisconnect() {
	b.mu.Lock()
	b.conn = nil
	b.mu.Unlock()
	b.scheduleReconnect()
}

func (b *Bootstrapper) runReaderLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			b.onDisconnect()
			return
		}
		b.handleBroadcast(data)
	}
}

// StartGameStream requests the console begin streaming with the given
// configuration (smartglass.DefaultStreamConfig for the common case).
func (b *Bootstrapper) StartGameStream(config map[string]string) error {
	return b.send(startGameStreamMessage{
		Type:                 BroadcastStartGameStream,
		ReQueryPreviewStatus: true,
		Configuration:        config,
	})
}

// StopGameStream requests the console end the active stream.
func (b *Bootstrapper) StopGameStream() error {
	return b.send(stopGameStreamMessage{Type: BroadcastStopGameStream})
}

func (b *Bootstrapper) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bootstrapper) handleBroadcast(data []byte) {
	var env broadcastEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Type {
	case BroadcastGameStreamState:
		var m gameStreamStateMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
		b.onGameStreamState(&m)
	case BroadcastGameStreamError:
		var m gameStreamErrorMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
		if b.OnError != nil {
			b.OnError(m.Error)
		}
	case BroadcastGameStreamEnabled, BroadcastTelemetry, BroadcastPreviewStatus:
		// Ignored: these are neither decoded nor stored, and no SessionParams
		// or error-path consequence hangs on them.
	}
}

// onGameStreamState mirrors NanoManager._on_json's state accumulation:
// Stopped/Unknown resets everything seen so far, every other state is
// recorded by key, and an Initializing state with a session id yields a
// ready SessionParams.
func (b *Bootstrapper) onGameStreamState(m *gameStreamStateMessage) {
	b.mu.Lock()
	if m.State == GameStreamStateStopped || m.State == GameStreamStateUnknown {
		b.states = make(map[GameStreamState]*gameStreamStateMessage)
	}
	b.states[m.State] = m
	b.mu.Unlock()

	if m.State == GameStreamStateInitializing && m.SessionID != "" {
		select {
		case b.Ready <- SessionParams{
			Address:   b.address,
			SessionID: m.SessionID,
			TCPPort:   m.TCPPort,
			UDPPort:   m.UDPPort,
		}:
		default:
		}
	}
}

// Streaming reports whether the console has reported GameStreamState=Started.
func (b *Bootstrapper) Streaming() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.states[GameStreamStateStarted]
	return ok
}
