// Client facade: the surface the renderer and input-device collaborators
// see, hiding the session engine, transports, and channel registry
// behind a small set of methods plus a periodic pump.

package nano

import "time"

// VideoRenderer receives decoded video frames and format changes. The
// renderer collaborator (an H.264/YUV/RGB decoder + display sink) is out
// of scope for this core; it only needs to implement this interface.
type VideoRenderer interface {
	SetVideoFormat(format VideoFormat)
	RenderVideo(frame []byte)
}

// AudioRenderer receives decoded audio frames and format changes.
type AudioRenderer interface {
	SetAudioFormat(format AudioFormat)
	RenderAudio(frame []byte)
}

// InputPoller is invoked once per Pump() call so an input-device adapter
// (gamepad/keyboard source, out of scope for this core) can push fresh frames
// through Client.SendInput without the core depending on its event model.
type InputPoller interface {
	PollInput(c *Client)
}

// Collaborators bundles the out-of-scope components the facade talks to.
// Any field may be left nil; the corresponding channel class then simply
// has nowhere to deliver its output (it still runs its handshake).
type Collaborators struct {
	Video VideoRenderer
	Audio AudioRenderer

	// ChatAudioFormats is the format list the client advertises as its
	// own ServerHandshake on the (role-inverted) ChatAudio channel.
	// Defaults to a single Opus/24kHz/mono entry if empty.
	ChatAudioFormats []AudioFormat

	InputPoller InputPoller

	// OnGamestreamError receives the single, opaque error signal
	// promises the renderer: "an on_gamestream_error signal carrying an
	// opaque message". Session loss triggers it and then closes the client.
	OnGamestreamError func(msg string)
}

// Client is the top-level object collaborators construct to open a NANO
// session against one console. It owns the Session engine and exposes
// only the operations named below.
type Client struct {
	session *Collaborators
	s       *Session
}

// NewClient constructs a Client for a console reachable at
// address:tcpPort (Control) / address:udpPort (Streamer), using collab to
// reach the renderer and input-device collaborators.
func NewClient(address string, tcpPort, udpPort int, collab Collaborators) *Client {
	c := &Client{session: &collab}
	c.s = newSession(address, tcpPort, udpPort, &collab, c)
	return c
}

// Open starts the session: Control handshake, UDP handshake, and the
// channel-create/open flow the console drives once connected. It blocks
// until the session is fully connected or a handshake error occurs.
func (c *Client) Open() error {
	return c.s.start()
}

// Close tears the session down: cancels the receive loops and closes
// both sockets.
func (c *Client) Close() {
	c.s.stop()
}

// SetVideoFormat and SetAudioFormat are invoked by the session engine
// when the respective channel's ServerHandshake arrives; collaborators
// normally don't call these themselves, but the facade names them as
// the channel's visible output.
func (c *Client) SetVideoFormat(format VideoFormat) {
	if c.session.Video != nil {
		c.session.Video.SetVideoFormat(format)
	}
}

func (c *Client) SetAudioFormat(format AudioFormat) {
	if c.session.Audio != nil {
		c.session.Audio.SetAudioFormat(format)
	}
}

func (c *Client) RenderVideo(frame []byte) {
	if c.session.Video != nil {
		c.session.Video.RenderVideo(frame)
	}
}

func (c *Client) RenderAudio(frame []byte) {
	if c.session.Audio != nil {
		c.session.Audio.RenderAudio(frame)
	}
}

// SendInput stamps and transmits one controller-state frame on the Input
// channel. createdAt is the wall-clock instant the input adapter captured
// the frame (used for the frame's CreatedTS field).
func (c *Client) SendInput(frame InputFrameFields, createdAt time.Time) error {
	return c.s.sendInputFrame(frame, createdAt)
}

// ControllerAdded/ControllerRemoved notify the console of a local
// controller plug/unplug event over the Control channel.
func (c *Client) ControllerAdded(index uint8) error {
	return c.s.sendControllerEvent(ControllerAdded, index)
}

func (c *Client) ControllerRemoved(index uint8) error {
	return c.s.sendControllerEvent(ControllerRemoved, index)
}

// ChangeVideoQuality requests the console switch to the given preset.
func (c *Client) ChangeVideoQuality(q VideoQuality) error {
	return c.s.sendChangeVideoQuality(q)
}

// SendChatAudio transmits one chat-audio frame upstream on the ChatAudio
// channel; outbound chat audio is sent over the UDP streamer transport.
func (c *Client) SendChatAudio(frame []byte) error {
	return c.s.sendChatAudio(frame)
}

// Pump drives input-source polling; collaborators should call it roughly
// every 100ms.
func (c *Client) Pump() {
	if c.session.InputPoller != nil {
		c.session.InputPoller.PollInput(c)
	}
}

func (c *Client) reportError(msg string) {
	if c.session.OnGamestreamError != nil {
		c.session.OnGamestreamError(msg)
	}
	c.Close()
}

// InputFrameFields is the logical content of one controller-state sample;
// Client.SendInput stamps FrameID/Timestamp/CreatedTS itself from the
// channel's sequence counter and reference timestamp.
type InputFrameFields struct {
	Buttons   InputButtons
	Analog    InputAnalog
	Extension InputExtension
}
