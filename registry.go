// Channel registry: maps the server-assigned numeric channel id to a
// logical Channel and its class, the way the session engine's
// ChannelCreate/ChannelOpen/ChannelClose handlers drive channel
// lifecycle.

package nano

import (
	"math/rand"
	"sync"
	"time"
)

// Channel is one logical sub-stream the server has created on this
// session. Every outbound TCP streamer message on a channel advances
// SequenceNum and takes PrevSequenceNum from the value before advancing.
type Channel struct {
	ID             uint16
	Class          ChannelClass
	CreationFlags  uint32
	Open           bool

	mu                 sync.Mutex
	sequenceNum        uint32
	frameID            uint32
	referenceTimestamp time.Time

	reassembly *videoReassemblyBuffer // only used by Video channels
}

func newChannel(id uint16, class ChannelClass, flags uint32) *Channel {
	ch := &Channel{
		ID:            id,
		Class:         class,
		CreationFlags: flags,
		frameID:       uint32(rand.Intn(501)), // [0, 500], matching the handshake behavior
	}
	if class == ChannelClassVideo {
		ch.reassembly = newVideoReassemblyBuffer(videoReassemblyExpiry)
	}
	return ch
}

// nextTCPSequence advances the channel's sequence number and returns the
// (prevSequenceNum, sequenceNum) pair a TCP streamer message must carry,
// per data-model invariant (iii).
func (c *Channel) nextTCPSequence() (prev, cur uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.sequenceNum
	c.sequenceNum++
	cur = c.sequenceNum
	return prev, cur
}

// nextFrameID returns the next outbound frame id and advances the counter.
func (c *Channel) nextFrameID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.frameID
	c.frameID++
	return id
}

func (c *Channel) setReferenceTimestamp(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referenceTimestamp = t
}

func (c *Channel) ReferenceTimestamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.referenceTimestamp
}

func (c *Channel) markOpen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Open = true
}

func (c *Channel) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Open
}

// channelRegistry is the session's id -> Channel table. Mutated only on
// the Control receive path and read from every outbound path, so all
// access goes through a mutex.
type channelRegistry struct {
	mu       sync.RWMutex
	channels map[uint16]*Channel
}

func newChannelRegistry() *channelRegistry {
	return &channelRegistry{channels: make(map[uint16]*Channel)}
}

// create registers a freshly ChannelCreate'd channel. class must already
// be validated against the six known classes by the caller.
func (r *channelRegistry) create(id uint16, class ChannelClass, flags uint32) *Channel {
	ch := newChannel(id, class, flags)
	r.mu.Lock()
	r.channels[id] = ch
	r.mu.Unlock()
	return ch
}

// get looks up a channel by id. The reserved pseudo-id 0 never resolves.
func (r *channelRegistry) get(id uint16) (*Channel, bool) {
	if id == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// getByClass returns the first channel of the given class, used by the
// input path to route outbound frames without the caller needing to
// track channel ids itself.
func (r *channelRegistry) getByClass(class ChannelClass) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.channels {
		if ch.Class == class {
			return ch, true
		}
	}
	return nil, false
}

func (r *channelRegistry) close(id uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[id]; ok {
		ch.mu.Lock()
		ch.Open = false
		ch.mu.Unlock()
	}
}

// knownChannelClasses is every ChannelClass the session will accept in
// ChannelCreate. ChannelClassTcpBase is enumerated by the console (see
// enum.go) but never assigned a handler, so it is deliberately absent
// here: a ChannelCreate for it is logged as a warning and the channel is
// not registered.
var knownChannelClasses = map[ChannelClass]bool{
	ChannelClassVideo:         true,
	ChannelClassAudio:         true,
	ChannelClassChatAudio:     true,
	ChannelClassControl:       true,
	ChannelClassInput:         true,
	ChannelClassInputFeedback: true,
}
