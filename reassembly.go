// Video frame reassembly: the Video channel's data packets arrive as
// fragments of a larger encoded frame and must be recombined in offset
// order before rendering.

package nano

import (
	"sort"
	"time"
)

// videoReassemblyExpiry is the window, measured from a frame's first
// fragment, after which an incomplete frame is evicted.
const videoReassemblyExpiry = 3 * time.Second

type videoFragment struct {
	offset uint32
	data   []byte
}

type pendingFrame struct {
	fragments []videoFragment
	received  uint32
	total     uint32
	firstSeen time.Time
}

// videoReassemblyBuffer accumulates Video channel data packets per
// frame_id until every fragment of a frame has arrived, then returns the
// concatenated frame from addPacket. Incomplete frames older
// than expiry are dropped so a lost fragment can't leak memory forever.
type videoReassemblyBuffer struct {
	expiry time.Duration
	now    func() time.Time
	frames map[uint32]*pendingFrame
}

func newVideoReassemblyBuffer(expiry time.Duration) *videoReassemblyBuffer {
	return &videoReassemblyBuffer{
		expiry: expiry,
		now:    time.Now,
		frames: make(map[uint32]*pendingFrame),
	}
}

// addPacket feeds one Video data packet into the buffer. When packetCount
// is 1 it returns the frame's data immediately. Otherwise it returns
// (nil, false) until the final fragment arrives, at which point it
// returns the concatenated frame sorted by offset.
func (b *videoReassemblyBuffer) addPacket(frameID, packetCount, offset uint32, data []byte) ([]byte, bool) {
	defer b.evictExpired()

	if packetCount <= 1 {
		return data, true
	}

	pf, ok := b.frames[frameID]
	if !ok {
		pf = &pendingFrame{total: packetCount, firstSeen: b.now()}
		b.frames[frameID] = pf
	}
	pf.fragments = append(pf.fragments, videoFragment{offset: offset, data: data})
	pf.received++

	if pf.received < pf.total {
		return nil, false
	}

	sort.Slice(pf.fragments, func(i, j int) bool {
		return pf.fragments[i].offset < pf.fragments[j].offset
	})

	var total int
	for _, f := range pf.fragments {
		total += len(f.data)
	}
	frame := make([]byte, 0, total)
	for _, f := range pf.fragments {
		frame = append(frame, f.data...)
	}

	delete(b.frames, frameID)
	return frame, true
}

func (b *videoReassemblyBuffer) evictExpired() {
	now := b.now()
	for id, pf := range b.frames {
		if now.Sub(pf.firstSeen) >= b.expiry {
			delete(b.frames, id)
		}
	}
}
