package nano

import (
	"bytes"
	"testing"
	"time"
)

func TestVideoReassemblySinglePacketFrame(t *testing.T) {
	b := newVideoReassemblyBuffer(videoReassemblyExpiry)
	data := []byte{1, 2, 3}
	frame, ok := b.addPacket(1, 1, 0, data)
	if !ok {
		t.Fatal("expected single-packet frame to complete immediately")
	}
	if !bytes.Equal(frame, data) {
		t.Fatalf("frame = %v, want %v", frame, data)
	}
}

// TestVideoReassemblyOutOfOrderFragments mirrors the scenario of a
// 3-fragment frame arriving with its middle and last packets permuted
// ahead of the first: reassembly must still concatenate in offset order.
func TestVideoReassemblyOutOfOrderFragments(t *testing.T) {
	b := newVideoReassemblyBuffer(videoReassemblyExpiry)

	fragA := []byte("AAAA")
	fragB := []byte("BBBB")
	fragC := []byte("CC")

	if _, ok := b.addPacket(42, 3, 4, fragB); ok {
		t.Fatal("expected incomplete frame after 1 of 3 fragments")
	}
	if _, ok := b.addPacket(42, 3, 8, fragC); ok {
		t.Fatal("expected incomplete frame after 2 of 3 fragments")
	}
	frame, ok := b.addPacket(42, 3, 0, fragA)
	if !ok {
		t.Fatal("expected frame to complete on third fragment")
	}

	want := append(append(append([]byte{}, fragA...), fragB...), fragC...)
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
}

func TestVideoReassemblyEviction(t *testing.T) {
	b := newVideoReassemblyBuffer(videoReassemblyExpiry)
	current := time.Now()
	b.now = func() time.Time { return current }

	if _, ok := b.addPacket(7, 2, 0, []byte{1}); ok {
		t.Fatal("expected incomplete frame")
	}
	if _, ok := b.frames[7]; !ok {
		t.Fatal("expected frame 7 to be pending")
	}

	current = current.Add(videoReassemblyExpiry + time.Millisecond)
	// A second, unrelated frame triggers the expiry sweep.
	if _, ok := b.addPacket(8, 1, 0, []byte{2}); !ok {
		t.Fatal("expected single-packet frame 8 to complete")
	}

	if _, ok := b.frames[7]; ok {
		t.Fatal("expected frame 7 to have been evicted")
	}
}

func TestVideoReassemblyDistinctFramesIndependent(t *testing.T) {
	b := newVideoReassemblyBuffer(videoReassemblyExpiry)

	if _, ok := b.addPacket(1, 2, 0, []byte{1}); ok {
		t.Fatal("frame 1 should be incomplete")
	}
	if _, ok := b.addPacket(2, 2, 0, []byte{2}); ok {
		t.Fatal("frame 2 should be incomplete")
	}

	frame1, ok := b.addPacket(1, 2, 1, []byte{3})
	if !ok || !bytes.Equal(frame1, []byte{1, 3}) {
		t.Fatalf("frame 1 = %v, %v; want [1 3], true", frame1, ok)
	}

	if _, ok := b.frames[2]; !ok {
		t.Fatal("frame 2 should still be pending, untouched by frame 1's completion")
	}
}
