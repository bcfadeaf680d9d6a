package nano

import (
	"bytes"
	"testing"
)

func TestChannelControlHandshakeCodec(t *testing.T) {
	want := &ChannelControlHandshakePayload{Type: ChannelControlClientHandshake, ConnectionID: 52341}
	raw := encodeChannelControlHandshake(want)
	if len(raw) != 3 {
		t.Fatalf("encoded length = %d, want 3", len(raw))
	}
	got, err := decodeChannelControlHandshake(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestChannelControlHandshakeShortBuffer(t *testing.T) {
	if _, err := decodeChannelControlHandshake([]byte{1, 2}); !IsProtocolError(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestChannelControlChannelCreateCodec(t *testing.T) {
	want := &ChannelControlPayload{
		Type:        ChannelControlChannelCreate,
		Name:        ChannelClassInput,
		CreateFlags: 0x12345678,
	}
	raw := encodeChannelControl(want)
	got, err := decodeChannelControl(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != want.Type || got.Name != want.Name || got.CreateFlags != want.CreateFlags {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestChannelControlChannelOpenCodec(t *testing.T) {
	want := &ChannelControlPayload{
		Type:      ChannelControlChannelOpen,
		OpenFlags: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01},
	}
	raw := encodeChannelControl(want)
	got, err := decodeChannelControl(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != want.Type || !bytes.Equal(got.OpenFlags, want.OpenFlags) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestChannelControlChannelCloseCodec(t *testing.T) {
	want := &ChannelControlPayload{Type: ChannelControlChannelClose, CreateFlags: 9}
	raw := encodeChannelControl(want)
	got, err := decodeChannelControl(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != want.Type || got.CreateFlags != want.CreateFlags {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUDPHandshakeCodec(t *testing.T) {
	raw := encodeUDPHandshake(&UDPHandshakePayload{Unknown: 1})
	if !bytes.Equal(raw, []byte{1}) {
		t.Fatalf("encoded = %v, want [1]", raw)
	}
	got, err := decodeUDPHandshake(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Unknown != 1 {
		t.Fatalf("got %d, want 1", got.Unknown)
	}
}
