package nano

import (
	"bytes"
	"testing"
)

func TestAudioFormatRoundTripOpus(t *testing.T) {
	want := AudioFormat{Channels: 2, SampleRate: 48000, Codec: AudioCodecOpus}
	raw := encodeAudioFormat(want)
	got, off, err := decodeAudioFormat(raw, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if off != len(raw) {
		t.Fatalf("off = %d, want %d", off, len(raw))
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAudioFormatRoundTripPCM(t *testing.T) {
	want := AudioFormat{Channels: 2, SampleRate: 44100, Codec: AudioCodecPCM, PCM: &PCMFormat{BitDepth: 16, Type: 1}}
	raw := encodeAudioFormat(want)
	got, off, err := decodeAudioFormat(raw, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if off != len(raw) {
		t.Fatalf("off = %d, want %d", off, len(raw))
	}
	if got.Channels != want.Channels || got.SampleRate != want.SampleRate || got.Codec != want.Codec {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.PCM == nil || *got.PCM != *want.PCM {
		t.Fatalf("got PCM %+v, want %+v", got.PCM, want.PCM)
	}
}

func TestAudioServerHandshakeRoundTrip(t *testing.T) {
	want := &AudioServerHandshakePayload{
		ProtocolVersion:    1,
		ReferenceTimestamp: 1055413470,
		Formats: []AudioFormat{
			{Channels: 2, SampleRate: 48000, Codec: AudioCodecAAC},
			{Channels: 1, SampleRate: 24000, Codec: AudioCodecOpus},
		},
	}
	raw := encodeAudioServerHandshake(want)
	got, err := decodeAudioServerHandshake(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProtocolVersion != want.ProtocolVersion || got.ReferenceTimestamp != want.ReferenceTimestamp {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if len(got.Formats) != len(want.Formats) {
		t.Fatalf("formats len = %d, want %d", len(got.Formats), len(want.Formats))
	}
	for i := range want.Formats {
		if got.Formats[i] != want.Formats[i] {
			t.Fatalf("format %d = %+v, want %+v", i, got.Formats[i], want.Formats[i])
		}
	}
}

func TestAudioClientHandshakeRoundTrip(t *testing.T) {
	// original_source test fixture: initial_frame_id=693041842, 2ch/48kHz/AAC.
	want := &AudioClientHandshakePayload{
		InitialFrameID:  693041842,
		RequestedFormat: AudioFormat{Channels: 2, SampleRate: 48000, Codec: AudioCodecAAC},
	}
	raw := encodeAudioClientHandshake(want)
	got, err := decodeAudioClientHandshake(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAudioControlRoundTrip(t *testing.T) {
	want := &AudioControlPayload{Reinitialize: true, StopStream: true}
	raw := encodeAudioControl(want)
	got, err := decodeAudioControl(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAudioDataRoundTrip(t *testing.T) {
	want := &AudioDataPayload{Flags: 1, FrameID: 7, Timestamp: 123456, Data: []byte{1, 2, 3, 4, 5}}
	raw := encodeAudioData(want)
	got, err := decodeAudioData(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Flags != want.Flags || got.FrameID != want.FrameID || got.Timestamp != want.Timestamp ||
		!bytes.Equal(got.Data, want.Data) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAudioDataRejectsShortBuffer(t *testing.T) {
	if _, err := decodeAudioData(make([]byte, 5)); !IsProtocolError(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
