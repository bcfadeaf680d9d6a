package nano

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestDispatchVideoRoundTrip(t *testing.T) {
	want := &VideoDataPayload{FrameID: 1, PacketCount: 1, Data: []byte{1, 2, 3}}
	raw, err := EncodeStreamerPayload(ChannelClassVideo, uint32(VideoData), want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeStreamerPayload(ChannelClassVideo, uint32(VideoData), raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	vp, ok := got.(*VideoDataPayload)
	if !ok {
		t.Fatalf("got %T, want *VideoDataPayload", got)
	}
	if vp.FrameID != want.FrameID || !bytes.Equal(vp.Data, want.Data) {
		t.Fatalf("got %+v, want %+v", vp, want)
	}
}

func TestDispatchAudioAndChatAudioShareCodec(t *testing.T) {
	want := &AudioDataPayload{FrameID: 5, Data: []byte{9, 9}}
	for _, class := range []ChannelClass{ChannelClassAudio, ChannelClassChatAudio} {
		raw, err := EncodeStreamerPayload(class, uint32(AudioData), want)
		if err != nil {
			t.Fatalf("%v: encode: %v", class, err)
		}
		got, err := DecodeStreamerPayload(class, uint32(AudioData), raw)
		if err != nil {
			t.Fatalf("%v: decode: %v", class, err)
		}
		ap, ok := got.(*AudioDataPayload)
		if !ok {
			t.Fatalf("%v: got %T, want *AudioDataPayload", class, got)
		}
		if ap.FrameID != want.FrameID || !bytes.Equal(ap.Data, want.Data) {
			t.Fatalf("%v: got %+v, want %+v", class, ap, want)
		}
	}
}

func TestDispatchInputAndInputFeedbackShareCodec(t *testing.T) {
	want := &InputFrameAckPayload{AckedFrame: 42}
	for _, class := range []ChannelClass{ChannelClassInput, ChannelClassInputFeedback} {
		raw, err := EncodeStreamerPayload(class, uint32(InputFrameAck), want)
		if err != nil {
			t.Fatalf("%v: encode: %v", class, err)
		}
		got, err := DecodeStreamerPayload(class, uint32(InputFrameAck), raw)
		if err != nil {
			t.Fatalf("%v: decode: %v", class, err)
		}
		ip, ok := got.(*InputFrameAckPayload)
		if !ok || *ip != *want {
			t.Fatalf("%v: got %+v, want %+v", class, got, want)
		}
	}
}

func TestDispatchControlRoundTrip(t *testing.T) {
	want := &ControlMessage{
		Packet: &ControlPacket{PrevSeqDup: 2, Unk2: 1406, Opcode: ControlChangeVideoQuality},
		Body:   &ChangeVideoQualityBody{Quality: VideoQualityMiddle},
	}
	raw, err := EncodeStreamerPayload(ChannelClassControl, 0, want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeStreamerPayload(ChannelClassControl, 0, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cm, ok := got.(*ControlMessage)
	if !ok {
		t.Fatalf("got %T, want *ControlMessage", got)
	}
	if cm.Packet.PrevSeqDup != want.Packet.PrevSeqDup || cm.Packet.Opcode != want.Packet.Opcode {
		t.Fatalf("packet = %+v, want %+v", cm.Packet, want.Packet)
	}
	body, ok := cm.Body.(*ChangeVideoQualityBody)
	if !ok || body.Quality != want.Body.(*ChangeVideoQualityBody).Quality {
		t.Fatalf("body = %+v, want %+v", cm.Body, want.Body)
	}
}

func TestDispatchControlSessionCreateResponse(t *testing.T) {
	id := uuid.New()
	want := &ControlMessage{
		Packet: &ControlPacket{Opcode: ControlSessionCreateResponse},
		Body:   &SessionCreateResponseBody{GUID: id},
	}
	raw, err := EncodeStreamerPayload(ChannelClassControl, 0, want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeStreamerPayload(ChannelClassControl, 0, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cm := got.(*ControlMessage)
	body, ok := cm.Body.(*SessionCreateResponseBody)
	if !ok || body.GUID != id {
		t.Fatalf("body = %+v, want GUID %v", cm.Body, id)
	}
}

func TestDispatchRejectsWrongPayloadType(t *testing.T) {
	_, err := EncodeStreamerPayload(ChannelClassVideo, uint32(VideoData), &AudioDataPayload{})
	if !IsProtocolError(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestDispatchRejectsUnknownStreamerType(t *testing.T) {
	_, err := DecodeStreamerPayload(ChannelClassVideo, 999, []byte{1, 2, 3, 4})
	if !IsProtocolError(err, ErrUnknownStreamerType) {
		t.Fatalf("expected ErrUnknownStreamerType, got %v", err)
	}
}
