// Audio / ChatAudio channel streamer payload codec

package nano

import "encoding/binary"

// PCMFormat further describes an AudioFormat whose Codec is AudioCodecPCM.
type PCMFormat struct {
	BitDepth uint32
	Type     uint32
}

// AudioFormat is one entry of the format list the server offers during
// handshake, or the single format the client selects back.
type AudioFormat struct {
	Channels   uint32
	SampleRate uint32
	Codec      AudioCodec

	// PCM is set only when Codec == AudioCodecPCM.
	PCM *PCMFormat
}

func encodeAudioFormat(f AudioFormat) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, f.Channels)
	buf = binary.LittleEndian.AppendUint32(buf, f.SampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.Codec))
	if f.Codec == AudioCodecPCM {
		pcm := f.PCM
		if pcm == nil {
			pcm = &PCMFormat{}
		}
		buf = binary.LittleEndian.AppendUint32(buf, pcm.BitDepth)
		buf = binary.LittleEndian.AppendUint32(buf, pcm.Type)
	}
	return buf
}

func decodeAudioFormat(buf []byte, off int) (AudioFormat, int, error) {
	if len(buf) < off+12 {
		return AudioFormat{}, off, newMalformedError(off, errShortBody)
	}
	f := AudioFormat{
		Channels:   binary.LittleEndian.Uint32(buf[off : off+4]),
		SampleRate: binary.LittleEndian.Uint32(buf[off+4 : off+8]),
		Codec:      AudioCodec(binary.LittleEndian.Uint32(buf[off+8 : off+12])),
	}
	off += 12
	if f.Codec == AudioCodecPCM {
		if len(buf) < off+8 {
			return AudioFormat{}, off, newMalformedError(off, errShortBody)
		}
		f.PCM = &PCMFormat{
			BitDepth: binary.LittleEndian.Uint32(buf[off : off+4]),
			Type:     binary.LittleEndian.Uint32(buf[off+4 : off+8]),
		}
		off += 8
	}
	return f, off, nil
}

// AudioServerHandshakePayload advertises the formats the console can send.
type AudioServerHandshakePayload struct {
	ProtocolVersion    uint32
	ReferenceTimestamp uint64 // milliseconds since Unix epoch
	Formats            []AudioFormat
}

func encodeAudioServerHandshake(p *AudioServerHandshakePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.ProtocolVersion)
	buf = binary.LittleEndian.AppendUint64(buf, p.ReferenceTimestamp)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Formats)))
	for _, f := range p.Formats {
		buf = append(buf, encodeAudioFormat(f)...)
	}
	return buf
}

func decodeAudioServerHandshake(buf []byte) (*AudioServerHandshakePayload, error) {
	if len(buf) < 16 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &AudioServerHandshakePayload{
		ProtocolVersion:    binary.LittleEndian.Uint32(buf[0:4]),
		ReferenceTimestamp: binary.LittleEndian.Uint64(buf[4:12]),
	}
	off := 12
	count := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.Formats = make([]AudioFormat, 0, count)
	for i := 0; i < count; i++ {
		var f AudioFormat
		var err error
		f, off, err = decodeAudioFormat(buf, off)
		if err != nil {
			return nil, err
		}
		p.Formats = append(p.Formats, f)
	}
	return p, nil
}

// AudioClientHandshakePayload is the client's reply, selecting one format.
type AudioClientHandshakePayload struct {
	InitialFrameID  uint32
	RequestedFormat AudioFormat
}

func encodeAudioClientHandshake(p *AudioClientHandshakePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.InitialFrameID)
	buf = append(buf, encodeAudioFormat(p.RequestedFormat)...)
	return buf
}

func decodeAudioClientHandshake(buf []byte) (*AudioClientHandshakePayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &AudioClientHandshakePayload{InitialFrameID: binary.LittleEndian.Uint32(buf[0:4])}
	f, _, err := decodeAudioFormat(buf, 4)
	if err != nil {
		return nil, err
	}
	p.RequestedFormat = f
	return p, nil
}

// AudioControlPayload is the client-to-console channel-control message.
type AudioControlPayload struct {
	Reinitialize bool
	StartStream  bool
	StopStream   bool
}

func encodeAudioControl(p *AudioControlPayload) []byte {
	var flags uint32
	if p.Reinitialize {
		flags |= 1 << 0
	}
	if p.StartStream {
		flags |= 1 << 1
	}
	if p.StopStream {
		flags |= 1 << 2
	}
	return binary.LittleEndian.AppendUint32(nil, flags)
}

func decodeAudioControl(buf []byte) (*AudioControlPayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	flags := binary.LittleEndian.Uint32(buf[0:4])
	return &AudioControlPayload{
		Reinitialize: flags&(1<<0) != 0,
		StartStream:  flags&(1<<1) != 0,
		StopStream:   flags&(1<<2) != 0,
	}, nil
}

// AudioDataPayload carries one complete audio frame (audio frames are
// never fragmented across multiple packets, unlike video).
type AudioDataPayload struct {
	Flags     uint32
	FrameID   uint32
	Timestamp uint64
	Data      []byte
}

func encodeAudioData(p *AudioDataPayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, p.FrameID)
	buf = binary.LittleEndian.AppendUint64(buf, p.Timestamp)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Data)))
	buf = append(buf, p.Data...)
	return buf
}

func decodeAudioData(buf []byte) (*AudioDataPayload, error) {
	if len(buf) < 20 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &AudioDataPayload{
		Flags:     binary.LittleEndian.Uint32(buf[0:4]),
		FrameID:   binary.LittleEndian.Uint32(buf[4:8]),
		Timestamp: binary.LittleEndian.Uint64(buf[8:16]),
	}
	off := 16
	dataLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if len(buf) < off+dataLen {
		return nil, newMalformedError(off, errShortBody)
	}
	p.Data = append([]byte(nil), buf[off:off+dataLen]...)
	return p, nil
}
