// Video channel streamer payload codec

package nano

import "encoding/binary"

// RGBFormat further describes a VideoFormat whose Codec is VideoCodecRGB.
type RGBFormat struct {
	BPP       uint32
	Bytes     uint32
	RedMask   uint64
	GreenMask uint64
	BlueMask  uint64
}

// VideoFormat is one entry of the format list the server offers during
// handshake, or the single format the client selects back.
type VideoFormat struct {
	FPS    uint32
	Width  uint32
	Height uint32
	Codec  VideoCodec

	// RGB is set only when Codec == VideoCodecRGB.
	RGB *RGBFormat
}

func encodeVideoFormat(f VideoFormat) []byte {
	buf := make([]byte, 0, 16)
	buf = binary.LittleEndian.AppendUint32(buf, f.FPS)
	buf = binary.LittleEndian.AppendUint32(buf, f.Width)
	buf = binary.LittleEndian.AppendUint32(buf, f.Height)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.Codec))
	if f.Codec == VideoCodecRGB {
		rgb := f.RGB
		if rgb == nil {
			rgb = &RGBFormat{}
		}
		buf = binary.LittleEndian.AppendUint32(buf, rgb.BPP)
		buf = binary.LittleEndian.AppendUint32(buf, rgb.Bytes)
		buf = binary.LittleEndian.AppendUint64(buf, rgb.RedMask)
		buf = binary.LittleEndian.AppendUint64(buf, rgb.GreenMask)
		buf = binary.LittleEndian.AppendUint64(buf, rgb.BlueMask)
	}
	return buf
}

func decodeVideoFormat(buf []byte, off int) (VideoFormat, int, error) {
	if len(buf) < off+16 {
		return VideoFormat{}, off, newMalformedError(off, errShortBody)
	}
	f := VideoFormat{
		FPS:    binary.LittleEndian.Uint32(buf[off : off+4]),
		Width:  binary.LittleEndian.Uint32(buf[off+4 : off+8]),
		Height: binary.LittleEndian.Uint32(buf[off+8 : off+12]),
		Codec:  VideoCodec(binary.LittleEndian.Uint32(buf[off+12 : off+16])),
	}
	off += 16
	if f.Codec == VideoCodecRGB {
		if len(buf) < off+32 {
			return VideoFormat{}, off, newMalformedError(off, errShortBody)
		}
		f.RGB = &RGBFormat{
			BPP:       binary.LittleEndian.Uint32(buf[off : off+4]),
			Bytes:     binary.LittleEndian.Uint32(buf[off+4 : off+8]),
			RedMask:   binary.LittleEndian.Uint64(buf[off+8 : off+16]),
			GreenMask: binary.LittleEndian.Uint64(buf[off+16 : off+24]),
			BlueMask:  binary.LittleEndian.Uint64(buf[off+24 : off+32]),
		}
		off += 32
	}
	return f, off, nil
}

// VideoServerHandshakePayload advertises the formats the console can send.
type VideoServerHandshakePayload struct {
	ProtocolVersion     uint32
	Width               uint32
	Height              uint32
	FPS                 uint32
	ReferenceTimestamp  uint64 // milliseconds since Unix epoch
	Formats             []VideoFormat
}

func encodeVideoServerHandshake(p *VideoServerHandshakePayload) []byte {
	buf := make([]byte, 0, 32)
	buf = binary.LittleEndian.AppendUint32(buf, p.ProtocolVersion)
	buf = binary.LittleEndian.AppendUint32(buf, p.Width)
	buf = binary.LittleEndian.AppendUint32(buf, p.Height)
	buf = binary.LittleEndian.AppendUint32(buf, p.FPS)
	buf = binary.LittleEndian.AppendUint64(buf, p.ReferenceTimestamp)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Formats)))
	for _, f := range p.Formats {
		buf = append(buf, encodeVideoFormat(f)...)
	}
	return buf
}

func decodeVideoServerHandshake(buf []byte) (*VideoServerHandshakePayload, error) {
	if len(buf) < 28 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &VideoServerHandshakePayload{
		ProtocolVersion:    binary.LittleEndian.Uint32(buf[0:4]),
		Width:              binary.LittleEndian.Uint32(buf[4:8]),
		Height:             binary.LittleEndian.Uint32(buf[8:12]),
		FPS:                binary.LittleEndian.Uint32(buf[12:16]),
		ReferenceTimestamp: binary.LittleEndian.Uint64(buf[16:24]),
	}

	off := 24
	if len(buf) < off+4 {
		return nil, newMalformedError(off, errShortBody)
	}
	count := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.Formats = make([]VideoFormat, 0, count)
	for i := 0; i < count; i++ {
		var f VideoFormat
		var err error
		f, off, err = decodeVideoFormat(buf, off)
		if err != nil {
			return nil, err
		}
		p.Formats = append(p.Formats, f)
	}
	return p, nil
}

// VideoClientHandshakePayload is the client's reply, selecting one format.
type VideoClientHandshakePayload struct {
	InitialFrameID  uint32
	RequestedFormat VideoFormat
}

func encodeVideoClientHandshake(p *VideoClientHandshakePayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.InitialFrameID)
	buf = append(buf, encodeVideoFormat(p.RequestedFormat)...)
	return buf
}

func decodeVideoClientHandshake(buf []byte) (*VideoClientHandshakePayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &VideoClientHandshakePayload{InitialFrameID: binary.LittleEndian.Uint32(buf[0:4])}
	f, _, err := decodeVideoFormat(buf, 4)
	if err != nil {
		return nil, err
	}
	p.RequestedFormat = f
	return p, nil
}

// VideoLastDisplayedFrame reports which frame the client actually rendered.
type VideoLastDisplayedFrame struct {
	FrameID   uint32
	Timestamp int64
}

// VideoLostFrames reports a contiguous range the client never received.
type VideoLostFrames struct {
	First uint32
	Last  uint32
}

// VideoControlPayload is the client-to-console channel-control message:
// keyframe requests, stream start/stop, and periodic telemetry.
type VideoControlPayload struct {
	RequestKeyframe bool
	StartStream     bool
	StopStream      bool

	LastDisplayedFrame *VideoLastDisplayedFrame
	QueueDepth         *uint32
	LostFrames         *VideoLostFrames
}

// Video control flags are packed as a single big-endian 32-bit bitfield
// (2 bits unused, 6 flag bits, 24 bits unused), matching the console's
// bit-struct layout rather than a byte-aligned one.
const (
	videoFlagRequestKeyframe    = 1 << 29
	videoFlagStartStream        = 1 << 28
	videoFlagStopStream         = 1 << 27
	videoFlagQueueDepth         = 1 << 26
	videoFlagLostFrames         = 1 << 25
	videoFlagLastDisplayedFrame = 1 << 24
)

func encodeVideoControl(p *VideoControlPayload) []byte {
	var flags uint32
	if p.RequestKeyframe {
		flags |= videoFlagRequestKeyframe
	}
	if p.StartStream {
		flags |= videoFlagStartStream
	}
	if p.StopStream {
		flags |= videoFlagStopStream
	}
	if p.LastDisplayedFrame != nil {
		flags |= videoFlagLastDisplayedFrame
	}
	if p.QueueDepth != nil {
		flags |= videoFlagQueueDepth
	}
	if p.LostFrames != nil {
		flags |= videoFlagLostFrames
	}

	buf := binary.BigEndian.AppendUint32(nil, flags)
	if p.LastDisplayedFrame != nil {
		buf = binary.LittleEndian.AppendUint32(buf, p.LastDisplayedFrame.FrameID)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(p.LastDisplayedFrame.Timestamp))
	}
	if p.QueueDepth != nil {
		buf = binary.LittleEndian.AppendUint32(buf, *p.QueueDepth)
	}
	if p.LostFrames != nil {
		buf = binary.LittleEndian.AppendUint32(buf, p.LostFrames.First)
		buf = binary.LittleEndian.AppendUint32(buf, p.LostFrames.Last)
	}
	return buf
}

func decodeVideoControl(buf []byte) (*VideoControlPayload, error) {
	if len(buf) < 4 {
		return nil, newMalformedError(0, errShortBody)
	}
	flags := binary.BigEndian.Uint32(buf[0:4])
	off := 4
	p := &VideoControlPayload{
		RequestKeyframe: flags&videoFlagRequestKeyframe != 0,
		StartStream:     flags&videoFlagStartStream != 0,
		StopStream:      flags&videoFlagStopStream != 0,
	}
	if flags&videoFlagLastDisplayedFrame != 0 {
		if len(buf) < off+12 {
			return nil, newMalformedError(off, errShortBody)
		}
		p.LastDisplayedFrame = &VideoLastDisplayedFrame{
			FrameID:   binary.LittleEndian.Uint32(buf[off : off+4]),
			Timestamp: int64(binary.LittleEndian.Uint64(buf[off+4 : off+12])),
		}
		off += 12
	}
	if flags&videoFlagQueueDepth != 0 {
		if len(buf) < off+4 {
			return nil, newMalformedError(off, errShortBody)
		}
		v := binary.LittleEndian.Uint32(buf[off : off+4])
		p.QueueDepth = &v
		off += 4
	}
	if flags&videoFlagLostFrames != 0 {
		if len(buf) < off+8 {
			return nil, newMalformedError(off, errShortBody)
		}
		p.LostFrames = &VideoLostFrames{
			First: binary.LittleEndian.Uint32(buf[off : off+4]),
			Last:  binary.LittleEndian.Uint32(buf[off+4 : off+8]),
		}
		off += 8
	}
	return p, nil
}

// VideoDataPayload is one packet of an (possibly fragmented) encoded frame.
type VideoDataPayload struct {
	Flags       uint32
	FrameID     uint32
	Timestamp   uint64
	TotalSize   uint32
	PacketCount uint32
	Offset      uint32
	Data        []byte
}

func encodeVideoData(p *VideoDataPayload) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, p.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, p.FrameID)
	buf = binary.LittleEndian.AppendUint64(buf, p.Timestamp)
	buf = binary.LittleEndian.AppendUint32(buf, p.TotalSize)
	buf = binary.LittleEndian.AppendUint32(buf, p.PacketCount)
	buf = binary.LittleEndian.AppendUint32(buf, p.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Data)))
	buf = append(buf, p.Data...)
	return buf
}

func decodeVideoData(buf []byte) (*VideoDataPayload, error) {
	if len(buf) < 32 {
		return nil, newMalformedError(0, errShortBody)
	}
	p := &VideoDataPayload{
		Flags:       binary.LittleEndian.Uint32(buf[0:4]),
		FrameID:     binary.LittleEndian.Uint32(buf[4:8]),
		Timestamp:   binary.LittleEndian.Uint64(buf[8:16]),
		TotalSize:   binary.LittleEndian.Uint32(buf[16:20]),
		PacketCount: binary.LittleEndian.Uint32(buf[20:24]),
		Offset:      binary.LittleEndian.Uint32(buf[24:28]),
	}
	off := 28
	dataLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if len(buf) < off+dataLen {
		return nil, newMalformedError(off, errShortBody)
	}
	p.Data = append([]byte(nil), buf[off:off+dataLen]...)
	return p, nil
}
