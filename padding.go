// ANSI X9.23 payload padding

package nano

// padX923 pads b to the next multiple of blockSize, if it isn't already
// one, appending zero bytes whose final byte carries the pad count. It
// reports whether any padding was added (callers use this to set the RTP
// header's padding flag).
func padX923(b []byte, blockSize int) ([]byte, bool) {
	rem := len(b) % blockSize
	if rem == 0 {
		return b, false
	}
	padLen := blockSize - rem
	out := make([]byte, len(b)+padLen)
	copy(out, b)
	out[len(out)-1] = byte(padLen)
	return out, true
}
