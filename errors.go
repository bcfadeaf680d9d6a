// Protocol error kinds

package nano

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

var (
	errShortHeader      = stderrors.New("buffer too short for header")
	errVersionMismatch  = stderrors.New("rtp header version must be 2")
	errShortBody        = stderrors.New("buffer too short for payload body")
	errNoChannels       = stderrors.New("no channel table passed to decoder")

	errControlHandshakeTimeout = stderrors.New("no channel-control server handshake within timeout")
	errUDPHandshakeTimeout     = stderrors.New("no inbound streamer datagram within timeout")
)

// ErrorKind classifies a protocol-level failure.
type ErrorKind int

const (
	ErrMalformed ErrorKind = iota
	ErrUnknownChannel
	ErrUnsupportedChannelClass
	ErrUnknownStreamerType
	ErrHandshakeTimeout
	ErrTransportClosed
	ErrInvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformed:
		return "malformed"
	case ErrUnknownChannel:
		return "unknown_channel"
	case ErrUnsupportedChannelClass:
		return "unsupported_channel_class"
	case ErrUnknownStreamerType:
		return "unknown_streamer_type"
	case ErrHandshakeTimeout:
		return "handshake_timeout"
	case ErrTransportClosed:
		return "transport_closed"
	case ErrInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// ProtocolError is the error type surfaced by the codec and session engine.
// Offset is meaningful only for ErrMalformed and is the byte position in
// the buffer being decoded where the failure was detected.
type ProtocolError struct {
	Kind   ErrorKind
	Offset int
	cause  error
}

func (e *ProtocolError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("nano: %s at offset %d: %s", e.Kind, e.Offset, e.causeMsg())
	}
	return fmt.Sprintf("nano: %s: %s", e.Kind, e.causeMsg())
}

func (e *ProtocolError) causeMsg() string {
	if e.cause == nil {
		return "no further detail"
	}
	return e.cause.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.cause
}

func newProtocolError(kind ErrorKind, cause error) *ProtocolError {
	return &ProtocolError{Kind: kind, cause: errors.WithStack(cause)}
}

func newMalformedError(offset int, cause error) *ProtocolError {
	return &ProtocolError{Kind: ErrMalformed, Offset: offset, cause: errors.WithStack(cause)}
}

// IsProtocolError reports whether err (or a wrapped cause) is a
// ProtocolError of the given kind.
func IsProtocolError(err error, kind ErrorKind) bool {
	var pe *ProtocolError
	if stderrors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
