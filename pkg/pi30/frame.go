package pi30

import (
	"errors"
	"fmt"
)

// Terminator ends every request and response line.
const Terminator byte = 0x0D

// FrameOverhead is the number of bytes appended to a payload: two checksum
// bytes and the terminator.
const FrameOverhead = 3

var (
	ErrFrameTooShort     = errors.New("pi30: frame too short")
	ErrMissingTerminator = errors.New("pi30: frame not terminated")
	ErrChecksumMismatch  = errors.New("pi30: checksum mismatch")
)

// Frame is a complete request: payload, checksum low byte, checksum high byte
// and the terminator.
type Frame []byte

// NewFrame appends checksum and terminator to payload.
func NewFrame(payload []byte) Frame {
	crc := Checksum(payload)
	frame := make(Frame, 0, len(payload)+FrameOverhead)
	frame = append(frame, payload...)
	return append(frame, byte(crc&0xFF), byte((crc>>8)&0xFF), Terminator)
}

// Encode resolves token and builds its frame.
func Encode(token string) Frame {
	frame, _ := EncodeToken(token)
	return frame
}

// EncodeToken is Encode, also reporting how the token was resolved so callers
// can tell when a mistyped command degraded to literal bytes.
func EncodeToken(token string) (Frame, Resolution) {
	payload, resolution := ResolvePayload(token)
	return NewFrame(payload), resolution
}

func (f Frame) Payload() []byte {
	if len(f) < FrameOverhead {
		return nil
	}
	return f[:len(f)-FrameOverhead]
}

// StoredChecksum returns the checksum carried by the frame, low byte first on the wire.
func (f Frame) StoredChecksum() uint16 {
	if len(f) < FrameOverhead {
		return 0
	}
	n := len(f)
	return uint16(f[n-3]) | uint16(f[n-2])<<8
}

// Validate checks the terminator and that the stored checksum matches the payload.
func (f Frame) Validate() error {
	if len(f) < FrameOverhead {
		return ErrFrameTooShort
	}
	if f[len(f)-1] != Terminator {
		return ErrMissingTerminator
	}
	if Checksum(f.Payload()) != f.StoredChecksum() {
		return ErrChecksumMismatch
	}
	return nil
}

func (f Frame) String() string {
	return fmt.Sprintf("% x", []byte(f))
}
