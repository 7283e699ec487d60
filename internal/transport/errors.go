package transport

import (
	"errors"
	"fmt"
)

// ConnectionFailedError wraps a failure in socket setup, engine
// configuration, or RNG seeding — anything before the handshake
// itself runs (spec.md §7).
type ConnectionFailedError struct {
	Detail string
	Err    error
}

func (e *ConnectionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("connection failed: %s", e.Detail)
}

func (e *ConnectionFailedError) Unwrap() error { return e.Err }

// HandshakeFailedError is returned when the DTLS/EC-JPAKE handshake
// itself fails or exceeds its bound.
type HandshakeFailedError struct {
	Code    int
	Message string
}

func (e *HandshakeFailedError) Error() string {
	return fmt.Sprintf("handshake failed (code %d): %s", e.Code, e.Message)
}

// SendFailedError wraps a negative return from the record-layer write.
type SendFailedError struct {
	Code int
	Err  error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("send failed (code %d): %v", e.Code, e.Err)
}

func (e *SendFailedError) Unwrap() error { return e.Err }

// ReceiveFailedError wraps a negative return from the record-layer read.
type ReceiveFailedError struct {
	Code int
	Err  error
}

func (e *ReceiveFailedError) Error() string {
	return fmt.Sprintf("receive failed (code %d): %v", e.Code, e.Err)
}

func (e *ReceiveFailedError) Unwrap() error { return e.Err }

// ErrNotEstablished is returned by Send/Receive when the session is
// not in the Established state.
var ErrNotEstablished = errors.New("transport: session is not established")

// ErrReentrantConnect is returned when Connect is called on a session
// that is not Idle or Closed.
var ErrReentrantConnect = errors.New("transport: connect called while session is active")
