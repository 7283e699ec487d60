// Package meshcop is the public umbrella API for Thread 1.4
// Commercial Commissioning (spec.md §6): discover a Thread Border
// Router, connect with the user's admin code, and retrieve the
// Active Operational Dataset. It is a thin façade over the core
// protocol stack in internal/ — discovery, DTLS transport, CoAP, TLV,
// and the commissioner state machine.
package meshcop

import (
	"context"
	"fmt"

	zcryptotls "github.com/zmap/zcrypto/tls"

	"github.com/meshcop-go/commissioner/internal/commissioner"
	"github.com/meshcop-go/commissioner/internal/discovery"
	"github.com/meshcop-go/commissioner/internal/hub"
	"github.com/meshcop-go/commissioner/internal/tlv"
	"github.com/meshcop-go/commissioner/internal/transport"
)

// ThreadHub re-exports the discovered-candidate value type.
type ThreadHub = hub.ThreadHub

// Dataset re-exports the parsed Active Operational Dataset type.
type Dataset = tlv.Dataset

// LogLevel re-exports the DTLS engine's logging threshold enum.
type LogLevel = transport.LogLevel

const (
	LogLevelNone    = transport.LogLevelNone
	LogLevelError   = transport.LogLevelError
	LogLevelInfo    = transport.LogLevelInfo
	LogLevelVerbose = transport.LogLevelVerbose
)

// SearchForHub races mDNS discovery of _meshcop-e._udp against ctx,
// returning discovery.ErrNotFound if ctx is done first. Pass
// context.Background() to wait indefinitely (spec.md §6's
// "timeout_seconds <= 0").
func SearchForHub(ctx context.Context) (ThreadHub, error) {
	resolver, err := discovery.NewResolver()
	if err != nil {
		return ThreadHub{}, err
	}
	return discovery.WaitForHub(ctx, resolver)
}

// Commissioner is the stateful client: connect once, optionally fetch
// the dataset, then close. It is not safe for concurrent use by more
// than one goroutine at a time (spec.md §5).
type Commissioner struct {
	session *transport.Session
	inner   *commissioner.Commissioner
}

// NewCommissioner returns a Commissioner ready to Connect.
func NewCommissioner() *Commissioner {
	session := transport.New()
	return &Commissioner{
		session: session,
		inner:   commissioner.New(session),
	}
}

// SetDTLSLoggingLevel sets the threshold for the DTLS engine's own
// debug output (spec.md §6). Call before Connect.
func (c *Commissioner) SetDTLSLoggingLevel(level LogLevel) {
	c.session.SetLogLevel(level)
}

// Connect performs the C1 handshake against h using adminCode as the
// EC-JPAKE shared secret.
func (c *Commissioner) Connect(ctx context.Context, h ThreadHub, adminCode string) error {
	if err := c.inner.Connect(ctx, h, adminCode); err != nil {
		return fmt.Errorf("meshcop: connect: %w", err)
	}
	return nil
}

// GetThreadDataset performs petition + MGMT_ACTIVE_GET and returns
// the resulting Dataset.
func (c *Commissioner) GetThreadDataset(ctx context.Context) (Dataset, error) {
	ds, err := c.inner.GetThreadDataset(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("meshcop: get thread dataset: %w", err)
	}
	return ds, nil
}

// Close is idempotent teardown, safe to call from any state.
func (c *Commissioner) Close() error {
	return c.inner.Close()
}

// HandshakeLog returns the completed DTLS handshake's zcrypto record
// for verbose diagnostics (nil before Connect succeeds). Intended for
// LogLevelVerbose callers that want more than the DTLS engine's own
// log output.
func (c *Commissioner) HandshakeLog() *zcryptotls.ServerHandshake {
	return c.session.HandshakeLog()
}
