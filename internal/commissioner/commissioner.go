// Package commissioner implements the commissioner state machine
// (C4): connect -> petition -> dataset request, owning message-ID and
// token allocation and surfacing the final Dataset.
package commissioner

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/meshcop-go/commissioner/internal/coap"
	"github.com/meshcop-go/commissioner/internal/hub"
	"github.com/meshcop-go/commissioner/internal/tlv"
)

// CommissionerName is sent as the Commissioner-ID TLV value during
// petition. Any non-empty UTF-8 string satisfies the protocol;
// this is the reference value from spec.md §4.4.
const CommissionerName = "iOSCommissioner"

// Transport is the subset of transport.Session the state machine
// depends on, so tests can substitute a fake secure-datagram peer.
type Transport interface {
	Connect(ctx context.Context, host string, port uint16, adminCode string) error
	Send(payload []byte) error
	Receive(maxLen int) ([]byte, error)
	Close() error
}

// Commissioner sequences connect -> petition -> dataset request over
// a Transport.
type Commissioner struct {
	transport Transport

	mu        sync.Mutex
	state     State
	messageID uint16
}

// New returns a Disconnected Commissioner driving t.
func New(t Transport) *Commissioner {
	return &Commissioner{transport: t, state: StateDisconnected}
}

// State returns the current state.
func (c *Commissioner) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect delegates to the transport with the supplied hub and admin
// code. On success the state becomes Connected.
func (c *Commissioner) Connect(ctx context.Context, h hub.ThreadHub, adminCode string) error {
	c.mu.Lock()
	if c.state != StateDisconnected && c.state != StateClosed {
		c.mu.Unlock()
		return fmt.Errorf("commissioner: connect called in state %s", c.state)
	}
	c.mu.Unlock()

	if err := c.transport.Connect(ctx, h.Host, h.Port, adminCode); err != nil {
		c.setState(StateFaulted)
		return err
	}

	// Open Question resolution (spec.md §9, decided in SPEC_FULL.md
	// §9): seed message_id from a CSPRNG rather than starting at
	// zero. It still increments strictly per session thereafter.
	var seed [2]byte
	if _, err := rand.Read(seed[:]); err != nil {
		c.setState(StateFaulted)
		return fmt.Errorf("commissioner: seeding message id: %w", err)
	}
	c.mu.Lock()
	c.messageID = uint16(seed[0])<<8 | uint16(seed[1])
	c.state = StateConnected
	c.mu.Unlock()
	return nil
}

// GetThreadDataset performs the petition and, on success, the
// MGMT_ACTIVE_GET dataset request, returning the parsed Dataset.
func (c *Commissioner) GetThreadDataset(ctx context.Context) (tlv.Dataset, error) {
	if err := c.petition(ctx); err != nil {
		c.setState(StateFaulted)
		return tlv.Dataset{}, err
	}
	ds, err := c.requestDataset(ctx)
	if err != nil {
		c.setState(StateFaulted)
		return tlv.Dataset{}, err
	}
	c.setState(StateIdle)
	return ds, nil
}

// petition elevates the caller to active commissioner (spec.md §4.4).
func (c *Commissioner) petition(ctx context.Context) error {
	if c.State() != StateConnected {
		return fmt.Errorf("commissioner: petition called in state %s", c.State())
	}
	c.setState(StateCommissionerPending)

	token, err := randomToken()
	if err != nil {
		return fmt.Errorf("commissioner: allocating petition token: %w", err)
	}

	req := coap.Message{
		Type:      coap.TypeConfirmable,
		Code:      coap.CodePOST,
		MessageID: c.nextMessageID(),
		Token:     token,
		Options: []coap.Option{
			{Number: coap.OptionURIPath, Value: []byte("c")},
			{Number: coap.OptionURIPath, Value: []byte("cp")},
		},
		Payload: tlv.EncodeCommissionerID(CommissionerName),
	}

	resp, err := c.exchange(req)
	if err != nil {
		return err
	}

	if resp.Code != coap.CodeChanged {
		return &PetitionFailedError{Code: resp.Code}
	}
	c.setState(StateCommissionerActive)
	return nil
}

// requestDataset performs MGMT_ACTIVE_GET (spec.md §4.4).
func (c *Commissioner) requestDataset(ctx context.Context) (tlv.Dataset, error) {
	if c.State() != StateCommissionerActive {
		return tlv.Dataset{}, fmt.Errorf("commissioner: dataset request called in state %s", c.State())
	}

	token, err := randomToken()
	if err != nil {
		return tlv.Dataset{}, fmt.Errorf("commissioner: allocating dataset token: %w", err)
	}

	req := coap.Message{
		Type:      coap.TypeConfirmable,
		Code:      coap.CodePOST,
		MessageID: c.nextMessageID(),
		Token:     token,
		Options: []coap.Option{
			{Number: coap.OptionURIPath, Value: []byte("c")},
			{Number: coap.OptionURIPath, Value: []byte("ag")},
		},
		Payload: tlv.EncodeGetTLVRequest(tlv.DefaultGetTypes),
	}
	c.setState(StateDatasetRequested)

	resp, err := c.exchange(req)
	if err != nil {
		return tlv.Dataset{}, err
	}

	if resp.Code != coap.CodeChanged && resp.Code != coap.CodeContent {
		return tlv.Dataset{}, &DatasetRequestFailedError{Code: resp.Code}
	}
	if len(resp.Payload) == 0 {
		return tlv.Dataset{}, &DatasetRequestFailedError{Code: resp.Code}
	}

	return tlv.ParseDataset(resp.Payload), nil
}

// exchange sends req and waits for its response, implementing the
// separate-response mini-machine of Design Notes §9: an empty ACK
// (0.00/ACK) means "wait for a second datagram"; anything else is the
// (piggybacked) response itself.
func (c *Commissioner) exchange(req coap.Message) (coap.Message, error) {
	encoded, err := coap.Encode(req)
	if err != nil {
		return coap.Message{}, fmt.Errorf("commissioner: encoding request: %w", err)
	}
	if err := c.transport.Send(encoded); err != nil {
		return coap.Message{}, err
	}

	resp, err := c.receiveAndDecode()
	if err != nil {
		return coap.Message{}, err
	}
	if resp.IsEmptyACK() {
		resp, err = c.receiveAndDecode()
		if err != nil {
			return coap.Message{}, err
		}
	}
	return resp, nil
}

func (c *Commissioner) receiveAndDecode() (coap.Message, error) {
	raw, err := c.transport.Receive(0)
	if err != nil {
		return coap.Message{}, err
	}
	msg, err := coap.Decode(raw)
	if err != nil {
		return coap.Message{}, fmt.Errorf("commissioner: %w", coap.ErrInvalidResponse)
	}
	return msg, nil
}

// Close delegates to the transport. It is safe to call from any
// state, including after a fault.
func (c *Commissioner) Close() error {
	err := c.transport.Close()
	c.setState(StateClosed)
	return err
}

func (c *Commissioner) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Commissioner) nextMessageID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageID++
	return c.messageID
}

// randomToken allocates a fresh 4-byte token per exchange, per the
// Open Question resolution in SPEC_FULL.md §9 (the reference uses
// fixed constants; a port SHOULD use fresh random tokens so a late
// retransmission from one exchange can't be misattributed to the
// next).
func randomToken() ([]byte, error) {
	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return nil, err
	}
	return token, nil
}
