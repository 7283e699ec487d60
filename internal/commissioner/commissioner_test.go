package commissioner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshcop-go/commissioner/internal/coap"
	"github.com/meshcop-go/commissioner/internal/hub"
	"github.com/meshcop-go/commissioner/internal/tlv"
)

// fakeTransport is a scripted Transport: Connect returns connectErr
// (nil unless a test sets it; C4 only delegates to it), and Receive
// serves from a queue that handlers (petition, dataset) fill in
// based on what was last Sent.
type fakeTransport struct {
	connectErr error
	closed     bool

	sent    [][]byte
	queue   [][]byte
	onSend  func(req coap.Message) []coap.Message // scripted responses per send, in order
	sendIdx int
}

func (f *fakeTransport) Connect(_ context.Context, _ string, _ uint16, _ string) error {
	return f.connectErr
}

func (f *fakeTransport) Send(payload []byte) error {
	f.sent = append(f.sent, payload)
	req, err := coap.Decode(payload)
	if err != nil {
		return err
	}
	responses := f.onSend(req)
	for _, resp := range responses {
		encoded, err := coap.Encode(resp)
		if err != nil {
			return err
		}
		f.queue = append(f.queue, encoded)
	}
	return nil
}

func (f *fakeTransport) Receive(int) ([]byte, error) {
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func petitionResponse(req coap.Message, code coap.Code) coap.Message {
	return coap.Message{Type: coap.TypeAcknowledgement, Code: code, MessageID: req.MessageID, Token: req.Token}
}

func TestCommissioner_HappyPath(t *testing.T) {
	ft := &fakeTransport{}
	ft.onSend = func(req coap.Message) []coap.Message {
		paths := req.URIPathOptions()
		switch {
		case len(paths) == 2 && paths[1] == "cp":
			return []coap.Message{petitionResponse(req, coap.CodeChanged)}
		case len(paths) == 2 && paths[1] == "ag":
			resp := petitionResponse(req, coap.CodeContent)
			resp.Payload = []byte{tlv.TypeNetworkName, 0x02, 'h', 'i'}
			return []coap.Message{resp}
		}
		t.Fatalf("unexpected request paths: %v", paths)
		return nil
	}

	c := New(ft)
	h, err := hub.New("192.168.1.1", 49191)
	require.NoError(t, err)

	require.NoError(t, c.Connect(context.Background(), h, "123456"))
	require.Equal(t, StateConnected, c.State())

	ds, err := c.GetThreadDataset(context.Background())
	require.NoError(t, err)
	require.True(t, ds.NetworkNameSet)
	require.Equal(t, "hi", ds.NetworkName)
	require.Equal(t, StateIdle, c.State())
}

// S3 — separate response: petition gets an empty ACK first, then a
// second datagram carrying the real Changed response.
func TestCommissioner_SeparateResponse(t *testing.T) {
	ft := &fakeTransport{}
	ft.onSend = func(req coap.Message) []coap.Message {
		paths := req.URIPathOptions()
		if len(paths) == 2 && paths[1] == "cp" {
			emptyACK := coap.Message{Type: coap.TypeAcknowledgement, Code: coap.CodeEmpty, MessageID: req.MessageID}
			changed := petitionResponse(req, coap.CodeChanged)
			return []coap.Message{emptyACK, changed}
		}
		resp := petitionResponse(req, coap.CodeChanged)
		resp.Payload = []byte{tlv.TypeNetworkName, 0x01, 'x'}
		return []coap.Message{resp}
	}

	c := New(ft)
	h, err := hub.New("192.168.1.1", 49191)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), h, "123456"))

	ds, err := c.GetThreadDataset(context.Background())
	require.NoError(t, err)
	require.Equal(t, "x", ds.NetworkName)
}

func TestCommissioner_PetitionFailed(t *testing.T) {
	ft := &fakeTransport{}
	ft.onSend = func(req coap.Message) []coap.Message {
		return []coap.Message{petitionResponse(req, coap.Code(0x80))} // 4.00-ish
	}

	c := New(ft)
	h, err := hub.New("192.168.1.1", 49191)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), h, "123456"))

	_, err = c.GetThreadDataset(context.Background())
	require.Error(t, err)
	var petitionErr *PetitionFailedError
	require.ErrorAs(t, err, &petitionErr)
	require.Equal(t, StateFaulted, c.State())
}

func TestCommissioner_DatasetRequestFailed_EmptyPayload(t *testing.T) {
	ft := &fakeTransport{}
	ft.onSend = func(req coap.Message) []coap.Message {
		paths := req.URIPathOptions()
		if len(paths) == 2 && paths[1] == "cp" {
			return []coap.Message{petitionResponse(req, coap.CodeChanged)}
		}
		return []coap.Message{petitionResponse(req, coap.CodeContent)} // no payload
	}

	c := New(ft)
	h, err := hub.New("192.168.1.1", 49191)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), h, "123456"))

	_, err = c.GetThreadDataset(context.Background())
	require.Error(t, err)
	var dsErr *DatasetRequestFailedError
	require.ErrorAs(t, err, &dsErr)
}

// Invariant 5 — message_id values of distinct sent requests within
// one session are pairwise distinct.
func TestCommissioner_MessageIDsDistinct(t *testing.T) {
	seen := map[uint16]bool{}
	ft := &fakeTransport{}
	ft.onSend = func(req coap.Message) []coap.Message {
		if seen[req.MessageID] {
			t.Fatalf("message id %d reused", req.MessageID)
		}
		seen[req.MessageID] = true
		paths := req.URIPathOptions()
		if len(paths) == 2 && paths[1] == "cp" {
			return []coap.Message{petitionResponse(req, coap.CodeChanged)}
		}
		resp := petitionResponse(req, coap.CodeChanged)
		resp.Payload = []byte{tlv.TypeNetworkName, 0x01, 'x'}
		return []coap.Message{resp}
	}

	c := New(ft)
	h, err := hub.New("192.168.1.1", 49191)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), h, "123456"))
	_, err = c.GetThreadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 2)
}

func TestCommissioner_CloseFromAnyState(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft)
	require.NoError(t, c.Close())
	require.True(t, ft.closed)
	require.Equal(t, StateClosed, c.State())
}
