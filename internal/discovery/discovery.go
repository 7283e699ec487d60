// Package discovery is the external collaborator (C5): it produces a
// (host, port) pair from mDNS service instances of _meshcop-e._udp.
// Any correct _meshcop-e._udp browser would satisfy the contract;
// this implementation uses github.com/grandcat/zeroconf, the same
// mDNS library the pack's Matter commissioning client
// (backkem-matter) uses for its own commissionable-node discovery.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/grandcat/zeroconf"

	"github.com/meshcop-go/commissioner/internal/hub"
)

// ServiceName is the mDNS/Bonjour service this client browses for.
const ServiceName = "_meshcop-e._udp"

// ErrNotFound is returned when ctx is done before any IPv4
// _meshcop-e._udp instance resolved (the "optional timeout wrapper"
// of spec.md §4.5/§6).
var ErrNotFound = errors.New("discovery: no thread hub found before deadline")

// Resolver browses for _meshcop-e._udp instances. It is satisfied by
// *zeroconf.Resolver; tests substitute a fake.
type Resolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// WaitForHub blocks until at least one _meshcop-e._udp instance
// resolves to an IPv4 address, returning the first such result. A ctx
// with no deadline waits indefinitely, matching spec.md §6's
// "timeout_seconds <= 0 means wait indefinitely". Address selection
// prefers IPv4; if only IPv6 records resolve, the entry is treated as
// not found, matching the reference behavior noted in spec.md §4.5.
func WaitForHub(ctx context.Context, resolver Resolver) (hub.ThreadHub, error) {
	entries := make(chan *zeroconf.ServiceEntry, 8)

	browseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := resolver.Browse(browseCtx, ServiceName, "local.", entries); err != nil {
		return hub.ThreadHub{}, fmt.Errorf("discovery: browse %s: %w", ServiceName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return hub.ThreadHub{}, ErrNotFound
		case entry, ok := <-entries:
			if !ok {
				return hub.ThreadHub{}, ErrNotFound
			}
			if h, ok := fromEntry(entry); ok {
				return h, nil
			}
			// IPv6-only or otherwise unusable entry: keep waiting.
		}
	}
}

// NewResolver constructs the real zeroconf-backed Resolver.
func NewResolver() (Resolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: new resolver: %w", err)
	}
	return zeroconfResolver{r}, nil
}

type zeroconfResolver struct {
	r *zeroconf.Resolver
}

func (z zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.r.Browse(ctx, service, domain, entries)
}

func fromEntry(entry *zeroconf.ServiceEntry) (hub.ThreadHub, bool) {
	for _, addr := range entry.AddrIPv4 {
		if ip4 := addr.To4(); ip4 != nil {
			h, err := hub.New(ip4.String(), uint16(entry.Port))
			if err != nil {
				continue
			}
			return h, true
		}
	}
	return hub.ThreadHub{}, false
}
