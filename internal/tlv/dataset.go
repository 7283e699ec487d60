// Package tlv implements the Thread management TLV codec: encoding
// "Get TLV" requests and decoding an Active Operational Dataset
// response into typed, optional fields.
package tlv

import "fmt"

// TLV type identifiers from the Active Operational Dataset wire
// table (spec.md §3).
const (
	TypeChannel          = 0x00
	TypePANID            = 0x01
	TypeExtendedPANID    = 0x02
	TypeNetworkName      = 0x03
	TypePSKc             = 0x04
	TypeNetworkKey       = 0x05
	TypeMeshLocalPrefix  = 0x07
	TypeSecurityPolicy   = 0x0C
	TypeActiveTimestamp  = 0x0E
	TypeChannelMask      = 0x35
	TypeGetTLV           = 0x0D
	TypeCommissionerID   = 0x01 // Commissioner-ID TLV, distinct namespace from dataset TLVs
)

// ActiveTimestamp is the 8-byte u48-seconds/u16-ticks timestamp TLV.
type ActiveTimestamp struct {
	Seconds uint64 // 48-bit value
	Ticks   uint16
}

// Channel is the 3-byte page/channel TLV.
type Channel struct {
	Page    uint8
	Channel uint16
}

// SecurityPolicy is the rotation-hours/flags prefix of the TLV; any
// trailing bytes beyond the first 4 are ignored per spec.md §3.
type SecurityPolicy struct {
	RotationHours uint16
	Flags         uint16
}

// ChannelMask is the page plus the list of per-page 32-bit channel
// masks.
type ChannelMask struct {
	Page  uint8
	Masks []uint32
}

// Dataset is the parsed Active Operational Dataset. All fields are
// optional; presence is tracked by the accompanying *Set bool or by
// nil-ness for slice/pointer fields.
type Dataset struct {
	ActiveTimestamp  *ActiveTimestamp
	Channel          *Channel
	PANID            *uint16
	ExtendedPANID    []byte // exactly 8 bytes when present
	NetworkName      string
	NetworkNameSet   bool
	PSKc             []byte // exactly 16 bytes when present
	NetworkKey       []byte // exactly 16 bytes when present
	MeshLocalPrefix  []byte // exactly 8 bytes when present
	SecurityPolicy   *SecurityPolicy
	ChannelMask      *ChannelMask
}

// IsComplete reports whether the fields required to actually join a
// Thread network are all present: channel, pan_id, xpan_id,
// network_key, network_name. This is additive convenience noted in
// SPEC_FULL.md §3, not part of the wire contract.
func (d Dataset) IsComplete() bool {
	return d.Channel != nil &&
		d.PANID != nil &&
		len(d.ExtendedPANID) == 8 &&
		len(d.NetworkKey) == 16 &&
		d.NetworkNameSet
}

func (d Dataset) String() string {
	return fmt.Sprintf("Dataset{complete=%v, network_name=%q}", d.IsComplete(), d.NetworkName)
}
