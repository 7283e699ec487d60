package tlv

// DefaultGetTypes is the set of dataset TLV types requested when
// retrieving full network credentials: channel, pan-id, xpan-id,
// network-name, network-key, active-timestamp (spec.md §4.3).
var DefaultGetTypes = []byte{
	TypeChannel,
	TypePANID,
	TypeExtendedPANID,
	TypeNetworkName,
	TypeNetworkKey,
	TypeActiveTimestamp,
}

// EncodeGetTLVRequest builds the outer "Get TLV" TLV (type 0x0D)
// whose value is the list of requested one-byte TLV type
// identifiers.
func EncodeGetTLVRequest(types []byte) []byte {
	out := make([]byte, 0, 2+len(types))
	out = append(out, TypeGetTLV, byte(len(types)))
	out = append(out, types...)
	return out
}

// EncodeCommissionerID builds the Commissioner-ID TLV (type 0x01)
// carrying the UTF-8 bytes of name as its value.
func EncodeCommissionerID(name string) []byte {
	value := []byte(name)
	out := make([]byte, 0, 2+len(value))
	out = append(out, TypeCommissionerID, byte(len(value)))
	out = append(out, value...)
	return out
}
