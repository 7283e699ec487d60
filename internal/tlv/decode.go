package tlv

import "encoding/binary"

// fieldDecoder writes a validated TLV value into ds. It returns false
// if value's length disagrees with the field's required wire format,
// in which case the field is left absent but parsing continues.
type fieldDecoder func(ds *Dataset, value []byte) bool

// dispatch is the (type, decoder) table called out in
// SPEC_FULL.md/Design Notes §9, replacing a switch-on-type.
var dispatch = map[uint8]fieldDecoder{
	TypeActiveTimestamp: decodeActiveTimestamp,
	TypeChannel:         decodeChannel,
	TypePANID:           decodePANID,
	TypeExtendedPANID:   decodeExtendedPANID,
	TypeNetworkName:     decodeNetworkName,
	TypePSKc:            decodePSKc,
	TypeNetworkKey:      decodeNetworkKey,
	TypeMeshLocalPrefix: decodeMeshLocalPrefix,
	TypeSecurityPolicy:  decodeSecurityPolicy,
	TypeChannelMask:     decodeChannelMask,
}

// ParseDataset walks payload as a forward sequence of
// (type:u8, length:u8, value:length bytes) records (spec.md §4.3).
// An unknown type is skipped by its length. A TLV whose declared
// length would exceed the remaining bytes terminates parsing cleanly,
// returning whatever fields were decoded so far. A TLV whose length
// disagrees with its field's wire format is dropped silently (the
// field stays absent) but parsing continues with the next record.
func ParseDataset(payload []byte) Dataset {
	var ds Dataset

	off := 0
	for off+2 <= len(payload) {
		typ := payload[off]
		length := int(payload[off+1])
		off += 2

		if off+length > len(payload) {
			break
		}
		value := payload[off : off+length]
		off += length

		if decode, ok := dispatch[typ]; ok {
			decode(&ds, value)
		}
		// unknown types are simply skipped; nothing further to do.
	}

	return ds
}

func decodeActiveTimestamp(ds *Dataset, value []byte) bool {
	if len(value) != 8 {
		return false
	}
	seconds := uint64(value[0])<<40 | uint64(value[1])<<32 | uint64(value[2])<<24 |
		uint64(value[3])<<16 | uint64(value[4])<<8 | uint64(value[5])
	ticks := binary.BigEndian.Uint16(value[6:8])
	ds.ActiveTimestamp = &ActiveTimestamp{Seconds: seconds, Ticks: ticks}
	return true
}

func decodeChannel(ds *Dataset, value []byte) bool {
	if len(value) != 3 {
		return false
	}
	ds.Channel = &Channel{
		Page:    value[0],
		Channel: binary.BigEndian.Uint16(value[1:3]),
	}
	return true
}

func decodePANID(ds *Dataset, value []byte) bool {
	if len(value) != 2 {
		return false
	}
	v := binary.BigEndian.Uint16(value)
	ds.PANID = &v
	return true
}

func decodeExtendedPANID(ds *Dataset, value []byte) bool {
	if len(value) != 8 {
		return false
	}
	ds.ExtendedPANID = append([]byte{}, value...)
	return true
}

func decodeNetworkName(ds *Dataset, value []byte) bool {
	ds.NetworkName = string(value)
	ds.NetworkNameSet = true
	return true
}

func decodePSKc(ds *Dataset, value []byte) bool {
	if len(value) != 16 {
		return false
	}
	ds.PSKc = append([]byte{}, value...)
	return true
}

func decodeNetworkKey(ds *Dataset, value []byte) bool {
	if len(value) != 16 {
		return false
	}
	ds.NetworkKey = append([]byte{}, value...)
	return true
}

func decodeMeshLocalPrefix(ds *Dataset, value []byte) bool {
	if len(value) != 8 {
		return false
	}
	ds.MeshLocalPrefix = append([]byte{}, value...)
	return true
}

func decodeSecurityPolicy(ds *Dataset, value []byte) bool {
	if len(value) < 4 {
		return false
	}
	ds.SecurityPolicy = &SecurityPolicy{
		RotationHours: binary.BigEndian.Uint16(value[0:2]),
		Flags:         binary.BigEndian.Uint16(value[2:4]),
	}
	return true
}

func decodeChannelMask(ds *Dataset, value []byte) bool {
	if len(value) < 2 {
		return false
	}
	page := value[0]
	maskLen := int(value[1])
	rest := value[2:]
	if maskLen == 0 || maskLen%4 != 0 || len(rest) != maskLen {
		return false
	}
	n := maskLen / 4
	masks := make([]uint32, n)
	for i := 0; i < n; i++ {
		masks[i] = binary.BigEndian.Uint32(rest[i*4 : i*4+4])
	}
	ds.ChannelMask = &ChannelMask{Page: page, Masks: masks}
	return true
}
