package coap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidResponse is returned when Decode rejects a datagram:
// wrong version, a token-length field that runs past the buffer, or
// any other structural truncation.
var ErrInvalidResponse = errors.New("invalid CoAP response")

const (
	version        = 1
	payloadMarker  = 0xFF
	maxTokenLength = 8
)

// Encode renders m as a CoAP datagram: a 4-byte header, the token,
// options sorted ascending by option number with delta encoding, and
// (if Payload is non-empty) a 0xFF marker followed by the payload.
func Encode(m Message) ([]byte, error) {
	if len(m.Token) > maxTokenLength {
		return nil, fmt.Errorf("coap: token length %d exceeds %d", len(m.Token), maxTokenLength)
	}

	buf := make([]byte, 4, 4+len(m.Token)+len(m.Payload)+16)
	buf[0] = byte(version<<6) | byte(m.Type&0x3)<<4 | byte(len(m.Token)&0xF)
	buf[1] = byte(m.Code)
	binary.BigEndian.PutUint16(buf[2:4], m.MessageID)
	buf = append(buf, m.Token...)

	opts := make([]Option, len(m.Options))
	copy(opts, m.Options)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Number < opts[j].Number })

	var running uint16
	for _, opt := range opts {
		delta := opt.Number - running
		running = opt.Number
		buf = appendOption(buf, delta, opt.Value)
	}

	if len(m.Payload) > 0 {
		buf = append(buf, payloadMarker)
		buf = append(buf, m.Payload...)
	}
	return buf, nil
}

func appendOption(buf []byte, delta uint16, value []byte) []byte {
	length := uint16(len(value))

	deltaNibble, deltaExt := encodeNibble(delta)
	lengthNibble, lengthExt := encodeNibble(length)

	buf = append(buf, byte(deltaNibble<<4)|byte(lengthNibble))
	buf = append(buf, deltaExt...)
	buf = append(buf, lengthExt...)
	buf = append(buf, value...)
	return buf
}

// encodeNibble returns the 4-bit nibble to place in the option header
// and any extended bytes, applying the 13-escape for values 13-268
// and the 14-escape (two extended bytes) for values of 269 and above.
func encodeNibble(v uint16) (nibble uint8, ext []byte) {
	switch {
	case v < 13:
		return uint8(v), nil
	case v < 13+256:
		return 13, []byte{byte(v - 13)}
	default:
		ext = make([]byte, 2)
		binary.BigEndian.PutUint16(ext, v-269)
		return 14, ext
	}
}

// Decode parses a CoAP datagram. It rejects version != 1 and any
// truncation; unknown option numbers are consumed (to keep delta
// tracking correct) but dropped from the returned Options.
func Decode(data []byte) (Message, error) {
	if len(data) < 4 {
		return Message{}, fmt.Errorf("%w: datagram shorter than header", ErrInvalidResponse)
	}
	if (data[0] >> 6) != version {
		return Message{}, fmt.Errorf("%w: version %d", ErrInvalidResponse, data[0]>>6)
	}

	m := Message{
		Type: Type((data[0] >> 4) & 0x3),
		Code: Code(data[1]),
	}
	tokenLen := int(data[0] & 0xF)
	m.MessageID = binary.BigEndian.Uint16(data[2:4])

	off := 4
	if tokenLen > maxTokenLength || off+tokenLen > len(data) {
		return Message{}, fmt.Errorf("%w: token length %d out of range", ErrInvalidResponse, tokenLen)
	}
	if tokenLen > 0 {
		m.Token = append([]byte{}, data[off:off+tokenLen]...)
	}
	off += tokenLen

	var running uint16
	for off < len(data) {
		if data[off] == payloadMarker {
			off++
			break
		}
		deltaNibble := (data[off] >> 4) & 0xF
		lengthNibble := data[off] & 0xF
		off++

		delta, newOff, err := decodeNibble(deltaNibble, data, off)
		if err != nil {
			return Message{}, err
		}
		off = newOff

		length, newOff, err := decodeNibble(lengthNibble, data, off)
		if err != nil {
			return Message{}, err
		}
		off = newOff

		if off+int(length) > len(data) {
			return Message{}, fmt.Errorf("%w: option value runs past datagram", ErrInvalidResponse)
		}
		value := data[off : off+int(length)]
		off += int(length)

		running += delta
		if isKnownOption(running) {
			m.Options = append(m.Options, Option{Number: running, Value: append([]byte{}, value...)})
		}
	}

	if off < len(data) {
		m.Payload = append([]byte{}, data[off:]...)
	}
	return m, nil
}

func isKnownOption(number uint16) bool {
	switch number {
	case OptionURIPath, OptionContentFormat, OptionURIQuery:
		return true
	default:
		return false
	}
}

// decodeNibble resolves a 4-bit option-header nibble into its
// numeric value, handling the 13- and 14-byte escapes, and returns
// the offset just past any extended bytes consumed.
func decodeNibble(nibble uint8, data []byte, off int) (uint16, int, error) {
	switch nibble {
	case 13:
		if off >= len(data) {
			return 0, off, fmt.Errorf("%w: truncated 13-escape", ErrInvalidResponse)
		}
		return uint16(data[off]) + 13, off + 1, nil
	case 14:
		if off+2 > len(data) {
			return 0, off, fmt.Errorf("%w: truncated 14-escape", ErrInvalidResponse)
		}
		return binary.BigEndian.Uint16(data[off:off+2]) + 269, off + 2, nil
	case 15:
		return 0, off, fmt.Errorf("%w: reserved nibble 15", ErrInvalidResponse)
	default:
		return uint16(nibble), off, nil
	}
}
