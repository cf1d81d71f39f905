package aof

import (
	"encoding/binary"
	"io"
)

// DecodeHeader decodes a record header from the first HeaderSize bytes of data.
// Lengths are not range-checked here; the Decoder owns that policy.
func DecodeHeader(data []byte) (RecordHeader, error) {
	if len(data) < HeaderSize {
		return RecordHeader{}, &ParseError{
			Kind: KindTruncatedHeader,
			Want: HeaderSize,
			Have: uint64(len(data)),
			Err:  io.ErrUnexpectedEOF,
		}
	}

	return RecordHeader{
		Opcode:   data[0],
		KeyLen:   binary.LittleEndian.Uint64(data[OpcodeSize : OpcodeSize+LengthSize]),
		ValueLen: binary.LittleEndian.Uint64(data[OpcodeSize+LengthSize : HeaderSize]),
	}, nil
}

// PutHeader writes h into dst, which must be at least HeaderSize bytes long.
func PutHeader(dst []byte, h RecordHeader) {
	_ = dst[HeaderSize-1]
	dst[0] = h.Opcode
	binary.LittleEndian.PutUint64(dst[OpcodeSize:OpcodeSize+LengthSize], h.KeyLen)
	binary.LittleEndian.PutUint64(dst[OpcodeSize+LengthSize:HeaderSize], h.ValueLen)
}

// EncodeHeader returns the wire form of h.
func EncodeHeader(h RecordHeader) []byte {
	buf := make([]byte, HeaderSize)
	PutHeader(buf, h)
	return buf
}

// AppendRecord appends the framed form of (opcode, key, value) to dst.
// Used to build fixtures; the agent owns the real writer.
func AppendRecord(dst []byte, opcode uint8, key, value []byte) []byte {
	var hdr [HeaderSize]byte
	PutHeader(hdr[:], RecordHeader{
		Opcode:   opcode,
		KeyLen:   uint64(len(key)),
		ValueLen: uint64(len(value)),
	})
	dst = append(dst, hdr[:]...)
	dst = append(dst, key...)
	return append(dst, value...)
}
