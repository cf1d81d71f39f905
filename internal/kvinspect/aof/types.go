package aof

const (
	OpcodeSize = 1 // Size of the opcode field
	LengthSize = 8 // Size of each length field (uint64, little-endian)

	// HeaderSize is the fixed size of a record header on the wire.
	HeaderSize = OpcodeSize + LengthSize + LengthSize

	// DefaultMaxPayloadSize bounds a single declared key or value length.
	DefaultMaxPayloadSize uint64 = 64 * 1024 * 1024 // 64 MB
)

// RecordHeader is the fixed framing header preceding every record.
// Opcode values are opaque to the decoder; see package op for their meaning.
type RecordHeader struct {
	Opcode   uint8  `json:"opcode"`
	KeyLen   uint64 `json:"key_len"`
	ValueLen uint64 `json:"value_len"`
}

// Record is one decoded operation from the log.
type Record struct {
	Header RecordHeader `json:"header"`
	Key    []byte       `json:"key"`
	Value  []byte       `json:"value"`
	// Offset is the byte offset of the header within the stream.
	Offset int64 `json:"offset"`
}

// Size returns the encoded size of the record.
func (r Record) Size() int64 {
	return HeaderSize + int64(len(r.Key)) + int64(len(r.Value)) //nolint:gosec
}
