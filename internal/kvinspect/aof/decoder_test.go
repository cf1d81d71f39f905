package aof_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"testing"

	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/testutil"
)

func TestNext_EmptyStream(t *testing.T) {
	dec := aof.NewDecoder(bytes.NewReader(nil))

	_, err := dec.Next()
	tst.AssertTrue(t, errors.Is(err, io.EOF), "expected io.EOF on empty stream")
	tst.RequireDeepEqual(t, dec.Count(), 0)
	tst.AssertNil(t, dec.Err(), "expected no terminal error")
}

func TestNext_ConcreteExample(t *testing.T) {
	data := []byte{0x01, 0x03, 0, 0, 0, 0, 0, 0, 0, 0x05, 0, 0, 0, 0, 0, 0, 0}
	data = append(data, "abchello"...)

	dec := aof.NewDecoder(bytes.NewReader(data))
	rec, err := dec.Next()
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, rec.Header.Opcode, uint8(1))
	tst.RequireDeepEqual(t, string(rec.Key), "abc")
	tst.RequireDeepEqual(t, string(rec.Value), "hello")
	tst.RequireDeepEqual(t, rec.Offset, int64(0))
	tst.RequireDeepEqual(t, rec.Size(), int64(25))

	_, err = dec.Next()
	tst.AssertTrue(t, aof.IsCleanEOF(err), "expected clean EOF after single record")
	tst.RequireDeepEqual(t, dec.Offset(), int64(len(data)))
	tst.RequireDeepEqual(t, dec.Count(), 1)

	// EOF is sticky
	_, err = dec.Next()
	tst.AssertTrue(t, aof.IsCleanEOF(err), "expected EOF to repeat")
}

func TestNext_MultiRecordSequencing(t *testing.T) {
	seq := testutil.NewLog().
		Put([]byte("config.a"), []byte("1")).
		Delete([]byte("config.b")).
		Record(0xEE, []byte("opaque"), []byte{0x00, 0xFF, 0xFE}).
		Put([]byte{}, []byte{})

	dec := aof.NewDecoder(bytes.NewReader(seq.Bytes()))
	var got []aof.Record
	for {
		rec, err := dec.Next()
		if err != nil {
			tst.AssertTrue(t, errors.Is(err, io.EOF), "expected clean EOF")
			break
		}
		got = append(got, rec)
	}

	want := seq.Records()
	tst.RequireDeepEqual(t, len(got), len(want))
	var offset int64
	for i := range want {
		tst.RequireDeepEqual(t, got[i].Header.Opcode, want[i].Opcode)
		tst.RequireDeepEqual(t, got[i].Key, want[i].Key)
		tst.RequireDeepEqual(t, got[i].Value, want[i].Value)
		tst.RequireDeepEqual(t, got[i].Offset, offset)
		offset += got[i].Size()
	}
}

func TestNext_ZeroLengthFields(t *testing.T) {
	data := aof.AppendRecord(nil, 3, nil, nil)

	dec := aof.NewDecoder(bytes.NewReader(data))
	rec, err := dec.Next()
	tst.RequireNoError(t, err)
	tst.AssertNotNil(t, rec.Key, "expected empty, non-nil key")
	tst.AssertNotNil(t, rec.Value, "expected empty, non-nil value")
	tst.RequireDeepEqual(t, len(rec.Key), 0)
	tst.RequireDeepEqual(t, len(rec.Value), 0)
	tst.RequireDeepEqual(t, rec.Header.Opcode, uint8(3))
}

func TestNext_UnknownOpcodePassesThrough(t *testing.T) {
	data := aof.AppendRecord(nil, 0xFF, []byte("k"), []byte("v"))

	rec, err := aof.NewDecoder(bytes.NewReader(data)).Next()
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, rec.Header.Opcode, uint8(0xFF))
}

func TestNext_NonUTF8Payload(t *testing.T) {
	key := []byte{0xC3, 0x28, 0x00}
	value := []byte{0xFF, 0xFE, 0xFD}
	data := aof.AppendRecord(nil, 1, key, value)

	rec, err := aof.NewDecoder(bytes.NewReader(data)).Next()
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, rec.Key, key)
	tst.RequireDeepEqual(t, rec.Value, value)
}

func TestNext_TruncatedHeader(t *testing.T) {
	full := aof.AppendRecord(nil, 1, []byte("abc"), []byte("hello"))

	for n := 1; n < aof.HeaderSize; n++ {
		dec := aof.NewDecoder(bytes.NewReader(full[:n]))
		_, err := dec.Next()
		tst.AssertTrue(t, errors.Is(err, aof.ErrTruncatedHeader), "expected truncated header")
		tst.AssertTrue(t, aof.IsTruncation(err), "expected truncation")
		tst.RequireDeepEqual(t, dec.Count(), 0)

		pe, ok := aof.AsParseError(err)
		tst.AssertTrue(t, ok, "expected ParseError")
		tst.RequireDeepEqual(t, pe.Have, uint64(n))
		tst.RequireDeepEqual(t, *pe.Offset, int64(0))
	}
}

func TestNext_TruncatedPayload(t *testing.T) {
	testCases := []struct {
		name      string
		data      func() []byte
		wantField aof.Field
		wantHave  uint64
	}{
		{"key_5_have_3", func() []byte {
			hdr := aof.EncodeHeader(aof.RecordHeader{Opcode: 1, KeyLen: 5, ValueLen: 0})
			return append(hdr, "abc"...)
		}, aof.FieldKey, 3},
		{"key_missing", func() []byte {
			return aof.EncodeHeader(aof.RecordHeader{Opcode: 1, KeyLen: 1, ValueLen: 1})
		}, aof.FieldKey, 0},
		{"value_short", func() []byte {
			full := aof.AppendRecord(nil, 1, []byte("abc"), []byte("hello"))
			return full[:len(full)-2]
		}, aof.FieldValue, 3},
		{"value_missing", func() []byte {
			full := aof.AppendRecord(nil, 1, []byte("abc"), []byte("hello"))
			return full[:aof.HeaderSize+3]
		}, aof.FieldValue, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec := aof.NewDecoder(bytes.NewReader(tc.data()))
			_, err := dec.Next()
			tst.AssertTrue(t, errors.Is(err, aof.ErrTruncatedPayload), "expected truncated payload")

			pe, ok := aof.AsParseError(err)
			tst.AssertTrue(t, ok, "expected ParseError")
			tst.RequireDeepEqual(t, pe.Field, tc.wantField)
			tst.RequireDeepEqual(t, pe.Have, tc.wantHave)
			tst.RequireDeepEqual(t, pe.Opcode, uint8(1))
		})
	}
}

func TestNext_TruncatedAfterValidRecords(t *testing.T) {
	data := testutil.NewLog().
		Put([]byte("a"), []byte("A")).
		Put([]byte("b"), []byte("B")).
		Bytes()
	data = append(data, 0x01, 0x02)

	dec := aof.NewDecoder(bytes.NewReader(data))
	for range 2 {
		_, err := dec.Next()
		tst.RequireNoError(t, err)
	}
	_, err := dec.Next()
	tst.AssertTrue(t, errors.Is(err, aof.ErrTruncatedHeader), "expected truncated header")

	pe, _ := aof.AsParseError(err)
	tst.RequireDeepEqual(t, *pe.Index, 2)
	tst.RequireDeepEqual(t, *pe.Offset, int64(len(data)-2))
}

func TestNext_FailureIsTerminal(t *testing.T) {
	data := aof.AppendRecord(nil, 1, []byte("x"), []byte("y"))
	valid := len(data)
	data = append(data, aof.EncodeHeader(aof.RecordHeader{Opcode: 1, KeyLen: 5})...)
	data = append(data, "abc"...)

	dec := aof.NewDecoder(bytes.NewReader(data))
	rec, err := dec.Next()
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, rec.Key, []byte("x"))

	_, first := dec.Next()
	tst.AssertTrue(t, errors.Is(first, aof.ErrTruncatedPayload), "expected truncated payload")
	pe, ok := aof.AsParseError(first)
	tst.AssertTrue(t, ok, "expected ParseError")
	tst.RequireDeepEqual(t, pe.Field, aof.FieldKey)
	tst.RequireDeepEqual(t, *pe.Offset, int64(valid))
	tst.RequireDeepEqual(t, *pe.Index, 1)

	for range 2 {
		_, again := dec.Next()
		tst.AssertTrue(t, again == first, "expected the same terminal error")
	}
	tst.AssertTrue(t, dec.Err() == first, "expected Err to report terminal error")
	tst.RequireDeepEqual(t, dec.Count(), 1)
}

func TestNext_PayloadTooLarge(t *testing.T) {
	testCases := []struct {
		name      string
		hdr       aof.RecordHeader
		wantField aof.Field
	}{
		{"key", aof.RecordHeader{Opcode: 1, KeyLen: 11, ValueLen: 1}, aof.FieldKey},
		{"value", aof.RecordHeader{Opcode: 1, KeyLen: 1, ValueLen: 11}, aof.FieldValue},
		{"max_uint64", aof.RecordHeader{Opcode: 1, KeyLen: ^uint64(0)}, aof.FieldKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := append(aof.EncodeHeader(tc.hdr), bytes.Repeat([]byte{'x'}, 32)...)
			dec := aof.NewDecoder(bytes.NewReader(data), aof.WithMaxPayloadSize(10))

			_, err := dec.Next()
			tst.AssertTrue(t, errors.Is(err, aof.ErrPayloadTooLarge), "expected payload too large")
			tst.AssertFalse(t, aof.IsTruncation(err), "too large is not a truncation")

			pe, _ := aof.AsParseError(err)
			tst.RequireDeepEqual(t, pe.Field, tc.wantField)
			tst.RequireDeepEqual(t, pe.Want, uint64(10))
			// nothing past the header is consumed
			tst.RequireDeepEqual(t, dec.Offset(), int64(aof.HeaderSize))
		})
	}
}

func TestNext_UnboundedAcceptsHugeDeclaredLength(t *testing.T) {
	data := append(aof.EncodeHeader(aof.RecordHeader{Opcode: 1, KeyLen: ^uint64(0)}), "short"...)

	dec := aof.NewDecoder(bytes.NewReader(data), aof.WithMaxPayloadSize(0))
	_, err := dec.Next()
	tst.AssertTrue(t, errors.Is(err, aof.ErrTruncatedPayload), "expected truncation, not an allocation failure")

	pe, _ := aof.AsParseError(err)
	tst.RequireDeepEqual(t, pe.Field, aof.FieldKey)
	tst.RequireDeepEqual(t, pe.Have, uint64(5))
}

func TestNext_LargePayload(t *testing.T) {
	value := bytes.Repeat([]byte("0123456789abcdef"), 1<<17) // 2 MB
	data := aof.AppendRecord(nil, 1, []byte("big"), value)

	rec, err := aof.NewDecoder(bytes.NewReader(data)).Next()
	tst.RequireNoError(t, err)
	tst.AssertTrue(t, bytes.Equal(rec.Value, value), "expected large value to round-trip")
}

func TestNext_ReaderError(t *testing.T) {
	cause := testutil.NewError("disk on fire")
	full := aof.AppendRecord(nil, 1, []byte("abc"), []byte("hello"))

	testCases := []struct {
		name      string
		data      []byte
		wantField aof.Field
	}{
		{"header", nil, aof.FieldNone},
		{"key", full[:aof.HeaderSize+1], aof.FieldKey},
		{"value", full[:aof.HeaderSize+4], aof.FieldValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec := aof.NewDecoder(&testutil.FailingReader{Data: tc.data, Err: cause})
			_, err := dec.Next()
			tst.AssertTrue(t, errors.Is(err, aof.ErrIO), "expected io kind")
			tst.AssertTrue(t, errors.Is(err, cause), "expected cause to unwrap")
			tst.AssertFalse(t, aof.IsCleanEOF(err), "io error is not EOF")

			pe, _ := aof.AsParseError(err)
			tst.RequireDeepEqual(t, pe.Field, tc.wantField)
		})
	}
}

func TestAll_YieldsRecordsThenError(t *testing.T) {
	data := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Put([]byte("b"), []byte("2")).
		Bytes()
	data = append(data, 0x01)

	var keys []string
	var errs []error
	for rec, err := range aof.NewDecoder(bytes.NewReader(data)).All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys = append(keys, string(rec.Key))
	}

	tst.RequireDeepEqual(t, keys, []string{"a", "b"})
	tst.RequireDeepEqual(t, len(errs), 1)
	tst.AssertTrue(t, errors.Is(errs[0], aof.ErrTruncatedHeader), "expected truncated header")
}

func TestAll_CleanEndIsNotYielded(t *testing.T) {
	data := testutil.NewLog().Put([]byte("a"), []byte("1")).Bytes()

	count := 0
	for _, err := range aof.NewDecoder(bytes.NewReader(data)).All() {
		tst.RequireNoError(t, err)
		count++
	}
	tst.RequireDeepEqual(t, count, 1)
}

func TestAll_StopsEarly(t *testing.T) {
	data := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Put([]byte("b"), []byte("2")).
		Put([]byte("c"), []byte("3")).
		Bytes()

	dec := aof.NewDecoder(bytes.NewReader(data))
	for range dec.All() {
		break
	}
	tst.RequireDeepEqual(t, dec.Count(), 1)

	rec, err := dec.Next()
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, string(rec.Key), "b")
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	log := testutil.NewLog()
	for range 200 {
		key := make([]byte, rng.IntN(10_001))
		value := make([]byte, rng.IntN(10_001))
		for i := range key {
			key[i] = byte(rng.UintN(256))
		}
		for i := range value {
			value[i] = byte(rng.UintN(256))
		}
		log.Record(uint8(rng.UintN(256)), key, value)
	}

	dec := aof.NewDecoder(bytes.NewReader(log.Bytes()))
	for i, want := range log.Records() {
		rec, err := dec.Next()
		tst.RequireNoError(t, err)
		tst.AssertTrue(t, rec.Header.Opcode == want.Opcode, fmt.Sprintf("opcode mismatch at record %d", i))
		tst.AssertTrue(t, bytes.Equal(rec.Key, want.Key), "key mismatch")
		tst.AssertTrue(t, bytes.Equal(rec.Value, want.Value), "value mismatch")
	}
	_, err := dec.Next()
	tst.AssertTrue(t, aof.IsCleanEOF(err), "expected clean EOF")
}

func TestNext_BoundCheckedBeforeKeyRead(t *testing.T) {
	data := aof.EncodeHeader(aof.RecordHeader{Opcode: 1, KeyLen: 5, ValueLen: 1 << 30})
	data = append(data, "ab"...)

	dec := aof.NewDecoder(bytes.NewReader(data), aof.WithMaxPayloadSize(1<<20))
	_, err := dec.Next()
	tst.AssertTrue(t, errors.Is(err, aof.ErrPayloadTooLarge), "expected payload too large")

	pe, ok := aof.AsParseError(err)
	tst.AssertTrue(t, ok, "expected ParseError")
	tst.RequireDeepEqual(t, pe.Field, aof.FieldValue)
	tst.RequireDeepEqual(t, dec.Offset(), int64(aof.HeaderSize))
}
