package replay_test

import (
	"bytes"
	"errors"
	"testing"

	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/replay"
	"github.com/julianstephens/kvinspect/internal/testutil"
)

func decoder(l *testutil.Log, opts ...aof.DecoderOption) *aof.Decoder {
	return aof.NewDecoder(bytes.NewReader(l.Bytes()), opts...)
}

func TestReplay_LastWriterWins(t *testing.T) {
	log := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Put([]byte("b"), []byte("2")).
		Put([]byte("a"), []byte("3")).
		Delete([]byte("b")).
		Record(0x7E, []byte("c"), []byte("ignored"))

	result, err := replay.Replay(decoder(log), op.DefaultMapping(), nil, nil)
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, result.TailStatus, replay.TailStatusValid)
	tst.RequireDeepEqual(t, result.Records, 5)
	tst.RequireDeepEqual(t, result.Puts, 3)
	tst.RequireDeepEqual(t, result.Deletes, 1)
	tst.RequireDeepEqual(t, result.Unknown, 1)
	tst.RequireDeepEqual(t, result.LastValid, int64(len(log.Bytes())))

	a, ok := result.Table.Get([]byte("a"))
	tst.AssertTrue(t, ok, "expected a")
	tst.RequireDeepEqual(t, string(a.Value), "3")

	b, ok := result.Table.Get([]byte("b"))
	tst.AssertTrue(t, ok, "expected tombstone for b")
	tst.AssertTrue(t, b.Tombstone, "expected b deleted")

	_, ok = result.Table.Get([]byte("c"))
	tst.AssertFalse(t, ok, "unknown opcode must not be applied")
	tst.RequireDeepEqual(t, result.Table.Keys(), []string{"a", "b"})
}

func TestReplay_CustomMapping(t *testing.T) {
	log := testutil.NewLog().
		Record(0x10, []byte("k"), []byte("v")).
		Record(0x11, []byte("k"), nil)

	mapping := op.Mapping{0x10: op.KindPut, 0x11: op.KindDelete}
	result, err := replay.Replay(decoder(log), mapping, nil, nil)
	tst.RequireNoError(t, err)

	e, ok := result.Table.Get([]byte("k"))
	tst.AssertTrue(t, ok && e.Tombstone, "expected k deleted by custom opcode")
	tst.RequireDeepEqual(t, e.Offset, int64(aof.HeaderSize+2))
}

func TestReplay_TruncatedTail(t *testing.T) {
	log := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Raw(0x01, 0x05, 0x00)

	result, err := replay.Replay(decoder(log), nil, nil, nil)
	tst.AssertTrue(t, errors.Is(err, aof.ErrTruncatedHeader), "expected truncation error")
	tst.RequireDeepEqual(t, result.TailStatus, replay.TailStatusTruncated)
	tst.RequireDeepEqual(t, result.Records, 1)
	tst.RequireDeepEqual(t, result.LastValid, int64(aof.HeaderSize+2))

	_, ok := result.Table.Get([]byte("a"))
	tst.AssertTrue(t, ok, "records before the tear are kept")
}

func TestReplay_PayloadTooLargeIsCorrupt(t *testing.T) {
	log := testutil.NewLog().Put([]byte("a"), bytes.Repeat([]byte("v"), 64))

	result, err := replay.Replay(decoder(log, aof.WithMaxPayloadSize(16)), nil, nil, nil)
	tst.AssertTrue(t, errors.Is(err, aof.ErrPayloadTooLarge), "expected too large")
	tst.RequireDeepEqual(t, result.TailStatus, replay.TailStatusCorrupt)
	tst.RequireDeepEqual(t, result.Records, 0)
}

func TestReplay_VisitSeesEveryRecord(t *testing.T) {
	log := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Record(0x33, []byte("x"), nil).
		Delete([]byte("a"))

	var kinds []op.Kind
	_, err := replay.Replay(decoder(log), nil, nil, func(_ aof.Record, kind op.Kind) error {
		kinds = append(kinds, kind)
		return nil
	})
	tst.RequireNoError(t, err)
	tst.RequireDeepEqual(t, kinds, []op.Kind{op.KindPut, op.KindUnknown, op.KindDelete})
}

func TestReplay_VisitErrorStops(t *testing.T) {
	log := testutil.NewLog().
		Put([]byte("a"), []byte("1")).
		Put([]byte("b"), []byte("2"))
	stop := testutil.NewError("stop")

	result, err := replay.Replay(decoder(log), nil, nil, func(rec aof.Record, _ op.Kind) error {
		if string(rec.Key) == "b" {
			return stop
		}
		return nil
	})
	tst.AssertTrue(t, errors.Is(err, stop), "expected visit error")
	tst.RequireDeepEqual(t, result.Records, 1)
}

func TestTable_Snapshot(t *testing.T) {
	table := replay.NewTable()
	tst.RequireNoError(t, table.Apply(op.Op{Kind: op.KindPut, Key: []byte("k"), Value: []byte("v")}, 0))

	snap := table.Snapshot()
	snap["k"].Value[0] = 'X'

	e, _ := table.Get([]byte("k"))
	tst.RequireDeepEqual(t, string(e.Value), "v")
}

func TestTable_ApplyErrors(t *testing.T) {
	table := replay.NewTable()

	err := table.Apply(op.Op{Kind: op.KindPut}, 0)
	tst.AssertTrue(t, errors.Is(err, replay.ErrNilKey), "expected nil key error")

	err = table.Apply(op.Op{Kind: op.KindUnknown, Key: []byte("k")}, 0)
	tst.AssertTrue(t, errors.Is(err, replay.ErrInvalidKind), "expected invalid kind error")
}

func TestTailStatus_String(t *testing.T) {
	tst.RequireDeepEqual(t, replay.TailStatusValid.String(), "valid")
	tst.RequireDeepEqual(t, replay.TailStatusTruncated.String(), "truncated")
	tst.RequireDeepEqual(t, replay.TailStatusCorrupt.String(), "corrupt")
}
