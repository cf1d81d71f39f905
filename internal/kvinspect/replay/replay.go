package replay

import (
	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/logger"
)

type TailStatus int

const (
	// TailStatusValid indicates the log ended exactly on a record boundary.
	TailStatusValid TailStatus = iota
	// TailStatusTruncated indicates the log was cut off mid-record, e.g. the writer crashed.
	TailStatusTruncated
	// TailStatusCorrupt indicates a record could not be decoded for another reason.
	TailStatusCorrupt
)

func (ts TailStatus) String() string {
	switch ts {
	case TailStatusValid:
		return "valid"
	case TailStatusTruncated:
		return "truncated"
	case TailStatusCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// VisitFunc observes each decoded record and its resolved kind before it is applied.
type VisitFunc func(rec aof.Record, kind op.Kind) error

type Result struct {
	Table      *Table
	Records    int
	Puts       int
	Deletes    int
	Unknown    int
	Bytes      int64
	TailStatus TailStatus
	// LastValid is the offset just past the last fully decoded record.
	LastValid int64
}

// Replay drains dec into a fresh Table, resolving opcodes through mapping. Records
// with unknown opcodes are counted and skipped. On a framing error the partial
// result is returned together with the decoder's error; whether a truncated tail
// is acceptable is the caller's decision.
func Replay(dec *aof.Decoder, mapping op.Mapping, lg logger.Logger, visit VisitFunc) (*Result, error) {
	lg = logger.OrNop(lg)
	if mapping == nil {
		mapping = op.DefaultMapping()
	}

	result := &Result{Table: NewTable()}

	lg.Info("starting AOF replay")
	for {
		rec, err := dec.Next()
		if err != nil {
			if aof.IsCleanEOF(err) {
				break
			}
			if aof.IsTruncation(err) {
				result.TailStatus = TailStatusTruncated
				lg.Warn("AOF tail truncated", "records", result.Records, "last_valid", result.LastValid, "reason", err.Error())
			} else {
				result.TailStatus = TailStatusCorrupt
				lg.Error("AOF decode failed", err, "records", result.Records, "last_valid", result.LastValid)
			}
			return result, err
		}

		kind := mapping.Resolve(rec.Header.Opcode)
		if visit != nil {
			if err := visit(rec, kind); err != nil {
				return result, err
			}
		}

		result.Records++
		result.Bytes += rec.Size()
		result.LastValid = rec.Offset + rec.Size()

		switch kind {
		case op.KindPut:
			result.Puts++
		case op.KindDelete:
			result.Deletes++
		default:
			result.Unknown++
			lg.Debug("skipping unknown opcode", "opcode", rec.Header.Opcode, "offset", rec.Offset)
			continue
		}

		o := op.Op{Kind: kind, Opcode: rec.Header.Opcode, Key: rec.Key, Value: rec.Value}
		if err := result.Table.Apply(o, rec.Offset); err != nil {
			return result, err
		}
	}

	lg.Info("AOF replay complete",
		"records", result.Records,
		"puts", result.Puts,
		"deletes", result.Deletes,
		"unknown", result.Unknown,
		"keys", result.Table.Len(),
	)
	return result, nil
}
