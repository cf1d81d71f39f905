package cli

import (
	"github.com/julianstephens/kvinspect/internal/kvinspect/aof"
	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/replay"
	"github.com/julianstephens/kvinspect/internal/kvinspect/report"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// AofCmd decodes an append-only log and prints every record.
type AofCmd struct {
	Path               string `arg:"" help:"Path to the log (.gz, .zst and .br are decompressed)" type:"path"`
	AllowTruncatedTail bool   `help:"Exit successfully when the log ends mid-record"`

	PayloadOpts `embed:""`
	ReportOpts  `embed:""`
}

func (c *AofCmd) Run(env *Env) error {
	sink, err := c.sink(env)
	if err != nil {
		return fail("aof", err)
	}
	h := report.NewHeader("aof", c.Path)
	lg := logger.With(env.Logger, "run", h.RunID)

	res, err := replayLog(env, lg, c.Path, c.PayloadOpts, func(rec aof.Record, kind op.Kind) error {
		return sink.Record(rec, kind)
	}, func() error { return sink.Begin(h) })
	if res == nil {
		return fail("aof", err)
	}

	sum := resultSummary(res, err)
	if endErr := sink.End(sum); endErr != nil && err == nil {
		err = endErr
	}
	if err != nil && !(c.AllowTruncatedTail && res.TailStatus == replay.TailStatusTruncated) {
		return fail("aof", err)
	}
	return nil
}

// replayLog opens path and replays it. begin runs once the log is open. A nil
// result means the log could not be opened or the options were invalid; otherwise
// the result is returned even when decoding stopped early.
func replayLog(env *Env, lg logger.Logger, path string, po PayloadOpts, visit replay.VisitFunc, begin func() error) (*replay.Result, error) {
	limit, err := po.limit(env)
	if err != nil {
		return nil, err
	}
	mapping, err := env.Options.Mapping()
	if err != nil {
		return nil, err
	}

	rc, err := aof.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close() // nolint:errcheck

	if begin != nil {
		if err := begin(); err != nil {
			return nil, err
		}
	}

	dec := aof.NewDecoder(rc, aof.WithMaxPayloadSize(limit), aof.WithLogger(lg))
	return replay.Replay(dec, mapping, lg, visit)
}

func resultSummary(res *replay.Result, err error) report.Summary {
	sum := report.Summary{
		Records: res.Records,
		Puts:    res.Puts,
		Deletes: res.Deletes,
		Unknown: res.Unknown,
		Bytes:   res.Bytes,
		Tail:    res.TailStatus.String(),
	}
	if err != nil {
		sum.Error = err.Error()
	}
	return sum
}
