package cli

import (
	"context"

	"github.com/julianstephens/kvinspect/internal/kvinspect/check"
	"github.com/julianstephens/kvinspect/internal/kvinspect/replay"
	"github.com/julianstephens/kvinspect/internal/kvinspect/report"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// CheckCmd replays a log and compares its final state with one store domain.
type CheckCmd struct {
	Path               string `arg:"" help:"Path to the log" type:"path"`
	Domain             string `help:"Store domain the log writes to" default:"default"`
	ReportUnexpected   bool   `help:"Also report store keys the log never wrote"`
	AllowTruncatedTail bool   `help:"Check the decoded prefix of a log that ends mid-record"`

	StoreOpts   `embed:""`
	PayloadOpts `embed:""`
	ReportOpts  `embed:""`
}

func (c *CheckCmd) Run(ctx context.Context, env *Env) error {
	sink, err := c.sink(env)
	if err != nil {
		return fail("check", err)
	}
	kv, err := c.open(env)
	if err != nil {
		return fail("check", err)
	}
	defer kv.Close() // nolint:errcheck

	h := report.NewHeader("check", c.Path)
	lg := logger.With(env.Logger, "run", h.RunID)

	res, err := replayLog(env, lg, c.Path, c.PayloadOpts, nil, func() error { return sink.Begin(h) })
	if res == nil {
		return fail("check", err)
	}
	sum := resultSummary(res, err)
	if err != nil && !(c.AllowTruncatedTail && res.TailStatus == replay.TailStatusTruncated) {
		_ = sink.End(sum)
		return fail("check", err)
	}

	domain := c.Domain
	if domain == "" {
		domain = store.DefaultDomain
	}
	cs, err := check.Run(ctx, kv, domain, res.Table, check.Options{
		ReportUnexpected: c.ReportUnexpected,
		Logger:           lg,
	}, sink.Finding)
	if err != nil {
		sum.Error = err.Error()
		_ = sink.End(sum)
		return fail("check", err)
	}
	sum.Check = cs
	if err := sink.End(sum); err != nil {
		return fail("check", err)
	}
	if cs.Findings > 0 {
		return ErrFindings
	}
	return nil
}
