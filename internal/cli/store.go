package cli

import (
	"context"

	"github.com/julianstephens/kvinspect/internal/kvinspect/report"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
	"github.com/julianstephens/kvinspect/internal/logger"
)

// DumpCmd prints every pair of every domain, default domain first.
type DumpCmd struct {
	StoreOpts  `embed:""`
	ReportOpts `embed:""`
}

func (c *DumpCmd) Run(ctx context.Context, env *Env) error {
	sink, err := c.sink(env)
	if err != nil {
		return fail("dump", err)
	}
	kv, err := c.open(env)
	if err != nil {
		return fail("dump", err)
	}
	defer kv.Close() // nolint:errcheck

	h := report.NewHeader("dump", kv.Path())
	lg := logger.With(env.Logger, "run", h.RunID)
	if err := sink.Begin(h); err != nil {
		return fail("dump", err)
	}

	var sum report.Summary
	for _, domain := range kv.Domains() {
		err := kv.Scan(ctx, domain, func(key, value []byte) error {
			sum.Pairs++
			return sink.Pair(domain, key, value)
		})
		if err != nil {
			lg.Error("dump stopped", err, "domain", domain, "pairs", sum.Pairs)
			sum.Error = err.Error()
			_ = sink.End(sum)
			return fail("dump", err)
		}
	}
	lg.Info("dump complete", "pairs", sum.Pairs, "domains", len(kv.Domains()))
	if err := sink.End(sum); err != nil {
		return fail("dump", err)
	}
	return nil
}

// StatsCmd prints key counts and byte totals per domain.
type StatsCmd struct {
	StoreOpts  `embed:""`
	ReportOpts `embed:""`
}

func (c *StatsCmd) Run(ctx context.Context, env *Env) error {
	sink, err := c.sink(env)
	if err != nil {
		return fail("stats", err)
	}
	kv, err := c.open(env)
	if err != nil {
		return fail("stats", err)
	}
	defer kv.Close() // nolint:errcheck

	if err := sink.Begin(report.NewHeader("stats", kv.Path())); err != nil {
		return fail("stats", err)
	}

	var sum report.Summary
	for _, domain := range kv.Domains() {
		st, err := store.Stat(ctx, kv, domain)
		if err != nil {
			return fail("stats", err)
		}
		sum.Pairs += int(st.Keys)
		if err := sink.Stats(st); err != nil {
			return fail("stats", err)
		}
	}
	if err := sink.End(sum); err != nil {
		return fail("stats", err)
	}
	return nil
}
