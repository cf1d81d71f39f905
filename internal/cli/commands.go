package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/julianstephens/go-utils/cliutil"

	"github.com/julianstephens/kvinspect/internal/kvinspect"
	"github.com/julianstephens/kvinspect/internal/kvinspect/report"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
	"github.com/julianstephens/kvinspect/internal/logger"
)

var (
	// ErrFindings is returned by check when the log and the store disagree.
	ErrFindings = errors.New("cross-check reported findings")
	// ErrNoStore is returned when neither --store nor the config names a store.
	ErrNoStore = errors.New("no store path given (use --store or store_path in the config)")
)

// Env carries what every command needs. It is bound into kong's Run.
type Env struct {
	Logger  logger.Logger
	Options *kvinspect.Options
	Out     io.Writer
}

// NewEnv fills unset fields with defaults.
func NewEnv(lg logger.Logger, opts *kvinspect.Options, out io.Writer) *Env {
	if opts == nil {
		opts = kvinspect.DefaultOptions()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Env{Logger: logger.OrNop(lg), Options: opts, Out: out}
}

// LoadOptions reads the config file at path, or returns defaults when path is empty.
func LoadOptions(path string) (*kvinspect.Options, error) {
	if path == "" {
		return kvinspect.DefaultOptions(), nil
	}
	return kvinspect.LoadOptions(path)
}

// ReportOpts are the output flags shared by every reporting command.
type ReportOpts struct {
	Format      string `help:"Report format (text, json); defaults to the config value" short:"f"`
	MaxValueLen int    `help:"Clip rendered values to this many bytes (0 prints them whole)" default:"0"`
	Quiet       bool   `help:"Print only the summary"                                          short:"q"`
	Pretty      bool   `help:"Indent JSON output"`
	Color       bool   `help:"Colorize indented JSON output"`
}

func (o ReportOpts) sink(env *Env) (report.Sink, error) {
	raw := o.Format
	if raw == "" {
		raw = env.Options.Format
	}
	format, err := report.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return report.New(env.Out, report.Options{
		Format:      format,
		MaxValueLen: o.MaxValueLen,
		Quiet:       o.Quiet,
		Pretty:      o.Pretty,
		Color:       o.Color,
	})
}

// StoreOpts locate the store and select its domains.
type StoreOpts struct {
	Store   string   `help:"Path to the store directory" type:"path" envvar:"KVINSPECT_STORE"`
	Domains []string `help:"Domains to read, in order; defaults to the config value" sep:","`
}

func (o StoreOpts) open(env *Env) (*store.PebbleStore, error) {
	path := o.Store
	if path == "" {
		path = env.Options.StorePath
	}
	if path == "" {
		return nil, ErrNoStore
	}
	domains := o.Domains
	if len(domains) == 0 {
		domains = env.Options.Domains
	}
	return store.Open(path, store.Options{
		Domains: slices.Clone(domains),
		Logger:  env.Logger,
	})
}

// PayloadOpts bound declared key and value lengths in the log.
type PayloadOpts struct {
	MaxPayload string `help:"Largest accepted key or value length, e.g. 64MiB; defaults to the config value"`
	Unbounded  bool   `help:"Accept any declared length"`
}

func (o PayloadOpts) limit(env *Env) (uint64, error) {
	if o.Unbounded {
		return 0, nil
	}
	if o.MaxPayload == "" {
		return env.Options.MaxPayloadSize, nil
	}
	n, err := humanize.ParseBytes(o.MaxPayload)
	if err != nil {
		return 0, fmt.Errorf("invalid --max-payload %q: %w", o.MaxPayload, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid --max-payload %q: use --unbounded to disable the limit", o.MaxPayload)
	}
	return n, nil
}

// fail prints err for the user and returns it so kong sets the exit status.
func fail(cmd string, err error) error {
	cliutil.PrintError(fmt.Sprintf("%s: %v", cmd, err))
	return err
}
