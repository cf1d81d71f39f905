package kvinspect

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/julianstephens/go-utils/helpers"
	"github.com/julianstephens/go-utils/jsonutil"

	"github.com/julianstephens/kvinspect/internal/kvinspect/op"
	"github.com/julianstephens/kvinspect/internal/kvinspect/report"
	"github.com/julianstephens/kvinspect/internal/kvinspect/store"
)

// Options is the persisted configuration. CLI flags override individual fields;
// nothing here has a built-in path default, the store path must be supplied.
type Options struct {
	Version int `json:"version"`

	// StorePath is the store directory to inspect.
	StorePath string `json:"store_path,omitempty"`

	// Domains lists the store domains in dump order.
	Domains []string `json:"domains,omitempty"`

	// MaxPayloadSize bounds each declared key or value length in the log; 0 disables the bound.
	MaxPayloadSize uint64 `json:"max_payload_size"`

	// Format is the report format, "text" or "json".
	Format string `json:"format,omitempty"`

	// Opcodes maps log opcodes to operations, e.g. {"1": "put", "2": "delete"}.
	Opcodes map[string]string `json:"opcodes,omitempty"`

	// File-based logging configuration
	LogDir        string `json:"log_dir,omitempty"`
	LogMaxSize    int    `json:"log_max_size"`
	LogMaxBackups int    `json:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days"`
}

// DefaultOptions returns Options with default settings.
func DefaultOptions() *Options {
	return &Options{
		Version:        ConfigVersion,
		Domains:        store.DefaultDomains(),
		MaxPayloadSize: DefaultMaxPayloadSize,
		Opcodes:        op.DefaultMapping().Entries(),
		Format:         string(report.FormatText),
		LogMaxSize:     DefaultLogMaxSize,
		LogMaxBackups:  DefaultLogMaxBackups,
		LogMaxAgeDays:  DefaultLogMaxAgeDays,
	}
}

// LoadOptions reads a config file over the defaults. Unknown fields are rejected.
func LoadOptions(path string) (*Options, error) {
	if !helpers.Exists(path) {
		return nil, &ConfigError{Kind: ConfigErrorKindNotFound, Path: path, Err: fs.ErrNotExist}
	}

	o := DefaultOptions()
	// decoding merges into a non-nil map, so a configured table must start empty
	o.Opcodes = nil
	if err := jsonutil.ReadFileStrict(path, o); err != nil {
		return nil, &ConfigError{Kind: ConfigErrorKindDecode, Path: path, Err: err}
	}
	if len(o.Opcodes) == 0 {
		o.Opcodes = op.DefaultMapping().Entries()
	}
	if o.Version > ConfigVersion {
		return nil, &ConfigError{
			Kind: ConfigErrorKindUnsupportedVersion,
			Path: path,
			Err:  fmt.Errorf("config version %d is not supported", o.Version),
		}
	}
	if err := o.Validate(); err != nil {
		return nil, &ConfigError{Kind: ConfigErrorKindInvalid, Path: path, Err: err}
	}
	return o, nil
}

// Save writes the options to path atomically. It refuses to overwrite an existing file.
func (o *Options) Save(path string) error {
	if helpers.Exists(path) {
		return &ConfigError{
			Kind: ConfigErrorKindAlreadyExists,
			Path: path,
			Err:  fmt.Errorf("config already exists at %s", path),
		}
	}
	if err := helpers.Ensure(filepath.Dir(path), true); err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Path: path, Err: err}
	}

	data, err := jsonutil.Marshal(o)
	if err != nil {
		return &ConfigError{Kind: ConfigErrorKindEncode, Path: path, Err: err}
	}
	if err := helpers.AtomicFileWrite(path, data); err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Path: path, Err: err}
	}
	return nil
}

// Validate checks cross-field constraints.
func (o *Options) Validate() error {
	if len(o.Domains) == 0 {
		return fmt.Errorf("%w: domains must not be empty", ErrConfigInvalid)
	}
	seen := make([]string, 0, len(o.Domains))
	for _, d := range o.Domains {
		if d == "" {
			return fmt.Errorf("%w: empty domain name", ErrConfigInvalid)
		}
		if slices.Contains(seen, d) {
			return fmt.Errorf("%w: duplicate domain %q", ErrConfigInvalid, d)
		}
		seen = append(seen, d)
	}
	if _, err := o.Mapping(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if _, err := report.ParseFormat(o.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if o.LogMaxSize < 0 || o.LogMaxBackups < 0 || o.LogMaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation limits must be >= 0", ErrConfigInvalid)
	}
	return nil
}

// Mapping parses the configured opcode table.
func (o *Options) Mapping() (op.Mapping, error) {
	if len(o.Opcodes) == 0 {
		return op.DefaultMapping(), nil
	}
	return op.ParseMapping(o.Opcodes)
}
