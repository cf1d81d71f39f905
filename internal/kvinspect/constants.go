package kvinspect

import "github.com/julianstephens/kvinspect/internal/kvinspect/aof"

const (
	ConfigVersion         = 1
	DefaultConfigFileName = "kvinspect.json"
	DefaultAppDir         = ".kvinspect"
	DefaultLogDir         = "logs"
)

// Log file defaults
const (
	DefaultLogFileName   = "kvinspect.log"
	DefaultLogMaxSize    = 100
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
	DefaultLogLevel      = "info"
)

const DefaultMaxPayloadSize = aof.DefaultMaxPayloadSize
