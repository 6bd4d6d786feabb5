package config

// Fuzz defaults.
const (
	DefaultIterations      = 1000
	DefaultSeed            = 0
	DefaultMaxPatternSize  = 0
	DefaultMaxPatternDepth = 0
)

// Corpus defaults.
const (
	DefaultCorpusPath = "queryfuzz-corpus.yaml"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Observability defaults.
const (
	DefaultSampleRatio = 1.0
)

const (
	configName = ".queryfuzz"
	envPrefix  = "QUERYFUZZ"
)
