// Package config implements the configuration of the server. Every setting is a
// named variable with a default value that can be overridden by an environment
// variable and by a command line flag, in this order.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/datarhei/jsondir/config/value"
	"github.com/datarhei/jsondir/config/vars"
	"github.com/datarhei/jsondir/log"

	haikunator "github.com/atrox/haikunatorgo/v2"
	"github.com/google/uuid"
)

// Data is the actual configuration data for the server
type Data struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Root    string `json:"root"`
	TLS     struct {
		CertFile string `json:"cert_file"`
		KeyFile  string `json:"key_file"`
	} `json:"tls"`
	Readiness struct {
		Skip     bool   `json:"skip"`
		Attempts int    `json:"attempts"`
		Interval int    `json:"interval_sec"` // seconds
		Pattern  string `json:"pattern"`
	} `json:"readiness"`
	Log struct {
		Level       string `json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=silent"`
		Dir         string `json:"dir"`
		FilePattern string `json:"file_pattern"`
	} `json:"log"`
	Storage struct {
		MimeTypes string `json:"mimetypes_file"`
	} `json:"storage"`
	Metrics struct {
		Address string `json:"address"`
	} `json:"metrics"`
	Debug struct {
		AutoMaxProcs bool   `json:"auto_max_procs"`
		AgentAddress string `json:"agent_address"`
	} `json:"debug"`
}

// Config is a wrapper for Data
type Config struct {
	vars vars.Variables

	Data
}

// New returns a Config which is initialized with its default values
func New() *Config {
	config := &Config{}

	config.init()

	return config
}

func (d *Config) init() {
	d.vars.Register(value.NewString(&d.ID, uuid.New().String()), "id", "JSONDIR_ID", nil, "ID for this instance", true, false)
	d.vars.Register(value.NewString(&d.Name, haikunator.New().Haikunate()), "name", "JSONDIR_NAME", nil, "A human readable name for this instance", false, false)
	d.vars.Register(value.NewAddress(&d.Address, ":8000"), "address", "JSONDIR_ADDRESS", nil, "HTTP(S) listening address", true, false)
	d.vars.Register(value.NewMustDir(&d.Root, "."), "root", "JSONDIR_ROOT", nil, "Directory to serve as JSON listings", true, false)

	// TLS
	d.vars.Register(value.NewFile(&d.TLS.CertFile, ""), "tls.cert_file", "JSONDIR_TLS_CERTFILE", nil, "Path to certificate file in PEM format, enables HTTPS", false, false)
	d.vars.Register(value.NewFile(&d.TLS.KeyFile, ""), "tls.key_file", "JSONDIR_TLS_KEYFILE", nil, "Path to key file in PEM format, defaults to the certificate file", false, false)

	// Readiness
	d.vars.Register(value.NewBool(&d.Readiness.Skip, false), "readiness.skip", "JSONDIR_READINESS_SKIP", nil, "Start without waiting for the sync process", false, false)
	d.vars.Register(value.NewInt(&d.Readiness.Attempts, 10, 1), "readiness.attempts", "JSONDIR_READINESS_ATTEMPTS", nil, "Number of checks for the sync process before giving up", false, false)
	d.vars.Register(value.NewInt(&d.Readiness.Interval, 60, 0), "readiness.interval_sec", "JSONDIR_READINESS_INTERVAL_SEC", nil, "Seconds between two checks for the sync process", false, false)
	d.vars.Register(value.NewRegexp(&d.Readiness.Pattern, "(?i)google.*drive"), "readiness.pattern", "JSONDIR_READINESS_PATTERN", nil, "Regular expression matching the name or command line of the sync process", true, false)

	// Log
	d.vars.Register(value.NewLogLevel(&d.Log.Level, "info"), "log.level", "JSONDIR_LOG_LEVEL", nil, "Loglevel: silent, error, warn, info, debug", false, false)
	d.vars.Register(value.NewDir(&d.Log.Dir, defaultLogDir()), "log.dir", "JSONDIR_LOG_DIR", nil, "Directory for the daily log files, empty for no log files", false, false)
	d.vars.Register(value.NewStrftime(&d.Log.FilePattern, "directory_server_%Y%m%d.log"), "log.file_pattern", "JSONDIR_LOG_FILE_PATTERN", nil, "strftime pattern for the name of the log files", false, false)

	// Storage
	d.vars.Register(value.NewFile(&d.Storage.MimeTypes, ""), "storage.mimetypes_file", "JSONDIR_STORAGE_MIMETYPES_FILE", nil, "Path to file with mime-types", false, false)

	// Metrics
	d.vars.Register(value.NewAddress(&d.Metrics.Address, ""), "metrics.address", "JSONDIR_METRICS_ADDRESS", nil, "Listening address for /metrics and /ping, empty to disable", false, false)

	// Debug
	d.vars.Register(value.NewBool(&d.Debug.AutoMaxProcs, true), "debug.auto_max_procs", "JSONDIR_DEBUG_AUTOMAXPROCS", nil, "Set GOMAXPROCS according to the CPU quota", false, false)
	d.vars.Register(value.NewAddress(&d.Debug.AgentAddress, ""), "debug.agent_address", "JSONDIR_DEBUG_AGENTADDRESS", nil, "Listening address for the gops agent, empty to disable", false, false)
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, "directory_server_logs")
}

// Set sets the variable with the given name from its string representation. Values
// set this way are not replaced by Merge.
func (d *Config) Set(name, val string) error {
	return d.vars.Set(name, val)
}

// Get returns the string representation of the variable with the given name.
func (d *Config) Get(name string) (string, error) {
	return d.vars.Get(name)
}

// Describe returns the details of a variable, e.g. to build the help text of a flag.
func (d *Config) Describe(name string) (vars.Variable, bool) {
	return d.vars.Describe(name)
}

// Merge merges the values of the known environment variables into the configuration
func (d *Config) Merge() {
	d.vars.Merge()
}

// Validate validates the current state of the Config for completeness and sanity. Errors are
// written to the log. Use resetLogs to indicate to reset the logs prior validation.
func (d *Config) Validate(resetLogs bool) {
	if resetLogs {
		d.vars.ResetLogs()
	}

	d.vars.Validate()

	if len(d.TLS.KeyFile) != 0 && len(d.TLS.CertFile) == 0 {
		d.vars.Log("error", "tls.key_file", "a key file requires a certificate file")
	}

	if len(d.Metrics.Address) != 0 && d.Metrics.Address == d.Address {
		d.vars.Log("error", "metrics.address", "must be different from the listening address")
	}
}

// Messages calls logger for each message from merging and validating the configuration.
func (d *Config) Messages(logger func(level string, v vars.Variable, message string)) {
	d.vars.Messages(logger)
}

// HasErrors returns whether there are some error messages in the log.
func (d *Config) HasErrors() bool {
	return d.vars.HasErrors()
}

// Overrides returns a list of configuration value names that have been overridden
// by an environment variable or a flag.
func (d *Config) Overrides() []string {
	return d.vars.Overrides()
}

// LogLevel returns the parsed log level.
func (d *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(d.Log.Level)
	if err != nil {
		return log.Linfo
	}

	return level
}

// ReadinessInterval returns the time between two readiness checks.
func (d *Config) ReadinessInterval() time.Duration {
	return time.Duration(d.Readiness.Interval) * time.Second
}

// ReadinessPattern returns the compiled readiness pattern.
func (d *Config) ReadinessPattern() (*regexp.Regexp, error) {
	return regexp.Compile(d.Readiness.Pattern)
}

// KeyFile returns the path to the private key. Without an explicit key file
// the key is expected in the certificate file.
func (d *Config) KeyFile() string {
	if len(d.TLS.KeyFile) != 0 {
		return d.TLS.KeyFile
	}

	return d.TLS.CertFile
}
