package store

import "errors"

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and parameterizes the backing relational store.
type Config struct {
	// Driver is one of the Driver* constants.
	Driver string `json:"driver" yaml:"driver"`
	// DataDir holds the SQLite database file. Ignored for postgres.
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// DSN is the postgres connection string. Ignored for sqlite.
	DSN string `json:"dsn" yaml:"dsn"`
}

// Config validation errors.
var (
	ErrDriverEmpty   = errors.New("driver must not be empty")
	ErrDriverUnknown = errors.New("unknown driver")
	ErrDSNEmpty      = errors.New("dsn must not be empty for postgres")
)

var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverPostgres: true,
}

// Validate checks that the Config is well-formed, returning a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	if c.Driver == DriverPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	return nil
}
