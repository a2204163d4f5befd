package context

import "errors"

// CTXKey - a type for context keys
type CTXKey string

const (
	// EnvironmentCTXKey - the key used for the running environment
	EnvironmentCTXKey CTXKey = "environment"
	// DebugLoggingCTXKey - context key for debug logging
	DebugLoggingCTXKey CTXKey = "debug_logging"
	// LogLevelCTXKey - context key for application logging level
	LogLevelCTXKey CTXKey = "log_level"
	// LogWriterCTXKey - context key for overriding the log writer
	LogWriterCTXKey CTXKey = "log_writer"
	// LoggerCTXKey - context key for the application logger
	LoggerCTXKey CTXKey = "logger"

	// VersionCTXKey - context key for version of code
	VersionCTXKey CTXKey = "version"
	// CommitCTXKey - context key for the commit of the code
	CommitCTXKey CTXKey = "commit"
	// BuildTimeCTXKey - context key for the build time of code
	BuildTimeCTXKey CTXKey = "build_time"

	// SrvAddrCTXKey - context key for the address a service binds to
	SrvAddrCTXKey CTXKey = "srv_addr"
	// OpsAddrCTXKey - context key for the operational http listener address
	OpsAddrCTXKey CTXKey = "ops_addr"
	// BankNameCTXKey - context key for the name of the bank a service fronts
	BankNameCTXKey CTXKey = "bank_name"
	// BankAddressesCTXKey - context key for the static bank name to address map
	BankAddressesCTXKey CTXKey = "bank_addresses"
	// DataDirCTXKey - context key for the directory holding durable state
	DataDirCTXKey CTXKey = "data_dir"

	// CommitTimeoutCTXKey - context key for the per phase commit deadline
	CommitTimeoutCTXKey CTXKey = "commit_timeout"
	// AbortTimeoutCTXKey - context key for the abort call deadline
	AbortTimeoutCTXKey CTXKey = "abort_timeout"
	// TokenTTLCTXKey - context key for the session token lifetime
	TokenTTLCTXKey CTXKey = "token_ttl"

	// SessionCTXKey - context key for the authenticated session resolved by middleware
	SessionCTXKey CTXKey = "session"
)

var (
	// ErrNotInContext - error you get when you ask for something not in the context.
	ErrNotInContext = errors.New("failed to get value from context")
	// ErrValueWrongType - error you get when you ask for something, and it is not the type you expected
	ErrValueWrongType = errors.New("context value of wrong type")
)
