package scan

import "errors"

// Validation and lookup errors surfaced to API callers.
var (
	// ErrNoRulesAvailable rejects a scan request when no rules exist across all policies.
	ErrNoRulesAvailable = errors.New("cannot start scan: no compliance rules found, upload a policy first")
	// ErrNoActiveDataSource rejects a scan request when no data source is active.
	ErrNoActiveDataSource = errors.New("cannot start scan: no active data source, connect and activate one first")
	// ErrScanAlreadyRunning rejects a scan request while another job holds the run gate.
	ErrScanAlreadyRunning = errors.New("a scan is already running")
	// ErrJobNotFound is returned for status polls on unknown job ids.
	ErrJobNotFound = errors.New("scan job not found")
)
