package domain

import "errors"

// Error classes of an analysis run. Concrete errors wrap one of these.
var (
	// ErrConfiguration: missing credential or default collection id. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrLoad: contract file missing, empty or unreadable. Fatal for the run.
	ErrLoad = errors.New("load error")
	// ErrOracleCall: summarization call failed; the summary degrades to a placeholder.
	ErrOracleCall = errors.New("oracle call error")
	// ErrSegmentation: no parseable clauses; redlining is skipped.
	ErrSegmentation = errors.New("segmentation error")
	// ErrRedline: a single clause could not be redlined.
	ErrRedline = errors.New("redline error")
	// ErrWrite: the report could not be persisted.
	ErrWrite = errors.New("write error")
	// ErrRunAborted: unexpected failure that stopped the run.
	ErrRunAborted = errors.New("run aborted")
)
