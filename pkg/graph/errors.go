package graph

import "errors"

// Sentinel errors for the abstract error kinds in spec.md §7. Checked with
// errors.Is/errors.As; wrapped with fmt.Errorf("pkg: ...: %w", err) at each
// call site per the teacher's convention.
var (
	// ErrDuplicateDocument is returned by append_doc when doc_id already
	// exists in the graph. Fatal to the call; no state change.
	ErrDuplicateDocument = errors.New("graph: document id already exists")

	// ErrAnalyzerUnavailable is returned when the parser is unreachable for
	// all chunks. Reported; no state change.
	ErrAnalyzerUnavailable = errors.New("graph: analyzer unavailable")

	// ErrAnalyzerTimeout is returned when a chunk's retried parser RPC still
	// exceeds its deadline.
	ErrAnalyzerTimeout = errors.New("graph: analyzer timeout")

	// ErrIDSpaceExhausted is returned when an EID or AID allocation would
	// overflow its bit width. Fatal; snapshot not written.
	ErrIDSpaceExhausted = errors.New("graph: id space exhausted")

	// ErrSchemaMismatch is returned when an on-disk snapshot cannot be
	// parsed. The load returns no graph; the caller decides whether to
	// initialize empty or abort.
	ErrSchemaMismatch = errors.New("graph: schema mismatch")

	// ErrInvariantViolation is returned when a post-merge invariant (e.g. a
	// relation referencing an unknown subject) is violated. Fatal; discards
	// the in-memory graph without persisting.
	ErrInvariantViolation = errors.New("graph: invariant violation")
)
