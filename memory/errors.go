package memory

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrIndexUnavailable means the index provider or one of the collections
	// could not be opened. The store runs disabled.
	ErrIndexUnavailable = goerr.New("memory index unavailable")

	// ErrDisabled is returned by the error-reporting operations of a
	// disabled store.
	ErrDisabled = goerr.New("memory store disabled")

	// ErrStorage wraps a failed insert.
	ErrStorage = goerr.New("memory storage failed")

	// ErrQuery wraps a failed collection query.
	ErrQuery = goerr.New("memory query failed")

	ErrUnknownKind = goerr.New("unknown memory kind")

	// ErrNothingToConsolidate is returned when a consolidation finds no
	// conversations about the topic.
	ErrNothingToConsolidate = goerr.New("no memories to consolidate")
)
