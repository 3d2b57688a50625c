package flashlog

import "errors"

// Sentinel errors returned by flashlog operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, flashlog.ErrNoEntry) {
//	    // empty log or cursor at the end of the arc
//	}
var (
	// ErrInvalidEntrySize indicates a DataSize whose slot size
	// (DataSize + 4-byte entry header) is not a power of two up to the
	// erase block size, or a partition too small to hold a single slot.
	//
	// Valid data sizes: 4, 12, 28, 60, 124, 252, 508, 1020, 2044, 4092.
	//
	// This is a configuration error; nothing has been written.
	ErrInvalidEntrySize = errors.New("flashlog: invalid entry size")

	// ErrNoEntry indicates an empty log or a cursor with no entry in
	// the requested direction.
	//
	// Returned by Read when the cursor is off the live arc, and by the
	// Goto operations when the log is empty or the cursor is already at
	// the terminal position.
	ErrNoEntry = errors.New("flashlog: no such entry")

	// ErrClosed indicates the [Log] has been closed or was never
	// opened.
	//
	// This is a programming error, distinct from any device failure.
	ErrClosed = errors.New("flashlog: closed")

	// ErrInvalidInput indicates a payload whose length does not equal
	// the log's DataSize.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("flashlog: invalid input")

	// ErrRead indicates the block device failed during a read.
	//
	// The underlying device error is attached. During a recovery scan
	// this aborts Open; during Read the staging buffer contents are
	// undefined.
	ErrRead = errors.New("flashlog: device read failed")

	// ErrWrite indicates the block device failed during a write.
	//
	// In-memory counters were already advanced, so the state no longer
	// matches flash. Treat the session as dead: close and reopen to
	// rebuild state from flash.
	ErrWrite = errors.New("flashlog: device write failed")

	// ErrErase indicates the block device failed during an erase.
	//
	// Same recovery contract as [ErrWrite]: close and reopen.
	ErrErase = errors.New("flashlog: device erase failed")
)
