// Package flashlog implements a fixed-capacity circular event log on
// block-erasable NOR flash.
//
// The log maps fixed-size entries onto an array of physical slots
// inside one storage partition. Nothing mutable is persisted besides
// the entries themselves: a region header is written once at creation,
// and every append costs exactly one flash write. All other state is
// rebuilt by scanning the slot headers when the log is opened, so the
// log survives reboots and reflashing without any index maintenance.
//
// When the log is full, the next append erases one full erase block of
// the oldest entries (flash cannot be erased in smaller units) and
// reuses those slots.
//
// # Basic Usage
//
//	log, err := flashlog.Open(region, flashlog.Options{DataSize: 252})
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//
//	// Append
//	seq, err := log.Append(payload) // len(payload) == 252
//
//	// Traverse oldest to newest
//	for err := log.GotoOldest(); err == nil; err = log.GotoNext() {
//	    entry, err := log.Read()
//	    ...
//	}
//
// # Concurrency
//
// A Log is single-threaded: it assumes exclusive ownership of its
// partition and its in-memory state from Open to Close. Callers using
// it from more than one goroutine must serialize the whole
// open/append/read/navigate/close sequence externally.
//
// Entry data returned by [Log.Read] aliases an internal staging buffer
// and is overwritten by the next Append or Read.
//
// # Error Handling
//
// Configuration errors ([ErrInvalidEntrySize],
// [blockdev.ErrPartitionNotFound]) are detected before any mutation.
// Device failures ([ErrRead], [ErrWrite], [ErrErase]) leave the
// in-memory state unreliable; the recovery path is to close and
// reopen, which re-derives truth from flash.
package flashlog
