package flashlog

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/flashlog/pkg/blockdev"
)

// Log is an open circular log session.
//
// All state besides the entries themselves lives here in memory; it is
// rebuilt from flash by [Open] and discarded by [Log.Close]. The zero
// value is not usable.
//
// A Log is not safe for concurrent use. See the package documentation
// for the ownership contract.
type Log struct {
	_ [0]func() // prevent external construction

	dev blockdev.Device

	// Immutable for the life of the session.
	datasize      int
	entrySize     int
	numslots      int
	slotsPerBlock int

	// Rebuilt by the recovery scan, advanced by Append.
	highestSeq uint32
	numInUse   int
	oldest     int
	newest     int
	current    int

	// Staging buffer for one full slot (header + payload). Reused by
	// every Append and Read; nil once the log is closed.
	buf []byte
}

// Entry is one log record as returned by [Log.Read].
//
// Data aliases the log's staging buffer: it is valid only until the
// next Append or Read call. Copy it if you need to keep it.
type Entry struct {
	Seq  uint32
	Data []byte
}

// Stats is a point-in-time snapshot of the log state.
type Stats struct {
	DataSize      int
	NumSlots      int
	SlotsPerBlock int
	NumInUse      int
	HighestSeq    uint32
	Oldest        int
	Newest        int
	Current       int
}

// Append writes payload as a new entry and returns its sequence
// number. The payload must be exactly DataSize bytes.
//
// If the log is full, one erase block of the oldest entries is erased
// first to make room; flash cannot reclaim less than a whole block.
//
// On [ErrWrite] or [ErrErase] the in-memory counters have already
// advanced past what flash holds, so the session must be abandoned:
// close and reopen to rebuild state from flash.
func (l *Log) Append(payload []byte) (uint32, error) {
	if l.buf == nil {
		return 0, ErrClosed
	}

	if len(payload) != l.datasize {
		return 0, fmt.Errorf("payload %d bytes, want %d: %w", len(payload), l.datasize, ErrInvalidInput)
	}

	if l.numInUse > 0 {
		l.newest++
		if l.newest >= l.numslots {
			l.newest = 0
		}
	}

	offset := slotOffset(l.newest, l.entrySize)

	if l.numInUse == l.numslots {
		// Full: the target slot starts an erase block holding the
		// oldest entries. Erase it and account for the slots lost.
		if err := l.dev.EraseRange(offset, blockdev.EraseBlockSize); err != nil {
			return 0, fmt.Errorf("reclaim block at %d: %w: %w", offset, ErrErase, err)
		}

		l.numInUse -= l.slotsPerBlock

		l.oldest += l.slotsPerBlock
		if l.oldest >= l.numslots {
			l.oldest -= l.numslots
		}
	}

	l.highestSeq++
	l.numInUse++

	binary.LittleEndian.PutUint32(l.buf, l.highestSeq)
	copy(l.buf[entryHeaderSize:], payload)

	if err := l.dev.WriteAt(offset, l.buf); err != nil {
		return 0, fmt.Errorf("write slot %d: %w: %w", l.newest, ErrWrite, err)
	}

	return l.highestSeq, nil
}

// Read loads the entry at the cursor into the staging buffer.
//
// Fails with [ErrNoEntry] if the log is empty or the cursor does not
// lie on the live arc from oldest to newest. Entry.Data is overwritten
// by the next Append or Read.
func (l *Log) Read() (Entry, error) {
	if l.buf == nil {
		return Entry{}, ErrClosed
	}

	if !l.onArc(l.current) {
		return Entry{}, fmt.Errorf("slot %d not on live arc: %w", l.current, ErrNoEntry)
	}

	if err := l.dev.ReadAt(slotOffset(l.current, l.entrySize), l.buf); err != nil {
		return Entry{}, fmt.Errorf("read slot %d: %w: %w", l.current, ErrRead, err)
	}

	return Entry{
		Seq:  binary.LittleEndian.Uint32(l.buf),
		Data: l.buf[entryHeaderSize:],
	}, nil
}

// Close releases the staging buffer. No flash I/O occurs; the state is
// invalid for further operations until reopened. Idempotent.
func (l *Log) Close() error {
	l.buf = nil

	return nil
}

// Stats returns a snapshot of the log state. Oldest, Newest, and
// Current are meaningful only when NumInUse > 0.
func (l *Log) Stats() Stats {
	return Stats{
		DataSize:      l.datasize,
		NumSlots:      l.numslots,
		SlotsPerBlock: l.slotsPerBlock,
		NumInUse:      l.numInUse,
		HighestSeq:    l.highestSeq,
		Oldest:        l.oldest,
		Newest:        l.newest,
		Current:       l.current,
	}
}

// onArc reports whether slot lies on the circular arc of live entries
// from oldest to newest, walking forward with wraparound.
func (l *Log) onArc(slot int) bool {
	if l.numInUse == 0 || slot < 0 || slot >= l.numslots {
		return false
	}

	if l.newest >= l.oldest {
		return slot >= l.oldest && slot <= l.newest
	}

	return slot >= l.oldest || slot <= l.newest
}
