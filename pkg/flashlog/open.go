package flashlog

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/flashlog/pkg/blockdev"
)

// Options configures opening or creating a log.
type Options struct {
	// DataSize is the fixed payload size in bytes for every entry.
	//
	// DataSize + 4 (the entry header) must be a power of two no larger
	// than the erase block size, so one of: 4, 12, 28, 60, 124, 252,
	// 508, 1020, 2044, 4092.
	//
	// If the region was initialized with a different DataSize, the
	// region is erased and reinitialized, discarding all prior entries.
	DataSize int
}

// Open opens or initializes a log on the given device region.
//
// If the region carries a valid header with a matching DataSize, the
// full log state is recovered by scanning every slot header once. An
// uninitialized region, or one created with a different DataSize, is
// erased completely and reinitialized empty.
//
// The device size must be a multiple of the erase block size; devices
// from this module ([blockdev.Mem], [blockdev.File], partition
// [blockdev.Region] windows) all guarantee that.
//
// Possible errors:
//   - [ErrInvalidEntrySize]: bad DataSize, or region too small for one slot
//   - [ErrRead], [ErrWrite], [ErrErase]: device failure during
//     recovery or initialization
func Open(dev blockdev.Device, opts Options) (*Log, error) {
	entrySize := opts.DataSize + entryHeaderSize
	if opts.DataSize < 1 || !validEntrySize(entrySize) {
		return nil, fmt.Errorf("datasize %d (slot size %d must be a power of two <= %d): %w",
			opts.DataSize, entrySize, blockdev.EraseBlockSize, ErrInvalidEntrySize)
	}

	capacity := computeNumSlots(dev.Size(), entrySize)
	if capacity < 1 {
		return nil, fmt.Errorf("region of %d bytes holds no slots of %d bytes: %w",
			dev.Size(), entrySize, ErrInvalidEntrySize)
	}

	log := &Log{
		dev:           dev,
		datasize:      opts.DataSize,
		entrySize:     entrySize,
		slotsPerBlock: blockdev.EraseBlockSize / entrySize,
	}

	hdrBuf := make([]byte, regionHeaderSize)
	if err := dev.ReadAt(0, hdrBuf); err != nil {
		return nil, fmt.Errorf("region header: %w: %w", ErrRead, err)
	}

	hdr, ok := decodeRegionHeader(hdrBuf)

	switch {
	case !ok || hdr.DataSize != uint32(opts.DataSize):
		// Uninitialized or incompatible: start from scratch with a
		// complete erase of the region.
		if err := log.initialize(capacity); err != nil {
			return nil, err
		}
	default:
		if err := log.scanSlots(int(hdr.NumSlots)); err != nil {
			return nil, err
		}
	}

	log.current = log.newest
	log.buf = make([]byte, entrySize)

	return log, nil
}

// OpenPartition resolves a log partition by label and opens a log on
// it. An empty label selects the first partition of the log type.
//
// Returns [blockdev.ErrPartitionNotFound] if no partition matches; all
// other errors are as for [Open].
func OpenPartition(dev blockdev.Device, tbl *blockdev.Table, label string, opts Options) (*Log, error) {
	part, err := tbl.Find(blockdev.TypeLog, blockdev.SubtypeAny, label)
	if err != nil {
		return nil, err
	}

	region, err := part.Window(dev)
	if err != nil {
		return nil, err
	}

	return Open(region, opts)
}

// initialize erases the whole region and writes a fresh header,
// leaving the log empty.
func (l *Log) initialize(capacity int) error {
	if err := l.dev.EraseRange(0, l.dev.Size()); err != nil {
		return fmt.Errorf("initialize region: %w: %w", ErrErase, err)
	}

	hdr := regionHeader{DataSize: uint32(l.datasize), NumSlots: uint32(capacity)}
	if err := l.dev.WriteAt(0, encodeRegionHeader(hdr)); err != nil {
		return fmt.Errorf("region header: %w: %w", ErrWrite, err)
	}

	l.numslots = capacity
	l.highestSeq = 0
	l.numInUse = 0
	l.oldest = 0
	l.newest = 0

	return nil
}

// scanSlots rebuilds the in-memory state by reading every slot's
// entry header once, in slot order.
//
// The newest entry is the one with the largest sequence number, the
// oldest the one with the smallest; slots holding seqUnused are
// skipped. This scan replaces any persisted index: it runs once per
// open, so appends stay at one flash write each.
func (l *Log) scanSlots(numslots int) error {
	l.numslots = numslots
	l.highestSeq = 0
	l.numInUse = 0
	l.oldest = 0
	l.newest = 0

	oldestSeq := seqUnused

	seqBuf := make([]byte, entryHeaderSize)
	for slot := 0; slot < numslots; slot++ {
		if err := l.dev.ReadAt(slotOffset(slot, l.entrySize), seqBuf); err != nil {
			return fmt.Errorf("scan slot %d: %w: %w", slot, ErrRead, err)
		}

		seq := binary.LittleEndian.Uint32(seqBuf)
		if seq == seqUnused {
			continue
		}

		l.numInUse++

		if seq > l.highestSeq {
			l.highestSeq = seq
			l.newest = slot
		}

		if seq < oldestSeq {
			oldestSeq = seq
			l.oldest = slot
		}
	}

	return nil
}
