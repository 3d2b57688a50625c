package flashlog

import (
	"bytes"
	"encoding/binary"

	"github.com/calvinalkan/flashlog/pkg/blockdev"
)

// On-flash layout constants.
//
// The region header sits at offset 0 and is written exactly once, when
// the region is initialized. Slot 0 starts at the next erase-block
// boundary regardless of header size, so erasing slots never clips the
// header. Each slot is a 4-byte sequence number followed by DataSize
// payload bytes.
const (
	// regionMagic identifies an initialized log region.
	regionMagic = "flashlog"

	// regionHeaderSize is the encoded size of the region header:
	// 8-byte magic + uint32 datasize + uint32 numslots.
	regionHeaderSize = 16

	// slot0Offset is where slot 0 begins inside the region. The rest
	// of the first erase block after the header is reserved.
	slot0Offset = blockdev.EraseBlockSize

	// entryHeaderSize is the per-slot header: one uint32 seqno.
	entryHeaderSize = 4

	// seqUnused marks an unused slot. It is the erased flash state
	// (all bits set) and is never assigned to a live entry.
	seqUnused uint32 = 0xFFFFFFFF
)

// Header field offsets (bytes from region start).
const (
	offMagic    = 0 // [8]byte
	offDataSize = 8 // uint32
	offNumSlots = 12 // uint32
)

// regionHeader is the decoded form of the persisted region header.
type regionHeader struct {
	DataSize uint32
	NumSlots uint32
}

// encodeRegionHeader serializes the header to regionHeaderSize bytes.
// All integers are little-endian.
func encodeRegionHeader(hdr regionHeader) []byte {
	buf := make([]byte, regionHeaderSize)
	copy(buf[offMagic:], regionMagic)
	binary.LittleEndian.PutUint32(buf[offDataSize:], hdr.DataSize)
	binary.LittleEndian.PutUint32(buf[offNumSlots:], hdr.NumSlots)

	return buf
}

// decodeRegionHeader deserializes the header. ok is false when the
// magic marker is absent, meaning an uninitialized or foreign region.
func decodeRegionHeader(buf []byte) (hdr regionHeader, ok bool) {
	if !bytes.Equal(buf[offMagic:offMagic+len(regionMagic)], []byte(regionMagic)) {
		return regionHeader{}, false
	}

	hdr.DataSize = binary.LittleEndian.Uint32(buf[offDataSize:])
	hdr.NumSlots = binary.LittleEndian.Uint32(buf[offNumSlots:])

	return hdr, true
}

// validEntrySize reports whether a slot of entrySize bytes is a power
// of two no larger than one erase block. This guarantees an integral
// number of slots per erase block, so block erases reclaim whole slots
// and slots never straddle block boundaries.
func validEntrySize(entrySize int) bool {
	return entrySize > entryHeaderSize &&
		entrySize <= blockdev.EraseBlockSize &&
		entrySize&(entrySize-1) == 0
}

// slotOffset returns the region-relative byte offset of a slot.
func slotOffset(slot, entrySize int) int64 {
	return slot0Offset + int64(slot)*int64(entrySize)
}

// computeNumSlots returns how many slots fit in a region after the
// header block. Because regionSize and slot0Offset are erase-block
// multiples and entrySize divides the erase block size, the result is
// always a whole number of erase blocks' worth of slots.
func computeNumSlots(regionSize int64, entrySize int) int {
	if regionSize <= slot0Offset {
		return 0
	}

	return int((regionSize - slot0Offset) / int64(entrySize))
}
