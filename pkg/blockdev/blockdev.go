package blockdev

import (
	"errors"
	"fmt"
)

// EraseBlockSize is the minimum unit the storage medium can erase in
// one operation. Erase offsets and lengths must be multiples of it.
const EraseBlockSize = 4096

// Erased is the value every byte holds after an erase. NOR flash reads
// all-ones when erased; writes can only clear bits from this state.
const Erased byte = 0xFF

// Sentinel errors returned by blockdev operations.
//
// Callers should use [errors.Is] to check error types.
var (
	// ErrOutOfRange indicates an access beyond the device or partition
	// bounds.
	//
	// This is a programming error.
	ErrOutOfRange = errors.New("blockdev: out of range")

	// ErrUnaligned indicates an erase offset or length that is not a
	// multiple of [EraseBlockSize].
	//
	// This is a programming error.
	ErrUnaligned = errors.New("blockdev: unaligned erase")

	// ErrClosed indicates an operation on a closed device.
	ErrClosed = errors.New("blockdev: closed")

	// ErrPartitionNotFound indicates no partition matched a
	// [Table.Find] query.
	//
	// Recovery: fix the partition table or the lookup parameters.
	ErrPartitionNotFound = errors.New("blockdev: partition not found")
)

// Device is raw block-erasable storage.
//
// Reads and writes may target any byte range inside the device.
// Writes follow NOR semantics: bits can only be cleared, so a write
// into non-erased space yields the bitwise AND of old and new data.
// EraseRange resets whole erase blocks to [Erased].
//
// Implementations report failures synchronously and perform no
// internal retries; retry policy belongs to the caller.
type Device interface {
	// ReadAt fills p with the bytes at off.
	ReadAt(off int64, p []byte) error

	// WriteAt stores p at off. Target bytes should be in the erased
	// state; if they are not, bits are ANDed like real NOR hardware.
	WriteAt(off int64, p []byte) error

	// EraseRange resets [off, off+n) to the erased state. Both off and
	// n must be multiples of [EraseBlockSize].
	EraseRange(off, n int64) error

	// Size returns the device capacity in bytes.
	Size() int64

	// Close releases the device. Further operations return [ErrClosed].
	Close() error
}

// checkRange validates that [off, off+n) lies inside a device of the
// given size.
func checkRange(off, n, size int64) error {
	if off < 0 || n < 0 || off+n > size {
		return fmt.Errorf("range [%d, %d) outside device of %d bytes: %w", off, off+n, size, ErrOutOfRange)
	}

	return nil
}

// checkErase validates erase alignment on top of the range check.
func checkErase(off, n, size int64) error {
	if err := checkRange(off, n, size); err != nil {
		return err
	}

	if off%EraseBlockSize != 0 || n%EraseBlockSize != 0 {
		return fmt.Errorf("erase [%d, %d) not %d-aligned: %w", off, off+n, EraseBlockSize, ErrUnaligned)
	}

	return nil
}
