package blockdev

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// ErrImageLocked indicates another process holds the flash image.
//
// Recovery: retry after the other process releases it.
var ErrImageLocked = errors.New("blockdev: image locked")

// File is a [Device] backed by a flash image file on disk.
//
// The image is a plain file whose bytes mirror the flash contents.
// OpenFile takes an exclusive flock(2) on the image so only one
// process owns the device at a time, matching the exclusive-ownership
// contract the log engine assumes.
//
// Writes emulate NOR semantics with a read-modify-AND-write, so an
// image manipulated by tools behaves exactly like the hardware it
// stands in for.
type File struct {
	f      *os.File
	size   int64
	closed bool
}

// CreateImage writes a fully erased flash image of the given size.
//
// The image is written atomically (temp file + rename) so a crash
// during creation never leaves a half-sized image behind. Size must be
// a positive multiple of [EraseBlockSize].
func CreateImage(path string, size int64) error {
	if size <= 0 || size%EraseBlockSize != 0 {
		return fmt.Errorf("image size %d must be a positive multiple of %d: %w", size, EraseBlockSize, ErrUnaligned)
	}

	blank := make([]byte, size)
	for i := range blank {
		blank[i] = Erased
	}

	if err := atomic.WriteFile(path, bytes.NewReader(blank)); err != nil {
		return fmt.Errorf("create image %s: %w", path, err)
	}

	return nil
}

// OpenFile opens an existing flash image for exclusive use.
//
// Returns [ErrImageLocked] if another process holds the image, or
// [ErrUnaligned] if the image size is not a multiple of
// [EraseBlockSize].
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("image %s: %w", path, ErrImageLocked)
		}

		return nil, fmt.Errorf("lock image %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("stat image %s: %w", path, err)
	}

	if info.Size()%EraseBlockSize != 0 {
		_ = f.Close()

		return nil, fmt.Errorf("image %s size %d not a multiple of %d: %w", path, info.Size(), EraseBlockSize, ErrUnaligned)
	}

	return &File{f: f, size: info.Size()}, nil
}

func (d *File) ReadAt(off int64, p []byte) error {
	if d.closed {
		return ErrClosed
	}

	if err := checkRange(off, int64(len(p)), d.size); err != nil {
		return err
	}

	if _, err := d.f.ReadAt(p, off); err != nil {
		return fmt.Errorf("read image at %d: %w", off, err)
	}

	return nil
}

func (d *File) WriteAt(off int64, p []byte) error {
	if d.closed {
		return ErrClosed
	}

	if err := checkRange(off, int64(len(p)), d.size); err != nil {
		return err
	}

	// Read-modify-write to preserve NOR AND semantics.
	old := make([]byte, len(p))
	if _, err := d.f.ReadAt(old, off); err != nil {
		return fmt.Errorf("read image at %d: %w", off, err)
	}

	for i, b := range p {
		old[i] &= b
	}

	if _, err := d.f.WriteAt(old, off); err != nil {
		return fmt.Errorf("write image at %d: %w", off, err)
	}

	return nil
}

func (d *File) EraseRange(off, n int64) error {
	if d.closed {
		return ErrClosed
	}

	if err := checkErase(off, n, d.size); err != nil {
		return err
	}

	blank := make([]byte, n)
	for i := range blank {
		blank[i] = Erased
	}

	if _, err := d.f.WriteAt(blank, off); err != nil {
		return fmt.Errorf("erase image at %d: %w", off, err)
	}

	return nil
}

func (d *File) Size() int64 {
	return d.size
}

// Close releases the flock and the underlying file. Idempotent.
func (d *File) Close() error {
	if d.closed {
		return nil
	}

	d.closed = true
	_ = unix.Flock(int(d.f.Fd()), unix.LOCK_UN)

	if err := d.f.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}

	return nil
}
