package blockdev

import "fmt"

// Mem is an in-memory [Device] emulating NOR flash.
//
// A new Mem starts fully erased. Writes AND bits into place, so tests
// observe the same silent corruption real hardware produces when a
// write targets non-erased space.
//
// Mem is not safe for concurrent use; callers serialize access the
// same way they must for a real flash controller.
type Mem struct {
	data   []byte
	closed bool
}

// NewMem returns an erased in-memory device of the given size.
// Panics if size is negative or not a multiple of [EraseBlockSize],
// since a fractional erase block cannot be reclaimed.
func NewMem(size int64) *Mem {
	if size < 0 || size%EraseBlockSize != 0 {
		panic(fmt.Sprintf("blockdev: mem size %d not a multiple of %d", size, EraseBlockSize))
	}

	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}

	return &Mem{data: data}
}

func (m *Mem) ReadAt(off int64, p []byte) error {
	if m.closed {
		return ErrClosed
	}

	if err := checkRange(off, int64(len(p)), m.Size()); err != nil {
		return err
	}

	copy(p, m.data[off:])

	return nil
}

func (m *Mem) WriteAt(off int64, p []byte) error {
	if m.closed {
		return ErrClosed
	}

	if err := checkRange(off, int64(len(p)), m.Size()); err != nil {
		return err
	}

	// NOR write: bits can only be cleared.
	for i, b := range p {
		m.data[off+int64(i)] &= b
	}

	return nil
}

func (m *Mem) EraseRange(off, n int64) error {
	if m.closed {
		return ErrClosed
	}

	if err := checkErase(off, n, m.Size()); err != nil {
		return err
	}

	for i := off; i < off+n; i++ {
		m.data[i] = Erased
	}

	return nil
}

func (m *Mem) Size() int64 {
	return int64(len(m.data))
}

// Close marks the device closed. Idempotent.
func (m *Mem) Close() error {
	m.closed = true

	return nil
}

// Bytes exposes the backing storage for test assertions.
// The returned slice aliases the device contents.
func (m *Mem) Bytes() []byte {
	return m.data
}
