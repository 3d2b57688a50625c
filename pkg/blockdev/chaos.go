package blockdev

import "errors"

// ErrInjected marks a failure injected by [Chaos].
//
// Injected errors wrap ErrInjected so errors.Is can distinguish them
// from real device failures in tests.
var ErrInjected = errors.New("blockdev: injected fault")

// Chaos wraps a [Device] and fails scheduled operations.
//
// Unlike a probabilistic fault injector, Chaos uses countdowns so a
// test can target the exact read, write, or erase it wants to fail:
//
//	dev := blockdev.NewChaos(blockdev.NewMem(64 * 1024))
//	dev.FailWriteAfter(3) // ops 1-2 succeed, op 3 fails
//
// A countdown of 0 (the zero value) disables injection for that
// operation kind. Once an injection fires, its countdown resets to
// disabled.
type Chaos struct {
	dev Device

	readAfter  int
	writeAfter int
	eraseAfter int
}

// NewChaos wraps dev with no failures scheduled.
func NewChaos(dev Device) *Chaos {
	return &Chaos{dev: dev}
}

// FailReadAfter schedules the n-th upcoming ReadAt to fail (1 = next).
func (c *Chaos) FailReadAfter(n int) { c.readAfter = n }

// FailWriteAfter schedules the n-th upcoming WriteAt to fail (1 = next).
func (c *Chaos) FailWriteAfter(n int) { c.writeAfter = n }

// FailEraseAfter schedules the n-th upcoming EraseRange to fail (1 = next).
func (c *Chaos) FailEraseAfter(n int) { c.eraseAfter = n }

// fire decrements a countdown and reports whether it hit zero.
func fire(counter *int) bool {
	if *counter == 0 {
		return false
	}

	*counter--

	return *counter == 0
}

func (c *Chaos) ReadAt(off int64, p []byte) error {
	if fire(&c.readAfter) {
		return ErrInjected
	}

	return c.dev.ReadAt(off, p)
}

func (c *Chaos) WriteAt(off int64, p []byte) error {
	if fire(&c.writeAfter) {
		return ErrInjected
	}

	return c.dev.WriteAt(off, p)
}

func (c *Chaos) EraseRange(off, n int64) error {
	if fire(&c.eraseAfter) {
		return ErrInjected
	}

	return c.dev.EraseRange(off, n)
}

func (c *Chaos) Size() int64 {
	return c.dev.Size()
}

func (c *Chaos) Close() error {
	return c.dev.Close()
}
