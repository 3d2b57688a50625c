// Package blockdev provides block-erasable storage devices with NOR
// flash write semantics, plus partition discovery over them.
//
// The main types are:
//   - [Device]: interface for raw read/write/erase access
//   - [Mem]: in-memory NOR emulation for tests
//   - [File]: file-backed flash image for tools and persistence
//   - [Chaos]: fault-injecting wrapper for failure testing
//   - [Table]: named partitions laid out on a device
//
// NOR semantics means a write can only clear bits: writing a byte ANDs
// it into place, and only [Device.EraseRange] (whole erase blocks at a
// time) sets bytes back to the erased state 0xFF. Callers that write to
// non-erased space get silently ANDed data, exactly like the hardware.
//
// Example usage:
//
//	dev := blockdev.NewMem(64 * 1024)
//	if err := dev.EraseRange(0, dev.Size()); err != nil {
//	    return err
//	}
//	err := dev.WriteAt(4096, payload)
package blockdev
