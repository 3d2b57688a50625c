package blockdev

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Partition type identifiers. Log is the conventional type byte for
// event-log partitions; application and data are reserved for firmware
// images and general storage.
const (
	TypeApp  uint8 = 0x00
	TypeData uint8 = 0x01
	TypeLog  uint8 = 0x4D
)

// SubtypeAny matches any subtype in [Table.Find].
const SubtypeAny uint8 = 0xFF

// Partition is a fixed, named span of a device reserved for one use.
type Partition struct {
	Label   string `json:"label"`
	Type    uint8  `json:"type"`
	Subtype uint8  `json:"subtype"`
	Offset  int64  `json:"offset"`
	Size    int64  `json:"size"`
}

// Table is an ordered set of partitions laid out on one device.
type Table struct {
	Partitions []Partition `json:"partitions"`
}

// ParseTable decodes a partition table from HuJSON (JSON with comments
// and trailing commas), then validates alignment and overlap.
func ParseTable(data []byte) (*Table, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("partition table: invalid JSONC: %w", err)
	}

	var tbl Table

	if err := json.Unmarshal(standardized, &tbl); err != nil {
		return nil, fmt.Errorf("partition table: invalid JSON: %w", err)
	}

	if err := tbl.validate(); err != nil {
		return nil, err
	}

	return &tbl, nil
}

// LoadTable reads and parses a partition table file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("partition table %s: %w", path, err)
	}

	return ParseTable(data)
}

// validate checks alignment and pairwise overlap.
//
// Offsets and sizes must be erase-block aligned so that erasing one
// partition can never touch a neighbor.
func (t *Table) validate() error {
	for i, p := range t.Partitions {
		if p.Size <= 0 {
			return fmt.Errorf("partition %q: size %d must be positive: %w", p.Label, p.Size, ErrUnaligned)
		}

		if p.Offset < 0 || p.Offset%EraseBlockSize != 0 || p.Size%EraseBlockSize != 0 {
			return fmt.Errorf("partition %q: offset %d size %d not %d-aligned: %w",
				p.Label, p.Offset, p.Size, EraseBlockSize, ErrUnaligned)
		}

		for _, q := range t.Partitions[:i] {
			if p.Offset < q.Offset+q.Size && q.Offset < p.Offset+p.Size {
				return fmt.Errorf("partition %q overlaps %q: %w", p.Label, q.Label, ErrOutOfRange)
			}
		}
	}

	return nil
}

// Find returns the first partition matching type, subtype, and label.
//
// subtype [SubtypeAny] matches any subtype; an empty label matches the
// first partition of the requested type. Returns
// [ErrPartitionNotFound] if nothing matches.
func (t *Table) Find(typ, subtype uint8, label string) (Partition, error) {
	for _, p := range t.Partitions {
		if p.Type != typ {
			continue
		}

		if subtype != SubtypeAny && p.Subtype != subtype {
			continue
		}

		if label != "" && p.Label != label {
			continue
		}

		return p, nil
	}

	return Partition{}, fmt.Errorf("type 0x%02X label %q: %w", typ, label, ErrPartitionNotFound)
}

// Region is a [Device] restricted to one partition's window.
//
// All offsets are partition-relative; accesses outside the window
// return [ErrOutOfRange]. Closing a Region does not close the parent
// device, which may back several partitions.
type Region struct {
	dev  Device
	off  int64
	size int64
}

// Window binds the partition to a device, bounds-checking the
// partition against the device capacity.
func (p Partition) Window(dev Device) (*Region, error) {
	if err := checkRange(p.Offset, p.Size, dev.Size()); err != nil {
		return nil, fmt.Errorf("partition %q: %w", p.Label, err)
	}

	return &Region{dev: dev, off: p.Offset, size: p.Size}, nil
}

func (r *Region) ReadAt(off int64, p []byte) error {
	if err := checkRange(off, int64(len(p)), r.size); err != nil {
		return err
	}

	return r.dev.ReadAt(r.off+off, p)
}

func (r *Region) WriteAt(off int64, p []byte) error {
	if err := checkRange(off, int64(len(p)), r.size); err != nil {
		return err
	}

	return r.dev.WriteAt(r.off+off, p)
}

func (r *Region) EraseRange(off, n int64) error {
	if err := checkErase(off, n, r.size); err != nil {
		return err
	}

	return r.dev.EraseRange(r.off+off, n)
}

func (r *Region) Size() int64 {
	return r.size
}

// Close is a no-op; the parent device stays open.
func (r *Region) Close() error {
	return nil
}
