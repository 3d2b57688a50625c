package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/flashlog/pkg/blockdev"
)

func Test_ParseTable_Accepts_HuJSON_With_Comments_And_Trailing_Commas(t *testing.T) {
	t.Parallel()

	tbl, err := blockdev.ParseTable([]byte(`{
		// pool controller flash layout
		"partitions": [
			{"label": "nvs", "type": 1, "subtype": 2, "offset": 0, "size": 8192},
			{"label": "events", "type": 77, "subtype": 0, "offset": 8192, "size": 16384}, // log
		],
	}`))
	require.NoError(t, err)
	require.Len(t, tbl.Partitions, 2)
	require.Equal(t, int64(8192), tbl.Partitions[1].Offset)
}

func Test_ParseTable_Fails_When_Not_JSON(t *testing.T) {
	t.Parallel()

	_, err := blockdev.ParseTable([]byte(`partitions: nope`))
	require.Error(t, err)
}

func Test_ParseTable_Fails_When_Partition_Unaligned(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		json string
	}{
		{
			"UnalignedOffset",
			`{"partitions": [{"label": "a", "type": 77, "offset": 100, "size": 4096}]}`,
		},
		{
			"UnalignedSize",
			`{"partitions": [{"label": "a", "type": 77, "offset": 0, "size": 100}]}`,
		},
		{
			"ZeroSize",
			`{"partitions": [{"label": "a", "type": 77, "offset": 0, "size": 0}]}`,
		},
		{
			"NegativeOffset",
			`{"partitions": [{"label": "a", "type": 77, "offset": -4096, "size": 4096}]}`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := blockdev.ParseTable([]byte(testCase.json))
			require.Error(t, err)
		})
	}
}

func Test_ParseTable_Fails_When_Partitions_Overlap(t *testing.T) {
	t.Parallel()

	_, err := blockdev.ParseTable([]byte(`{"partitions": [
		{"label": "a", "type": 77, "offset": 0, "size": 8192},
		{"label": "b", "type": 77, "offset": 4096, "size": 8192}
	]}`))
	require.ErrorIs(t, err, blockdev.ErrOutOfRange)
}

func Test_Find_Matches_By_Type_Subtype_And_Label(t *testing.T) {
	t.Parallel()

	tbl, err := blockdev.ParseTable([]byte(`{"partitions": [
		{"label": "nvs", "type": 1, "subtype": 2, "offset": 0, "size": 4096},
		{"label": "events", "type": 77, "subtype": 0, "offset": 4096, "size": 8192},
		{"label": "faults", "type": 77, "subtype": 1, "offset": 12288, "size": 8192}
	]}`))
	require.NoError(t, err)

	// Empty label picks the first partition of the type.
	first, err := tbl.Find(blockdev.TypeLog, blockdev.SubtypeAny, "")
	require.NoError(t, err)
	require.Equal(t, "events", first.Label)

	// Label narrows within the type.
	faults, err := tbl.Find(blockdev.TypeLog, blockdev.SubtypeAny, "faults")
	require.NoError(t, err)
	require.Equal(t, "faults", faults.Label)

	// Subtype narrows too.
	bySubtype, err := tbl.Find(blockdev.TypeLog, 1, "")
	require.NoError(t, err)
	require.Equal(t, "faults", bySubtype.Label)

	_, err = tbl.Find(blockdev.TypeLog, blockdev.SubtypeAny, "missing")
	require.ErrorIs(t, err, blockdev.ErrPartitionNotFound)

	_, err = tbl.Find(blockdev.TypeApp, blockdev.SubtypeAny, "")
	require.ErrorIs(t, err, blockdev.ErrPartitionNotFound)
}

func Test_Region_Window_Translates_And_Bounds_Offsets(t *testing.T) {
	t.Parallel()

	dev := blockdev.NewMem(4 * blockdev.EraseBlockSize)
	part := blockdev.Partition{Label: "events", Type: blockdev.TypeLog, Offset: 4096, Size: 8192}

	region, err := part.Window(dev)
	require.NoError(t, err)
	require.Equal(t, int64(8192), region.Size())

	require.NoError(t, region.WriteAt(0, []byte{0x42}))

	// The write landed at the partition offset on the parent device.
	buf := make([]byte, 1)
	require.NoError(t, dev.ReadAt(4096, buf))
	require.Equal(t, byte(0x42), buf[0])

	// Partition-relative bounds are enforced.
	require.ErrorIs(t, region.ReadAt(8192, buf), blockdev.ErrOutOfRange)
	require.ErrorIs(t, region.EraseRange(8192, blockdev.EraseBlockSize), blockdev.ErrOutOfRange)

	// Erasing the whole window leaves neighbors intact.
	require.NoError(t, dev.WriteAt(0, []byte{0x00}))
	require.NoError(t, region.EraseRange(0, region.Size()))
	require.NoError(t, dev.ReadAt(0, buf))
	require.Equal(t, byte(0x00), buf[0])
}

func Test_Window_Fails_When_Partition_Exceeds_Device(t *testing.T) {
	t.Parallel()

	dev := blockdev.NewMem(blockdev.EraseBlockSize)
	part := blockdev.Partition{Label: "big", Type: blockdev.TypeLog, Offset: 0, Size: 8192}

	_, err := part.Window(dev)
	require.ErrorIs(t, err, blockdev.ErrOutOfRange)
}
