// Append behavior: sequence assignment, the full-log erase-block
// reclamation, and the fixed-payload contract.

package flashlog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/flashlog/pkg/flashlog"
)

func Test_Append_Assigns_Strictly_Increasing_Sequence_Numbers(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)
	defer log.Close()

	for want := uint32(1); want <= 10; want++ {
		seq, err := log.Append(payload(byte(want)))
		require.NoError(t, err)
		require.Equal(t, want, seq)
	}

	stats := log.Stats()
	require.Equal(t, 10, stats.NumInUse)
	require.Equal(t, uint32(10), stats.HighestSeq)
	require.Equal(t, 0, stats.Oldest)
	require.Equal(t, 9, stats.Newest)
}

func Test_Append_Fails_When_Payload_Length_Wrong(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)
	defer log.Close()

	_, err := log.Append(make([]byte, 10))
	require.ErrorIs(t, err, flashlog.ErrInvalidInput)

	_, err = log.Append(make([]byte, 256))
	require.ErrorIs(t, err, flashlog.ErrInvalidInput)
}

func Test_Append_Fails_With_Closed_When_Log_Not_Open(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)
	require.NoError(t, log.Close())

	_, err := log.Append(payload(1))
	require.ErrorIs(t, err, flashlog.ErrClosed, "closed log must fail distinctly from device errors")

	_, err = log.Read()
	require.ErrorIs(t, err, flashlog.ErrClosed)
	require.ErrorIs(t, log.GotoOldest(), flashlog.ErrClosed)
}

// The concrete single-block scenario: 16 slots of 256 bytes in one
// erase block. Filling the log and appending once more erases all 16
// slots at once; the only survivor is the entry just appended.
func Test_Append_Into_Full_Single_Block_Log_Erases_All_Slots(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)
	defer log.Close()

	for i := 0; i < 16; i++ {
		_, err := log.Append(payload(byte(i)))
		require.NoError(t, err)
	}

	stats := log.Stats()
	require.Equal(t, 16, stats.NumInUse, "log is full")
	require.Equal(t, 0, stats.Oldest)
	require.Equal(t, 15, stats.Newest)

	seq, err := log.Append(payload(0xAA))
	require.NoError(t, err)
	require.Equal(t, uint32(17), seq)

	stats = log.Stats()
	require.Equal(t, 1, stats.NumInUse)
	require.Equal(t, 0, stats.Oldest)
	require.Equal(t, 0, stats.Newest)
	require.Equal(t, uint32(17), stats.HighestSeq)

	require.NoError(t, log.GotoOldest())

	entry, err := log.Read()
	require.NoError(t, err)
	require.Equal(t, uint32(17), entry.Seq)
	require.Equal(t, byte(0xAA), entry.Data[0])
}

// With several erase blocks, reclamation removes exactly one block's
// worth of oldest slots per overflow, never a partial slot.
func Test_Append_Into_Full_Multi_Block_Log_Reclaims_One_Block(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 4) // 48 slots across 3 data blocks
	defer log.Close()

	for i := 0; i < 48; i++ {
		_, err := log.Append(payload(byte(i)))
		require.NoError(t, err)
	}

	require.Equal(t, 48, log.Stats().NumInUse)

	seq, err := log.Append(payload(0xBB))
	require.NoError(t, err)
	require.Equal(t, uint32(49), seq)

	stats := log.Stats()
	require.Equal(t, 48-16+1, stats.NumInUse, "one block reclaimed, one entry added")
	require.Equal(t, 16, stats.Oldest, "oldest advanced a whole block")
	require.Equal(t, 0, stats.Newest, "new entry wrapped to slot 0")

	// The surviving oldest entry is the 17th ever appended.
	require.NoError(t, log.GotoOldest())

	entry, err := log.Read()
	require.NoError(t, err)
	require.Equal(t, uint32(17), entry.Seq)
}

func Test_HighestSeq_Matches_Entry_At_Newest_After_Any_Appends(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)
	defer log.Close()

	// Push through several overflow cycles.
	for i := 0; i < 53; i++ {
		_, err := log.Append(payload(byte(i)))
		require.NoError(t, err)

		require.NoError(t, log.GotoNewest())

		entry, err := log.Read()
		require.NoError(t, err)
		require.Equal(t, log.Stats().HighestSeq, entry.Seq)
	}
}
