// Reboot simulation: closing and reopening must reproduce the exact
// in-memory state from the flash contents alone.

package flashlog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/flashlog/pkg/blockdev"
	"github.com/calvinalkan/flashlog/pkg/flashlog"
)

// ignoreCursor drops Current from comparison: Open always parks the
// cursor at newest, while the closed session may have moved it.
var ignoreCursor = cmpopts.IgnoreFields(flashlog.Stats{}, "Current")

func Test_Reopen_Reproduces_State_When_No_Intervening_Writes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		appends int
	}{
		{"Empty", 0},
		{"PartiallyFilled", 5},
		{"ExactlyFull", 16},
		{"AfterOneReclaim", 23},
		{"AfterManyReclaims", 100},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			dev := blockdev.NewMem(2 * blockdev.EraseBlockSize)

			log, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
			require.NoError(t, err)

			for i := 0; i < testCase.appends; i++ {
				_, err := log.Append(payload(byte(i)))
				require.NoError(t, err)
			}

			before := log.Stats()
			require.NoError(t, log.Close())

			reopened, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
			require.NoError(t, err)
			defer reopened.Close()

			if diff := cmp.Diff(before, reopened.Stats(), ignoreCursor); diff != "" {
				t.Errorf("state after reopen differs (-before +after):\n%s", diff)
			}
		})
	}
}

func Test_Reopen_Reproduces_Entry_Contents_And_Order(t *testing.T) {
	t.Parallel()

	dev := blockdev.NewMem(4 * blockdev.EraseBlockSize)

	log, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err := log.Append(payload(byte(i)))
		require.NoError(t, err)
	}

	before := collectForward(t, log)
	require.NoError(t, log.Close())

	reopened, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
	require.NoError(t, err)
	defer reopened.Close()

	after := collectForward(t, reopened)

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("traversal after reopen differs (-before +after):\n%s", diff)
	}
}

func Test_Reopen_Continues_Sequence_Numbers_Across_Sessions(t *testing.T) {
	t.Parallel()

	dev := blockdev.NewMem(2 * blockdev.EraseBlockSize)

	log, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
	require.NoError(t, err)

	_, err = log.Append(payload(1))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	reopened, err := flashlog.Open(dev, flashlog.Options{DataSize: 252})
	require.NoError(t, err)
	defer reopened.Close()

	seq, err := reopened.Append(payload(2))
	require.NoError(t, err)
	require.Equal(t, uint32(2), seq, "seqno continues from the recovered highest")
}

func Test_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	log, _ := newLog(t, 2)

	require.NoError(t, log.Close())
	require.NoError(t, log.Close())
}
