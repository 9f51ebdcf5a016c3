package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddleTruncateLeavesShortOutputUnchanged(t *testing.T) {
	s := "short output, well under budget"
	require.Equal(t, s, MiddleTruncate(s, RawOutputTokenLimit))
}

func TestMiddleTruncateInsertsMarkerForLongOutput(t *testing.T) {
	long := strings.Repeat("x", 10_000)
	out := MiddleTruncate(long, 100)
	require.Contains(t, out, truncationMarker)
	require.Less(t, len(out), len(long))
}

func TestMiddleTruncateKeepsHeadAndTail(t *testing.T) {
	s := "HEAD_MARK" + strings.Repeat("middle", 2000) + "TAIL_MARK"
	out := MiddleTruncate(s, 50)
	require.True(t, strings.HasPrefix(out, "HEAD_MARK"))
	require.True(t, strings.HasSuffix(out, "TAIL_MARK"))
}

func TestMiddleTruncateDegenerateBudgetReturnsJustMarker(t *testing.T) {
	out := MiddleTruncate(strings.Repeat("x", 1000), 0)
	require.Equal(t, truncationMarker, out)
}
