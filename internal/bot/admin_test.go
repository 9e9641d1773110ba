package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	v, ok := parseAmount("3")
	require.True(t, ok)
	require.EqualValues(t, 3, v)

	// Digits embedded in free text still parse.
	v, ok = parseAmount("remove 10 please")
	require.True(t, ok)
	require.EqualValues(t, 10, v)

	_, ok = parseAmount("no numbers here")
	require.False(t, ok)

	_, ok = parseAmount("")
	require.False(t, ok)

	// A digit run beyond int64 must be rejected, not saturated.
	_, ok = parseAmount("99999999999999999999")
	require.False(t, ok)
}

func TestNonEmptyLines(t *testing.T) {
	lines := nonEmptyLines("@a\n\n  @b  \n\t\n@c")
	require.Equal(t, []string{"@a", "@b", "@c"}, lines)
	require.Nil(t, nonEmptyLines("  \n \n"))
}
