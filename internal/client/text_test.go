package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"ann@example.com", "First.Last@sub.example.org", `"odd name"@example.com`, "a@[10.0.0.1]"} {
		require.True(t, ValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "ann", "ann@", "@example.com", "ann@example", "ann example@x.com", "a@b.c"} {
		require.False(t, ValidEmail(bad), bad)
	}
}

func TestValidPassword(t *testing.T) {
	t.Parallel()

	require.False(t, ValidPassword("12345"))
	require.True(t, ValidPassword("123456"))
	require.True(t, ValidPassword("123456789012345678901234"))
	require.False(t, ValidPassword("1234567890123456789012345"))
	require.True(t, ValidPassword("пароль"))
}

func TestSavable(t *testing.T) {
	t.Parallel()

	require.True(t, Savable("a"))
	require.True(t, Savable("title\n  body"))
	require.False(t, Savable(""))
	require.False(t, Savable(" title"))
	require.False(t, Savable("\ntitle"))
	require.False(t, Savable(" title"))
}

func TestSplitJoinNote(t *testing.T) {
	t.Parallel()

	title, content := SplitNote("Groceries\nmilk\neggs")
	require.Equal(t, "Groceries", title)
	require.Equal(t, "milk\neggs", content)

	title, content = SplitNote("only title")
	require.Equal(t, "only title", title)
	require.Equal(t, "", content)

	require.Equal(t, "Groceries\nmilk\neggs", JoinNote("Groceries", "milk\neggs"))
	require.Equal(t, "t", JoinNote("t", ""))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", Truncate("short", 150))
	require.Equal(t, "hello …", Truncate("hello brave new world", 12))
	require.Equal(t, "abcdefghi …", Truncate("abcdefghijklmnop", 10))
	require.Equal(t, "привет …", Truncate("привет мир всем", 10))
}
