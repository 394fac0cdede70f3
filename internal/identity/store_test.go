package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadClear(t *testing.T) {
	t.Parallel()
	fs := &FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	u, err := fs.Load()
	require.NoError(t, err)
	require.Nil(t, u)

	require.NoError(t, fs.Save(&User{ID: "u-1", Email: "a@b.c", Token: Token{AccessToken: "tok"}}))
	st, err := os.Stat(fs.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	u, err = fs.Load()
	require.NoError(t, err)
	require.Equal(t, "a@b.c", u.Email)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	u, err = fs.Load()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0o600))

	_, err := (&FileStore{Path: p}).Load()
	require.Error(t, err)
}

func TestConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.Equal(t, filepath.Join(dir, "ngotes"), ConfigDir())
	require.Equal(t, filepath.Join(dir, "ngotes", "session.json"), DefaultFileStore().Path)
}

func TestMemoryStore_CopiesUser(t *testing.T) {
	t.Parallel()
	var m MemoryStore
	u := &User{Email: "a@b.c"}
	require.NoError(t, m.Save(u))
	u.Email = "changed"

	got, _ := m.Load()
	require.Equal(t, "a@b.c", got.Email)
}
