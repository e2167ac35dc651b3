package fs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupRoot(t *testing.T) (string, Filesystem) {
	dir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world!"), 0644))

	fs, err := NewRootedDiskFilesystem(RootedDiskConfig{
		Root: dir,
	})
	require.NoError(t, err)

	return dir, fs
}

func TestNewRootedDiskFilesystem(t *testing.T) {
	_, err := NewRootedDiskFilesystem(RootedDiskConfig{})
	require.Error(t, err)

	dir := t.TempDir()

	_, err = NewRootedDiskFilesystem(RootedDiskConfig{Root: filepath.Join(dir, "missing")})
	require.Error(t, err)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err = NewRootedDiskFilesystem(RootedDiskConfig{Root: file})
	require.Error(t, err)

	fs, err := NewRootedDiskFilesystem(RootedDiskConfig{Root: dir})
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(fs.Root()))
}

func TestResolve(t *testing.T) {
	dir, fs := setupRoot(t)

	for path, expected := range map[string]string{
		"/":               dir,
		"":                dir,
		"/sub/b.txt":      filepath.Join(dir, "sub", "b.txt"),
		"/sub/../a.txt":   filepath.Join(dir, "a.txt"),
		"//sub//./b.txt":  filepath.Join(dir, "sub", "b.txt"),
		"/sub/x/../../":   dir,
		"/a..b/c":         filepath.Join(dir, "a..b", "c"),
		"/sub/...":        filepath.Join(dir, "sub", "..."),
		"/sub/x/../b.txt": filepath.Join(dir, "sub", "b.txt"),
	} {
		abspath, err := fs.Resolve(path)
		require.NoError(t, err, path)
		require.Equal(t, expected, abspath, path)
	}

	for _, path := range []string{
		"/..",
		"/../",
		"..",
		"/../etc/passwd",
		"/sub/../../",
		"/sub/../../" + filepath.Base(dir) + "/a.txt",
		"/./../a.txt",
	} {
		_, err := fs.Resolve(path)
		require.ErrorIs(t, err, ErrPathForbidden, path)
	}
}

func TestForbiddenOperations(t *testing.T) {
	_, fs := setupRoot(t)

	_, err := fs.Stat("/../")
	require.ErrorIs(t, err, ErrPathForbidden)

	_, err = fs.Lstat("/../")
	require.ErrorIs(t, err, ErrPathForbidden)

	_, err = fs.ReadDir("/../")
	require.ErrorIs(t, err, ErrPathForbidden)

	_, err = fs.Open("/../a.txt")
	require.ErrorIs(t, err, ErrPathForbidden)
}

func TestStat(t *testing.T) {
	_, fs := setupRoot(t)

	info, err := fs.Stat("/a.txt")
	require.NoError(t, err)
	require.Equal(t, "a.txt", info.Name())
	require.Equal(t, int64(5), info.Size())
	require.False(t, info.IsDir())

	_, isLink := info.IsLink()
	require.False(t, isLink)

	info, err = fs.Stat("/sub")
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = fs.Stat("/missing")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLstatSymlink(t *testing.T) {
	dir, fs := setupRoot(t)

	err := os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "link"))
	if err != nil {
		t.Skipf("symlinks not supported: %s", err)
	}

	info, err := fs.Lstat("/link")
	require.NoError(t, err)

	target, isLink := info.IsLink()
	require.True(t, isLink)
	require.Equal(t, filepath.Join(dir, "sub"), target)
	require.False(t, info.IsDir())

	info, err = fs.Stat("/link")
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestReadDir(t *testing.T) {
	_, fs := setupRoot(t)

	entries, err := fs.ReadDir("/")
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}

	sort.Strings(names)
	require.Equal(t, []string{"a.txt", "sub"}, names)

	_, err = fs.ReadDir("/a.txt")
	require.Error(t, err)

	_, err = fs.ReadDir("/missing")
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	_, fs := setupRoot(t)

	f, err := fs.Open("/sub/b.txt")
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, "/sub/b.txt", f.Name())

	info, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(6), info.Size())

	_, err = f.Seek(2, io.SeekStart)
	require.NoError(t, err)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "rld!", string(data))
}

func TestSymlinkOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "c.txt"), []byte("outside"), 0644))

	dir, fs := setupRoot(t)

	err := os.Symlink(outside, filepath.Join(dir, "external"))
	if err != nil {
		t.Skipf("symlinks not supported: %s", err)
	}

	info, err := fs.Stat("/external")
	require.NoError(t, err)
	require.True(t, info.IsDir())

	f, err := fs.Open("/external/c.txt")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "outside", string(data))

	_, err = fs.Open("/external/../../c.txt")
	require.ErrorIs(t, err, ErrPathForbidden)
}
