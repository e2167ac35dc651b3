package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RootedDiskConfig is the config required to create a new rooted disk filesystem.
type RootedDiskConfig struct {
	// Root is the path to the directory to expose. Relative paths are
	// resolved against the current working directory once.
	Root string
}

// diskFileInfo implements the FileInfo interface
type diskFileInfo struct {
	path  string
	finfo os.FileInfo
}

func (fi *diskFileInfo) Name() string {
	return fi.finfo.Name()
}

func (fi *diskFileInfo) Size() int64 {
	return fi.finfo.Size()
}

func (fi *diskFileInfo) Mode() fs.FileMode {
	return fi.finfo.Mode()
}

func (fi *diskFileInfo) ModTime() time.Time {
	return fi.finfo.ModTime()
}

func (fi *diskFileInfo) IsLink() (string, bool) {
	if fi.finfo.Mode()&os.ModeSymlink == 0 {
		return "", false
	}

	target, err := os.Readlink(fi.path)
	if err != nil {
		return "", true
	}

	return target, true
}

func (fi *diskFileInfo) IsDir() bool {
	return fi.finfo.IsDir()
}

// diskFile implements the File interface
type diskFile struct {
	name string
	path string
	file *os.File
}

func (f *diskFile) Name() string {
	return f.name
}

func (f *diskFile) Stat() (FileInfo, error) {
	finfo, err := f.file.Stat()
	if err != nil {
		return nil, err
	}

	return &diskFileInfo{
		path:  f.path,
		finfo: finfo,
	}, nil
}

func (f *diskFile) Read(p []byte) (int, error) {
	return f.file.Read(p)
}

func (f *diskFile) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

func (f *diskFile) Close() error {
	return f.file.Close()
}

// rootedDiskFilesystem implements the Filesystem interface
type rootedDiskFilesystem struct {
	root string
}

// NewRootedDiskFilesystem returns a read-only filesystem for the directory given in the config.
func NewRootedDiskFilesystem(config RootedDiskConfig) (Filesystem, error) {
	if len(config.Root) == 0 {
		return nil, fmt.Errorf("invalid root path provided")
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, err
	}

	finfo, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("the provided root path '%s' doesn't exist", root)
	}

	if !finfo.IsDir() {
		return nil, fmt.Errorf("the provided root path '%s' must be a directory", root)
	}

	return &rootedDiskFilesystem{
		root: root,
	}, nil
}

func (r *rootedDiskFilesystem) Root() string {
	return r.root
}

func (r *rootedDiskFilesystem) Resolve(path string) (string, error) {
	if escapesRoot(path) {
		return "", ErrPathForbidden
	}

	abspath := filepath.Join(r.root, filepath.FromSlash(path))

	// Catches separators that are only special on this platform, e.g. a backslash.
	rel, err := filepath.Rel(r.root, abspath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathForbidden
	}

	return abspath, nil
}

func (r *rootedDiskFilesystem) Stat(path string) (FileInfo, error) {
	abspath, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	finfo, err := os.Stat(abspath)
	if err != nil {
		return nil, err
	}

	return &diskFileInfo{
		path:  abspath,
		finfo: finfo,
	}, nil
}

func (r *rootedDiskFilesystem) Lstat(path string) (FileInfo, error) {
	abspath, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	finfo, err := os.Lstat(abspath)
	if err != nil {
		return nil, err
	}

	return &diskFileInfo{
		path:  abspath,
		finfo: finfo,
	}, nil
}

func (r *rootedDiskFilesystem) ReadDir(path string) ([]fs.DirEntry, error) {
	abspath, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	dir, err := os.Open(abspath)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	// Unlike os.ReadDir, the entries are not sorted.
	return dir.ReadDir(-1)
}

func (r *rootedDiskFilesystem) Open(path string) (File, error) {
	abspath, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abspath)
	if err != nil {
		return nil, err
	}

	return &diskFile{
		name: path,
		path: abspath,
		file: f,
	}, nil
}

// escapesRoot returns whether the slash separated path climbs above its
// starting point with ".." segments at any position.
func escapesRoot(path string) bool {
	depth := 0

	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}

	return false
}
