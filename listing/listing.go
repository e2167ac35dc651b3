// Package listing turns one level of a directory into a DirectoryListing. The
// children are described by their own metadata (symbolic links are not followed)
// and ordered by their modification time, newest first.
package listing

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/datarhei/jsondir/glob"
	"github.com/datarhei/jsondir/io/fs"
	"github.com/datarhei/jsondir/log"
	timesrc "github.com/datarhei/jsondir/time"
)

// ErrListingUnavailable is returned if the directory can't be enumerated.
var ErrListingUnavailable = errors.New("listing unavailable")

// Type is the type of a directory entry.
type Type string

const (
	TypeFile      Type = "file"
	TypeDirectory Type = "directory"
	TypeSymlink   Type = "symlink"
)

// FileEntry describes one child of a directory.
type FileEntry struct {
	Name              string  `json:"name"`
	Extension         *string `json:"extension" jsonschema:"nullable"`
	Type              Type    `json:"type" jsonschema:"enum=file,enum=directory,enum=symlink"`
	Size              int64   `json:"size_bytes"`
	ModifiedTimestamp float64 `json:"modified_timestamp"`
	ModifiedISO       *string `json:"modified_iso" jsonschema:"nullable"`
	Path              string  `json:"path"`
}

// DirectoryListing is the description of a directory and its children.
type DirectoryListing struct {
	Directory   string      `json:"directory"`
	TotalItems  int         `json:"total_items"`
	GeneratedAt string      `json:"generated_at"`
	Files       []FileEntry `json:"files"`
}

// Config is the configuration for a Builder.
type Config struct {
	Filesystem fs.Filesystem
	Clock      timesrc.Source
	Logger     log.Logger
}

// Builder creates directory listings.
type Builder interface {
	// Build lists the directory at path. The display path is the decoded request
	// path and used for the directory and the path of each entry.
	Build(path, display string) (*DirectoryListing, error)

	// BuildMatching is like Build but only keeps the entries whose name matches the
	// glob pattern. An empty pattern matches all entries.
	BuildMatching(path, display, pattern string) (*DirectoryListing, error)
}

type builder struct {
	fs     fs.Filesystem
	clock  timesrc.Source
	logger log.Logger
}

// NewBuilder returns a new Builder for the filesystem in the config.
func NewBuilder(config Config) (Builder, error) {
	if config.Filesystem == nil {
		return nil, fmt.Errorf("no filesystem provided")
	}

	b := &builder{
		fs:     config.Filesystem,
		clock:  config.Clock,
		logger: config.Logger,
	}

	if b.clock == nil {
		b.clock = &timesrc.StdSource{}
	}

	if b.logger == nil {
		b.logger = log.New("")
	}

	return b, nil
}

func (b *builder) Build(path, display string) (*DirectoryListing, error) {
	return b.BuildMatching(path, display, "")
}

func (b *builder) BuildMatching(dirpath, display, pattern string) (*DirectoryListing, error) {
	var filter glob.Glob

	if len(pattern) != 0 {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}

		filter = g
	}

	entries, err := b.fs.ReadDir(dirpath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingUnavailable, err)
	}

	if len(display) == 0 {
		display = "/"
	}

	files := make([]FileEntry, 0, len(entries))

	for _, e := range entries {
		name := e.Name()

		if filter != nil && !filter.Match(name) {
			continue
		}

		files = append(files, b.describe(path.Join(dirpath, name), joinDisplay(display, name), e.Type()))
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTimestamp > files[j].ModifiedTimestamp
	})

	return &DirectoryListing{
		Directory:   display,
		TotalItems:  len(files),
		GeneratedAt: isoformat(b.clock.Now()),
		Files:       files,
	}, nil
}

func (b *builder) describe(path, display string, hint iofs.FileMode) FileEntry {
	entry, err := describe(b.fs, path, display, hint)
	if err != nil {
		b.logger.Debug().WithError(err).WithField("path", display).Log("Reading metadata failed")
	}

	return entry
}

// Describe returns the FileEntry for the file at path. The display path is
// reported as the path of the entry. If the metadata can't be read, the size and
// the times are zero and the type is derived from the hint.
func Describe(fsys fs.Filesystem, path, display string, hint iofs.FileMode) FileEntry {
	entry, _ := describe(fsys, path, display, hint)

	return entry
}

func describe(fsys fs.Filesystem, filepath, display string, hint iofs.FileMode) (FileEntry, error) {
	name := path.Base(filepath)

	entry := FileEntry{
		Name:      name,
		Extension: extension(name),
		Type:      typeOf(hint),
		Path:      display,
	}

	info, err := fsys.Lstat(filepath)
	if err != nil {
		return entry, err
	}

	modTime := info.ModTime()
	iso := isoformat(modTime)

	entry.Type = typeOf(info.Mode())
	entry.Size = info.Size()
	entry.ModifiedTimestamp = float64(modTime.Unix()) + float64(modTime.Nanosecond())/float64(time.Second)
	entry.ModifiedISO = &iso

	return entry, nil
}

func typeOf(mode iofs.FileMode) Type {
	if mode&iofs.ModeSymlink != 0 {
		return TypeSymlink
	}

	if mode.IsDir() {
		return TypeDirectory
	}

	return TypeFile
}

// joinDisplay joins the display path of the directory with the name of an entry
// and replaces a doubled slash by a single one.
func joinDisplay(display, name string) string {
	return strings.ReplaceAll(display+"/"+name, "//", "/")
}

// extension returns the lowercased extension of the name without the leading dot.
// Leading dots of the name are not considered as an extension separator.
func extension(name string) *string {
	ext := strings.ToLower(strings.TrimPrefix(splitext(name), "."))
	if len(ext) == 0 {
		return nil
	}

	return &ext
}

func splitext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}

	if len(strings.TrimLeft(name[:i], ".")) == 0 {
		return ""
	}

	return name[i:]
}

// isoformat formats t in local time. Fractional seconds are only added if
// there are any microseconds.
func isoformat(t time.Time) string {
	t = t.Local()

	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05")
	}

	return t.Format("2006-01-02T15:04:05.000000")
}
