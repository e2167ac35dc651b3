package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/datarhei/jsondir/content"
	"github.com/datarhei/jsondir/encoding/json"
	"github.com/datarhei/jsondir/http/api"
	"github.com/datarhei/jsondir/http/middleware/mime"
	"github.com/datarhei/jsondir/http/mock"
	"github.com/datarhei/jsondir/io/fs"
	"github.com/datarhei/jsondir/listing"
	"github.com/datarhei/jsondir/log"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// lstatFailingFilesystem fails Lstat for a single path, as if the entry
// vanished after the directory has been read.
type lstatFailingFilesystem struct {
	fs.Filesystem

	path string
}

func (f *lstatFailingFilesystem) Lstat(path string) (fs.FileInfo, error) {
	if path == f.path {
		return nil, os.ErrPermission
	}

	return f.Filesystem.Lstat(path)
}

func getDummyDirectoryRouter(t *testing.T, root string) (*echo.Echo, log.BufferWriter) {
	fsys, err := fs.NewRootedDiskFilesystem(fs.RootedDiskConfig{Root: root})
	require.NoError(t, err)

	return getDummyDirectoryRouterWithFilesystem(t, fsys)
}

func getDummyDirectoryRouterWithFilesystem(t *testing.T, fsys fs.Filesystem) (*echo.Echo, log.BufferWriter) {
	router := mock.DummyEcho()

	buffer := log.NewBufferWriter(log.Lwarn)
	logger := log.New("HTTP").WithOutput(buffer)

	builder, err := listing.NewBuilder(listing.Config{
		Filesystem: fsys,
		Logger:     logger,
	})
	require.NoError(t, err)

	policy, err := content.New(content.Config{})
	require.NoError(t, err)

	handler := NewDirectory(DirectoryConfig{
		Filesystem: fsys,
		Builder:    builder,
		Policy:     policy,
		Logger:     logger,
	})

	router.Use(mime.NewWithConfig(mime.Config{
		Policy: policy,
	}))

	router.GET("/*", handler.Get)
	router.HEAD("/*", handler.Get)
	router.OPTIONS("/*", handler.Options)

	return router, buffer
}

func mustAtoi(t *testing.T, s string) int {
	n, err := strconv.Atoi(s)
	require.NoError(t, err)

	return n
}

func setupRoot(t *testing.T) string {
	dir := t.TempDir()

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	t1 := t0.Add(time.Hour)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("%PDF-1.4"), 0644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "report.pdf"), t0, t0))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archive", `my "q1" deck.pptx`), []byte("slides"), 0644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "archive"), t1, t1))

	return dir
}

func TestListRoot(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "GET", "/", nil)

	require.Equal(t, "application/json; charset=utf-8", response.Header.Get("Content-Type"))
	require.Equal(t, len(response.Raw), mustAtoi(t, response.Header.Get("Content-Length")))

	mock.Validate(t, &listing.DirectoryListing{}, response.Data)

	l := listing.DirectoryListing{}
	require.NoError(t, json.Unmarshal(response.Raw, &l))

	require.Equal(t, "/", l.Directory)
	require.Equal(t, 2, l.TotalItems)
	require.Equal(t, "archive", l.Files[0].Name)
	require.Equal(t, listing.TypeDirectory, l.Files[0].Type)
	require.Equal(t, "/archive", l.Files[0].Path)
	require.Equal(t, "report.pdf", l.Files[1].Name)
	require.Equal(t, "/report.pdf", l.Files[1].Path)

	require.Contains(t, string(response.Raw), "\n  \"directory\": \"/\",\n")
}

func TestListSubdirectory(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "GET", "/archive/", nil)

	l := listing.DirectoryListing{}
	require.NoError(t, json.Unmarshal(response.Raw, &l))

	require.Equal(t, "/archive/", l.Directory)
	require.Equal(t, 1, l.TotalItems)
	require.Equal(t, `/archive/my "q1" deck.pptx`, l.Files[0].Path)
	require.Equal(t, "pptx", *l.Files[0].Extension)
}

func TestListGlob(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "GET", "/?glob=*.pdf", nil)

	l := listing.DirectoryListing{}
	require.NoError(t, json.Unmarshal(response.Raw, &l))
	require.Equal(t, 1, l.TotalItems)
	require.Equal(t, "report.pdf", l.Files[0].Name)

	response = mock.Request(t, http.StatusBadRequest, router, "GET", "/?glob=%5Ba-", nil)
	require.Equal(t, "Invalid glob pattern", response.Message)
}

func TestListStatFailure(t *testing.T) {
	fsys, err := fs.NewRootedDiskFilesystem(fs.RootedDiskConfig{Root: setupRoot(t)})
	require.NoError(t, err)

	router, _ := getDummyDirectoryRouterWithFilesystem(t, &lstatFailingFilesystem{
		Filesystem: fsys,
		path:       "/report.pdf",
	})

	response := mock.Request(t, http.StatusOK, router, "GET", "/", nil)

	mock.Validate(t, &listing.DirectoryListing{}, response.Data)

	l := listing.DirectoryListing{}
	require.NoError(t, json.Unmarshal(response.Raw, &l))
	require.Equal(t, 2, l.TotalItems)

	var entry *listing.FileEntry
	for i := range l.Files {
		if l.Files[i].Name == "report.pdf" {
			entry = &l.Files[i]
		}
	}

	require.NotNil(t, entry)
	require.Equal(t, listing.TypeFile, entry.Type)
	require.Equal(t, int64(0), entry.Size)
	require.Equal(t, float64(0), entry.ModifiedTimestamp)
	require.Nil(t, entry.ModifiedISO)
	require.Equal(t, "pdf", *entry.Extension)

	require.Contains(t, string(response.Raw), `"size_bytes": 0,`)
	require.Contains(t, string(response.Raw), `"modified_iso": null,`)
}

func TestFilePDF(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "GET", "/report.pdf", nil)

	require.Equal(t, "application/pdf", response.Header.Get("Content-Type"))
	require.Empty(t, response.Header.Get("Content-Disposition"))
	require.Equal(t, "%PDF-1.4", string(response.Raw))
}

func TestFileForceDownload(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "GET", "/archive/my%20%22q1%22%20deck.pptx", nil)

	require.Equal(t, "application/vnd.openxmlformats-officedocument.presentationml.presentation", response.Header.Get("Content-Type"))
	require.Equal(t, `attachment; filename="my \"q1\" deck.pptx"`, response.Header.Get("Content-Disposition"))
	require.Equal(t, "slides", string(response.Raw))
}

func TestFileRange(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.RequestWithHeader(t, http.StatusPartialContent, router, "GET", "/report.pdf", http.Header{
		"Range": []string{"bytes=1-3"},
	}, nil)

	require.Equal(t, "PDF", string(response.Raw))
	require.Equal(t, "bytes 1-3/8", response.Header.Get("Content-Range"))
}

func TestFileHead(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "HEAD", "/report.pdf", nil)

	require.Equal(t, "8", response.Header.Get("Content-Length"))
	require.Empty(t, response.Raw)
}

func TestNotFound(t *testing.T) {
	router, buffer := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusNotFound, router, "GET", "/missing.pdf", nil)

	mock.Validate(t, &api.Error{}, response.Data)
	require.Equal(t, "File not found", response.Message)
	require.Empty(t, buffer.Events())

	response = mock.Request(t, http.StatusNotFound, router, "HEAD", "/missing", nil)
	require.Empty(t, response.Raw)
}

func TestTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")

	require.NoError(t, os.Mkdir(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0644))

	router, buffer := getDummyDirectoryRouter(t, root)

	for _, path := range []string{"/../", "/..", "/../secret.txt", "/%2e%2e/", "/a/../../secret.txt"} {
		response := mock.Request(t, http.StatusNotFound, router, "GET", path, nil)
		require.NotEqual(t, "secret", string(response.Raw), path)
		require.NotContains(t, string(response.Raw), "total_items", path)
	}

	events := buffer.Events()
	require.NotEmpty(t, events)

	for _, e := range events {
		require.Equal(t, log.Lwarn, e.Level)
	}
}

func TestListingUnavailable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := setupRoot(t)
	locked := filepath.Join(dir, "locked")

	require.NoError(t, os.Mkdir(locked, 0755))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	router, buffer := getDummyDirectoryRouter(t, dir)

	response := mock.Request(t, http.StatusNotFound, router, "GET", "/locked", nil)
	require.Equal(t, "Directory not found", response.Message)

	events := buffer.Events()
	require.Len(t, events, 1)
	require.Equal(t, log.Lwarn, events[0].Level)
}

func TestOptions(t *testing.T) {
	router, _ := getDummyDirectoryRouter(t, setupRoot(t))

	response := mock.Request(t, http.StatusOK, router, "OPTIONS", "/anything", nil)
	require.Empty(t, response.Raw)
}
