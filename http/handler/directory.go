package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/datarhei/jsondir/content"
	"github.com/datarhei/jsondir/encoding/json"
	"github.com/datarhei/jsondir/http/api"
	"github.com/datarhei/jsondir/http/handler/util"
	"github.com/datarhei/jsondir/http/middleware/mime"
	"github.com/datarhei/jsondir/io/fs"
	"github.com/datarhei/jsondir/listing"
	"github.com/datarhei/jsondir/log"
	"github.com/datarhei/jsondir/prometheus"

	"github.com/labstack/echo/v4"
)

// MIMEApplicationJSONCharsetUTF8 is the content type of the directory listings.
const MIMEApplicationJSONCharsetUTF8 = "application/json; charset=utf-8"

// DirectoryConfig is the configuration for a DirectoryHandler.
type DirectoryConfig struct {
	Filesystem fs.Filesystem
	Builder    listing.Builder
	Policy     content.Policy
	Metrics    prometheus.HTTPObserver
	Logger     log.Logger
}

// The DirectoryHandler type provides handlers for directory listings and files
type DirectoryHandler struct {
	fs      fs.Filesystem
	builder listing.Builder
	policy  content.Policy
	metrics prometheus.HTTPObserver
	logger  log.Logger
}

// NewDirectory returns a new DirectoryHandler. The Filesystem and the Builder are required.
func NewDirectory(config DirectoryConfig) *DirectoryHandler {
	h := &DirectoryHandler{
		fs:      config.Filesystem,
		builder: config.Builder,
		policy:  config.Policy,
		metrics: config.Metrics,
		logger:  config.Logger,
	}

	if h.policy == nil {
		h.policy, _ = content.New(content.Config{})
	}

	if h.logger == nil {
		h.logger = log.New("")
	}

	return h
}

// Get returns the listing of a directory as JSON or the contents of a file.
func (h *DirectoryHandler) Get(c echo.Context) error {
	path := util.RequestPath(c)

	info, err := h.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrPathForbidden) {
			h.logger.Warn().WithField("path", path).Log("Path outside of the root directory")
		}

		return api.Err(http.StatusNotFound, "File not found", "%s", path)
	}

	if info.IsDir() {
		return h.list(c, path)
	}

	return h.serve(c, path)
}

// Options answers preflight requests with an empty 200. In the server the CORS
// middleware answers them first; this handler registers the OPTIONS route such
// that the router doesn't reply with 405 when the middleware is skipped.
func (h *DirectoryHandler) Options(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *DirectoryHandler) list(c echo.Context, path string) error {
	pattern := util.DefaultQuery(c, "glob", "")

	l, err := h.builder.BuildMatching(path, path, pattern)
	if err != nil {
		if errors.Is(err, listing.ErrListingUnavailable) {
			h.observeListing(0, false)
			h.logger.Warn().WithError(err).WithField("path", path).Log("Listing directory failed")
			return api.Err(http.StatusNotFound, "Directory not found", "%s", path)
		}

		return api.Err(http.StatusBadRequest, "Invalid glob pattern", "%s", err)
	}

	h.observeListing(l.TotalItems, true)

	data, err := json.Encode(l, 2)
	if err != nil {
		return api.Err(http.StatusInternalServerError, "Encoding listing failed", "%s", err)
	}

	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))

	return c.Blob(http.StatusOK, MIMEApplicationJSONCharsetUTF8, data)
}

func (h *DirectoryHandler) serve(c echo.Context, path string) error {
	file, err := h.fs.Open(path)
	if err != nil {
		return api.Err(http.StatusNotFound, "File not found", "%s", path)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return api.Err(http.StatusNotFound, "File not found", "%s", path)
	}

	entry, ok := mime.FromContext(c)
	if !ok {
		entry = h.policy.Lookup(path)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, entry.MimeType)

	if entry.ForceDownload {
		header.Set(echo.HeaderContentDisposition, content.Disposition(stat.Name()))
	}

	http.ServeContent(c.Response(), c.Request(), stat.Name(), stat.ModTime(), file)

	return nil
}

func (h *DirectoryHandler) observeListing(items int, ok bool) {
	if h.metrics == nil {
		return
	}

	h.metrics.ObserveListing(items, ok)
}
