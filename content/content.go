// Package content decides the Content-Type of a file and whether a client
// should be forced to download it instead of rendering it inline.
package content

import (
	"bufio"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
)

// DefaultContentType is used if no MIME type is known for an extension.
const DefaultContentType = "application/octet-stream"

// Entry is the policy for a file.
type Entry struct {
	MimeType      string
	ForceDownload bool
}

// builtin overrides any other source of MIME types. Some browsers mishandle
// these formats if they are served as application/octet-stream and don't
// render the presentation formats inline.
var builtin = map[string]Entry{
	"ppsx": {"application/vnd.openxmlformats-officedocument.presentationml.slideshow", true},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", true},
	"ppt":  {"application/vnd.ms-powerpoint", true},
	"pps":  {"application/vnd.ms-powerpoint", true},
	"pdf":  {"application/pdf", false},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", false},
	"doc":  {"application/msword", false},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
	"xls":  {"application/vnd.ms-excel", false},
}

// Config is the configuration for a Policy.
type Config struct {
	// MimeTypesFile is an optional file in the mime.types format, i.e. a MIME type
	// followed by a list of extensions per line. Lines starting with # are ignored.
	MimeTypesFile string
}

// Policy maps file names to an Entry. It is safe for concurrent use.
type Policy interface {
	// Lookup returns the Entry for the file name.
	Lookup(name string) Entry
}

type policy struct {
	mimeTypes map[string]string
}

// New returns a new Policy. An error is returned if the MIME types file can't be
// read. The returned Policy is usable anyways and only contains the built-in types.
func New(config Config) (Policy, error) {
	p := &policy{
		mimeTypes: map[string]string{},
	}

	if len(config.MimeTypesFile) == 0 {
		return p, nil
	}

	mimeTypes, err := loadMimeFile(config.MimeTypesFile)
	if err != nil {
		return p, fmt.Errorf("loading mime types from '%s' failed: %w", config.MimeTypesFile, err)
	}

	p.mimeTypes = mimeTypes

	return p, nil
}

func (p *policy) Lookup(name string) Entry {
	ext := Extension(name)
	if len(ext) == 0 {
		return Entry{MimeType: DefaultContentType}
	}

	if e, ok := builtin[ext]; ok {
		return e
	}

	if mimeType, ok := p.mimeTypes[ext]; ok {
		return Entry{MimeType: mimeType}
	}

	if mimeType := mime.TypeByExtension("." + ext); len(mimeType) != 0 {
		return Entry{MimeType: mimeType}
	}

	return Entry{MimeType: DefaultContentType}
}

// Extension returns the lowercased extension of the name without the leading dot.
// The leading dots of a dotfile don't start an extension.
func Extension(name string) string {
	base := strings.TrimLeft(path.Base(name), ".")

	return strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
}

func loadMimeFile(filename string) (map[string]string, error) {
	mimeTypes := make(map[string]string)

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) <= 1 || fields[0][0] == '#' {
			continue
		}
		mimeType := fields[0]

		for _, ext := range fields[1:] {
			if ext[0] == '#' {
				break
			}

			mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))] = mimeType
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mimeTypes, nil
}

// Disposition returns the value for a Content-Disposition header that forces a
// download of the file with the given name. Backslashes and quotes are escaped.
// Names with non-ASCII or control characters get an ASCII fallback and the
// RFC 6266 filename* parameter with the UTF-8 name.
func Disposition(filename string) string {
	plain := true

	fallback := strings.Builder{}
	fallback.Grow(len(filename))

	for _, r := range filename {
		switch {
		case r < 0x20 || r == 0x7f || r > 0x7e:
			plain = false
			fallback.WriteByte('_')
		case r == '"' || r == '\\':
			fallback.WriteByte('\\')
			fallback.WriteRune(r)
		default:
			fallback.WriteRune(r)
		}
	}

	value := `attachment; filename="` + fallback.String() + `"`

	if !plain {
		value += "; filename*=UTF-8''" + encodeRFC5987(filename)
	}

	return value
}

// encodeRFC5987 percent-encodes everything except the attr-char set.
func encodeRFC5987(s string) string {
	b := strings.Builder{}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}

		fmt.Fprintf(&b, "%%%02X", c)
	}

	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	return strings.IndexByte("!#$&+-.^_`|~", c) != -1
}
