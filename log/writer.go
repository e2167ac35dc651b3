package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/lestrrat-go/strftime"
	"github.com/mattn/go-isatty"
)

// Writer receives the events of a Logger.
type Writer interface {
	Write(e *Event) error
	Close()
}

type jsonWriter struct {
	writer    io.Writer
	level     Level
	formatter Formatter
}

// NewJSONWriter writes one JSON object per event with at least the given level to w.
func NewJSONWriter(w io.Writer, level Level) Writer {
	writer := &jsonWriter{
		writer:    w,
		level:     level,
		formatter: NewJSONFormatter(),
	}

	return NewSyncWriter(writer)
}

func (w *jsonWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	_, err := w.writer.Write(w.formatter.Bytes(e))

	return err
}

func (w *jsonWriter) Close() {}

type consoleWriter struct {
	writer    io.Writer
	level     Level
	formatter Formatter
}

// NewConsoleWriter writes human readable lines for events with at least the given
// level to w. Colors are only used if w is a terminal.
func NewConsoleWriter(w io.Writer, level Level, useColor bool) Writer {
	writer := &consoleWriter{
		writer: w,
		level:  level,
	}

	color := useColor

	if color {
		if w, ok := w.(*os.File); ok {
			if !isatty.IsTerminal(w.Fd()) && !isatty.IsCygwinTerminal(w.Fd()) {
				color = false
			}
		} else {
			color = false
		}
	}

	writer.formatter = NewConsoleFormatter(color)

	return NewSyncWriter(writer)
}

func (w *consoleWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	_, err := w.writer.Write(w.formatter.Bytes(e))

	return err
}

func (w *consoleWriter) Close() {}

type fileWriter struct {
	dir       string
	pattern   *strftime.Strftime
	level     Level
	formatter Formatter

	name string
	file *os.File
}

// NewFileWriter appends human readable lines to a file in dir. The name of the
// file is the strftime pattern applied to the time of the event, such that a
// pattern like "server_%Y%m%d.log" starts a new file every day. The directory
// is created if it doesn't exist.
func NewFileWriter(dir, pattern string, level Level) (Writer, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &fileWriter{
		dir:       dir,
		pattern:   p,
		level:     level,
		formatter: NewFileFormatter(),
	}

	return NewSyncWriter(writer), nil
}

func (w *fileWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	name := filepath.Join(w.dir, w.pattern.FormatString(e.Time.Local()))

	if name != w.name || w.file == nil {
		if w.file != nil {
			w.file.Close()
			w.file = nil
		}

		file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		w.name = name
		w.file = file
	}

	_, err := w.file.Write(w.formatter.Bytes(e))

	return err
}

func (w *fileWriter) Close() {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	w.name = ""
}

type syncWriter struct {
	mu     sync.Mutex
	writer Writer
}

// NewSyncWriter serializes the calls to the given writer.
func NewSyncWriter(writer Writer) Writer {
	return &syncWriter{
		writer: writer,
	}
}

func (w *syncWriter) Write(e *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writer.Write(e)
}

func (w *syncWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Close()
}

type multiWriter struct {
	writer []Writer
}

// NewMultiWriter passes each event to all given writers. A failing writer
// doesn't prevent the others from receiving the event.
func NewMultiWriter(writer ...Writer) Writer {
	mw := &multiWriter{}

	for _, w := range writer {
		if w == nil {
			continue
		}

		mw.writer = append(mw.writer, w)
	}

	return mw
}

func (w *multiWriter) Write(e *Event) error {
	var firstErr error

	for _, writer := range w.writer {
		if err := writer.Write(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (w *multiWriter) Close() {
	for _, writer := range w.writer {
		writer.Close()
	}
}

type bufferWriter struct {
	lock   sync.Mutex
	level  Level
	events []*Event
}

// BufferWriter keeps all events in memory.
type BufferWriter interface {
	Writer
	Events() []*Event
}

// NewBufferWriter returns a writer that keeps the events with at least the given level.
func NewBufferWriter(level Level) BufferWriter {
	return &bufferWriter{
		level: level,
	}
}

func (w *bufferWriter) Write(e *Event) error {
	if w.level < e.Level || e.Level == Lsilent {
		return nil
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	w.events = append(w.events, e.clone())

	return nil
}

func (w *bufferWriter) Close() {}

func (w *bufferWriter) Events() []*Event {
	w.lock.Lock()
	defer w.lock.Unlock()

	events := make([]*Event, 0, len(w.events))
	for _, e := range w.events {
		events = append(events, e.clone())
	}

	return events
}
