package log

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/datarhei/jsondir/encoding/json"
)

// Formatter turns an event into its textual representation.
type Formatter interface {
	Bytes(e *Event) []byte
	String(e *Event) string
}

type jsonFormatter struct{}

// NewJSONFormatter returns a formatter that writes one JSON object per event.
func NewJSONFormatter() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Bytes(e *Event) []byte {
	data := make(Fields, len(e.Data)+5)
	for k, v := range e.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	data["ts"] = e.Time
	data["level"] = e.Level.String()
	data["component"] = e.Component

	if len(e.Caller) != 0 {
		data["caller"] = e.Caller
	}

	if len(e.Message) != 0 {
		data["message"] = e.Message
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		encoded, _ = json.Marshal(Fields{
			"ts":        e.Time,
			"level":     e.Level.String(),
			"component": e.Component,
			"error":     err.Error(),
		})
	}

	return append(encoded, '\n')
}

func (f *jsonFormatter) String(e *Event) string {
	return string(f.Bytes(e))
}

type consoleFormatter struct {
	color bool
	local bool
}

// NewConsoleFormatter returns a formatter for human readable lines. With useColor
// the level and the keys are colored with ANSI escape sequences.
func NewConsoleFormatter(useColor bool) Formatter {
	return &consoleFormatter{
		color: useColor,
	}
}

// NewFileFormatter returns a formatter for human readable lines without colors
// and with timestamps in local time.
func NewFileFormatter() Formatter {
	return &consoleFormatter{
		color: false,
		local: true,
	}
}

func (f *consoleFormatter) Bytes(e *Event) []byte {
	return []byte(f.String(e))
}

func (f *consoleFormatter) String(e *Event) string {
	var datetime string
	if f.local {
		datetime = e.Time.Local().Format(time.RFC3339)
	} else {
		datetime = e.Time.UTC().Format(time.RFC3339)
	}

	level := e.Level.String()

	if f.color {
		switch e.Level {
		case Ldebug:
			level = fmt.Sprintf("\033[35m%s\033[0m", level)
		case Linfo:
			level = fmt.Sprintf("\033[34m%s\033[0m", level)
		case Lwarn:
			level = fmt.Sprintf("\033[33m%s\033[0m", level)
		case Lerror:
			level = fmt.Sprintf("\033[31m\033[5m%s\033[0m", level)
		default:
		}
	}

	var b strings.Builder

	b.WriteString(f.writeKV("ts", datetime))
	b.WriteString(" ")
	b.WriteString(f.writeKV("level", level))
	b.WriteString(" ")
	b.WriteString(f.writeKV("component", f.quote(e.Component)))

	if len(e.Message) != 0 {
		b.WriteString(" ")
		b.WriteString(f.writeKV("msg", f.quote(e.Message)))
	}

	keys := make([]string, 0, len(e.Data))
	for key := range e.Data {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		b.WriteString(" ")
		b.WriteString(f.writeKV(key, f.value(e.Data[key])))
	}

	b.WriteString("\n")

	return b.String()
}

func (f *consoleFormatter) value(value interface{}) string {
	switch val := value.(type) {
	case bool:
		return strconv.FormatBool(val)
	case string:
		return f.quote(val)
	case error:
		return f.quote(val.Error())
	case fmt.Stringer:
		return f.quote(val.String())
	}

	jsonvalue, err := json.Marshal(value)
	if err != nil {
		return f.quote(err.Error())
	}

	return string(jsonvalue)
}

func (f *consoleFormatter) writeKV(key string, value string) string {
	if !f.color {
		return key + "=" + value
	}

	if key == "error" {
		value = "\033[31m" + value + "\033[0m"
	}

	return fmt.Sprintf("\033[90m%s=\033[0m%s", key, value)
}

func (f *consoleFormatter) quote(s string) string {
	return strconv.Quote(s)
}
