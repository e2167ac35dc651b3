// Package log bridges the output of the echo logger to an io.Writer, e.g. a log.Logger.
package log

import (
	"encoding/json"
	"io"
	"strings"
)

type logwrapper struct {
	writer io.Writer
}

type logentry struct {
	Message string `json:"message"`
}

// NewWrapper returns an io.Writer that extracts the message from the JSON lines
// echo writes and forwards each line of it to writer. Anything else is forwarded
// unchanged.
func NewWrapper(writer io.Writer) io.Writer {
	return &logwrapper{
		writer: writer,
	}
}

func (b *logwrapper) Write(p []byte) (int, error) {
	entry := logentry{}
	if err := json.Unmarshal(p, &entry); err == nil {
		if len(entry.Message) != 0 {
			for _, line := range strings.Split(entry.Message, "\n") {
				if _, err := b.writer.Write([]byte(line)); err != nil {
					return 0, err
				}
			}

			return len(p), nil
		}
	}

	return b.writer.Write(p)
}
