package log

import (
	"bufio"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoglevelNames(t *testing.T) {
	assert.Equal(t, "DEBUG", Ldebug.String())
	assert.Equal(t, "ERROR", Lerror.String())
	assert.Equal(t, "WARN", Lwarn.String())
	assert.Equal(t, "INFO", Linfo.String())
	assert.Equal(t, `SILENT`, Lsilent.String())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, Lwarn, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, Ldebug, level)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}

func TestLogColorToNotTTY(t *testing.T) {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)

	w := NewConsoleWriter(writer, Linfo, true).(*syncWriter)
	formatter := w.writer.(*consoleWriter).formatter.(*consoleFormatter)

	assert.NotEqual(t, true, formatter.color, "Color should not be used on a buffer logger")
}

func TestLogComponent(t *testing.T) {
	var buffer bytes.Buffer

	logger := New("Core").WithOutput(NewConsoleWriter(&buffer, Linfo, false))

	logger.Info().Log("info")
	assert.Contains(t, buffer.String(), `component="Core"`)

	buffer.Reset()

	logger.WithComponent("HTTP").Info().Log("info")
	assert.Contains(t, buffer.String(), `component="HTTP"`)

	buffer.Reset()

	logger.Info().Log("info")
	assert.Contains(t, buffer.String(), `component="Core"`)
}

func TestLogFieldsDontLeak(t *testing.T) {
	buffer := NewBufferWriter(Ldebug)

	logger := New("test").WithOutput(buffer)

	withPath := logger.WithField("path", "/a")
	withPath.WithField("status", 404).Warn().Log("not found")
	withPath.Info().Log("found")

	events := buffer.Events()
	require.Len(t, events, 2)

	require.Equal(t, Lwarn, events[0].Level)
	require.Equal(t, Fields{"path": "/a", "status": 404}, events[0].Data)

	require.Equal(t, Linfo, events[1].Level)
	require.Equal(t, Fields{"path": "/a"}, events[1].Data)
}

func TestLogWithError(t *testing.T) {
	buffer := NewBufferWriter(Ldebug)

	logger := New("test").WithOutput(buffer)

	logger.WithError(nil).Error().Log("no error")
	logger.WithError(fmt.Errorf("boom")).Error().Log("error")

	events := buffer.Events()
	require.Len(t, events, 2)
	require.NotContains(t, events[0].Data, "error")
	require.Equal(t, "boom", events[1].Data["error"].(error).Error())
}

func TestLogDefaultsToDebug(t *testing.T) {
	buffer := NewBufferWriter(Ldebug)

	New("test").WithOutput(buffer).Log("hello %s", "world")

	events := buffer.Events()
	require.Len(t, events, 1)
	require.Equal(t, Ldebug, events[0].Level)
	require.Equal(t, "hello world", events[0].Message)
	require.NotEmpty(t, events[0].Caller)
}

func TestLogWithoutOutput(t *testing.T) {
	require.NotPanics(t, func() {
		logger := New("test")
		logger.Info().Log("nothing")
		logger.Close()
	})
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    Level
		expected []string
	}{
		{Lsilent, nil},
		{Lerror, []string{"error"}},
		{Lwarn, []string{"warn", "error"}},
		{Linfo, []string{"info", "warn", "error"}},
		{Ldebug, []string{"debug", "info", "warn", "error"}},
	}

	for _, test := range tests {
		t.Run(test.level.String(), func(t *testing.T) {
			buffer := NewBufferWriter(test.level)

			logger := New("test").WithOutput(buffer)

			logger.Debug().Log("debug")
			logger.Info().Log("info")
			logger.Warn().Log("warn")
			logger.Error().Log("error")

			messages := []string{}
			for _, e := range buffer.Events() {
				messages = append(messages, e.Message)
			}

			if test.expected == nil {
				require.Empty(t, messages)
			} else {
				require.Equal(t, test.expected, messages)
			}
		})
	}
}

func TestLogWrite(t *testing.T) {
	buffer := NewBufferWriter(Ldebug)

	logger := New("test").WithOutput(buffer)

	n, err := logger.Warn().Write([]byte("http: TLS handshake error\n"))
	require.NoError(t, err)
	require.Equal(t, 26, n)

	events := buffer.Events()
	require.Len(t, events, 1)
	require.Equal(t, Lwarn, events[0].Level)
	require.Equal(t, "http: TLS handshake error", events[0].Message)
}
