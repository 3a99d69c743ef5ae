package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/pkg/ingest"
)

var (
	_ ingest.Logger = (*ConsoleLogger)(nil)
	_ ingest.Logger = (*NullLogger)(nil)
)

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), "line %q", line)
		events = append(events, ev)
	}
	return events
}

func TestConsoleLogger_JSON_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: FormatJSON, Output: &buf, Verbose: true, RunID: "run-1"})

	logger.Verbose("staging %s", "output.csv")
	logger.Info("inserted another chunk, took %.3f second", 1.5)
	logger.Error("failed")

	events := decodeLines(t, buf.String())
	require.Len(t, events, 3)

	assert.Equal(t, "debug", events[0]["level"])
	assert.Equal(t, "staging output.csv", events[0]["message"])
	assert.Equal(t, "info", events[1]["level"])
	assert.Equal(t, "inserted another chunk, took 1.500 second", events[1]["message"])
	assert.Equal(t, "error", events[2]["level"])
	for _, ev := range events {
		assert.Equal(t, "run-1", ev["run_id"])
		assert.Contains(t, ev, "time")
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: FormatJSON, Output: &buf})

	logger.Verbose("hidden")

	assert.Empty(t, buf.String())
}

func TestConsoleLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: FormatConsole, Output: &buf})

	logger.Info("completed")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "completed")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
}

func TestConsoleLogger_MessageWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: FormatJSON, Output: &buf})

	logger.Info("100% done")

	events := decodeLines(t, buf.String())
	require.Len(t, events, 1)
	assert.Equal(t, "100% done", events[0]["message"])
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: FormatJSON, Output: &buf, Verbose: true})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	// Every line must still be a complete JSON object
	events := decodeLines(t, buf.String())
	assert.Len(t, events, 30)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNullLogger_ConcurrentSafety(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}

	wg.Wait()
}
