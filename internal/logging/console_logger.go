package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Format selects how log events are rendered.
type Format string

const (
	// FormatConsole renders aligned, human-readable lines.
	FormatConsole Format = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat maps the --log-format flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want console or json)", s)
	}
}

// Options configures a ConsoleLogger.
type Options struct {
	Verbose bool
	Format  Format

	// Output defaults to os.Stderr.
	Output io.Writer

	// RunID is attached to every event as run_id when non-empty.
	RunID string
}

// ConsoleLogger writes log events to stderr through zerolog.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	log     zerolog.Logger
}

// New creates a ConsoleLogger from options.
func New(opts Options) *ConsoleLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer
	if opts.Format == FormatJSON {
		w = zerolog.SyncWriter(out)
	} else {
		w = zerolog.ConsoleWriter{
			Out:        zerolog.SyncWriter(out),
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run_id", opts.RunID)
	}

	return &ConsoleLogger{
		verbose: opts.Verbose,
		log:     ctx.Logger(),
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.log.Debug().Msg(render(format, args))
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.log.Info().Msg(render(format, args))
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.log.Error().Msg(render(format, args))
}

func render(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
