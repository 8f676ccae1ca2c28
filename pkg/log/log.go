package log

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type LogFormat string

var (
	Pretty LogFormat = "pretty"
	JSON   LogFormat = "json"
	Text   LogFormat = "text"
)

var (
	stderr = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Stdout is used for results that are meant to be piped, everything else goes to stderr
	Stdout = zerolog.New(os.Stdout).With().Timestamp().Logger()

	globalFormat LogFormat = "json"
)

// Event helpers for the stderr logger

func Fatal() *zerolog.Event { return stderr.Fatal() }
func Panic() *zerolog.Event { return stderr.Panic() }
func Error() *zerolog.Event { return stderr.Error() }
func Warn() *zerolog.Event  { return stderr.Warn() }
func Info() *zerolog.Event  { return stderr.Info() }
func Debug() *zerolog.Event { return stderr.Debug() }
func Trace() *zerolog.Event { return stderr.Trace() }

func Err(err error) *zerolog.Event { return stderr.Err(err) }
func With() zerolog.Context        { return stderr.With() }
func GetLevel() zerolog.Level      { return stderr.GetLevel() }

const (
	FatalLevel = zerolog.FatalLevel
	PanicLevel = zerolog.PanicLevel
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
	TraceLevel = zerolog.TraceLevel
)

func SetLevelString(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	stderr = stderr.Level(l)
	Stdout = Stdout.Level(l)
	return nil
}

// SetOutput redirects the stderr logger. Mostly useful for tests that want to assert on log lines
func SetOutput(w io.Writer) {
	stderr = stderr.Output(w)
}

var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported format. supported 'json', 'pretty', 'text")
)

func GetLogFormat() LogFormat {
	return globalFormat
}

func SetFormat(format string) error {
	switch format {
	case "json", "":
		globalFormat = JSON
	case "pretty":
		stderr = stderr.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false, TimeFormat: "\r3:04PM"})
		Stdout = Stdout.Output(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: "\r3:04PM"})
		globalFormat = Pretty
	case "text":
		stderr = stderr.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: "\r3:04PM"})
		Stdout = Stdout.Output(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: "\r3:04PM"})
		globalFormat = Text
	default:
		return ErrUnsupportedFormat
	}
	return nil
}
