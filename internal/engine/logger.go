package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogOutput selects the stream an enabled logger writes to.
type LogOutput int

const (
	StdOut LogOutput = iota
	StdErr
)

func (o LogOutput) Writer() io.Writer {
	if o == StdOut {
		return os.Stdout
	}
	return os.Stderr
}

// NewLogger returns an enabled logger writing one plain line per event to out,
// each line starting with prefix. Fields are appended as key=value.
func NewLogger(out io.Writer, prefix string) zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		PartsOrder: []string{zerolog.MessageFieldName},
		FormatMessage: func(i interface{}) string {
			return prefix + fmt.Sprint(i)
		},
	}
	return zerolog.New(w).Level(zerolog.DebugLevel)
}

// Logger is NewLogger on a standard stream.
func Logger(output LogOutput, prefix string) zerolog.Logger {
	return NewLogger(output.Writer(), prefix)
}

// LoggerOff accepts and discards everything.
func LoggerOff() zerolog.Logger {
	return zerolog.Nop()
}
