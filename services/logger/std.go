package logsvc

import (
	"log"

	"github.com/pfebridge/pfebridge/core"
)

// StdLogger writes to the standard log only; used in DEV and in tests
// where Rollbar would be noise.
type StdLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std, enabled: true}
}

func (l *StdLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *StdLogger) print(level, msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

func (l *StdLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
