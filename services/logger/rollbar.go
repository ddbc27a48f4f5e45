package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarerrs "github.com/rollbar/rollbar-go/errors"

	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/user"
)

// RollbarLogger ships entries to Rollbar and mirrors them on a std logger so
// the server still has local output.
type RollbarLogger struct {
	out *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(out *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrs.StackTracer)
	return &RollbarLogger{out: out}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// tag sets the acting user.User (first one found in args) as the Rollbar
// person and returns msg followed by the non-user args.
func (l *RollbarLogger) tag(msg string, args []interface{}) []interface{} {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var tagged bool
	for _, arg := range args {
		usr, ok := arg.(user.User)
		if !ok {
			payload = append(payload, arg)
			continue
		}
		if !tagged {
			rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
			tagged = true
		}
	}
	if !tagged {
		rollbar.ClearPerson()
	}
	return payload
}

func (l *RollbarLogger) echo(msg string, args []interface{}) {
	l.out.Println(msg)
	for _, arg := range args {
		l.out.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.tag(msg, args)...)
	l.echo(msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.tag(msg, args)...)
	l.echo(msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.tag(msg, args)...)
	l.echo(msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.tag(msg, args)...)
	l.echo(msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.tag(msg, args)...)
	l.echo(msg, args)
	l.out.Fatal(msg)
}
