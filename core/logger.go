package core

// Logger is the application-wide logging seam. Production wires a
// Rollbar-backed implementation; tests use a plain std logger.
//
// args may carry an error, a map of extra fields and/or the acting
// user.User (implementations decide what to do with each).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
