package core

// Logger is the logging contract consumed by services and the API layer.
// Implementations may inspect args for known types (errors, users) and
// forward them to an error-tracking backend.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
