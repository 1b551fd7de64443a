package core

// Logger is any service that can report application events.
// args may contain errors, map[string]interface{} extras and at most one Actor (the caller).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
