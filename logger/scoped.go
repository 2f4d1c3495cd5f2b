package logger

import "fmt"

// Scoped prefixes every message with a component tag, e.g. "[render] ...".
// It is a value type and safe to share between goroutines.
type Scoped struct {
	prefix string
}

// For returns a logger tagged with component.
func For(component string) Scoped {
	return Scoped{prefix: "[" + component + "] "}
}

// With returns a copy tagged additionally with key=value, e.g. the render id.
func (s Scoped) With(key string, value interface{}) Scoped {
	return Scoped{prefix: s.prefix + fmt.Sprintf("%s=%v ", key, value)}
}

func (s Scoped) Debugf(format string, v ...interface{}) {
	output(DEBUG, 2, s.prefix+fmt.Sprintf(format, v...))
}

func (s Scoped) Infof(format string, v ...interface{}) {
	output(INFO, 2, s.prefix+fmt.Sprintf(format, v...))
}

func (s Scoped) Warnf(format string, v ...interface{}) {
	output(WARN, 2, s.prefix+fmt.Sprintf(format, v...))
}

func (s Scoped) Errorf(format string, v ...interface{}) {
	output(ERROR, 2, s.prefix+fmt.Sprintf(format, v...))
}
