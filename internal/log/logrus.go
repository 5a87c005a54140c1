package log

import "github.com/sirupsen/logrus"

// Logrus adapts a *logrus.Logger (or logrus.Entry) to the Logger interface.
// This mirrors the way the real Pulsar Go client lets callers plug a logrus
// logger into the client; the teacher pulls logrus in transitively for the
// same reason, we just use it directly.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus builds a Logger backed by the given *logrus.Logger. Pass
// logrus.StandardLogger() for process-wide defaults.
func NewLogrus(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{entry: logrus.NewEntry(l)}
}

func (l logrusLogger) Debug(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l logrusLogger) Info(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l logrusLogger) Warn(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l logrusLogger) Error(msg string, fields Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

func (l logrusLogger) WithFields(fields Fields) Logger {
	return logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
