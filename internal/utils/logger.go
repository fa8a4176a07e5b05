package utils

import (
	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// AppLogger wraps logrus behind the Logger interface.
type AppLogger struct {
	log *logrus.Logger
}

func NewAppLogger() *AppLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return &AppLogger{log: l}
}

// SetDebug enables debug-level output.
func (l *AppLogger) SetDebug(enabled bool) {
	if enabled {
		l.log.SetLevel(logrus.DebugLevel)
	} else {
		l.log.SetLevel(logrus.InfoLevel)
	}
}

func (l *AppLogger) Debug(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

func (l *AppLogger) Info(msg string, args ...interface{}) {
	l.log.Infof(msg, args...)
}

func (l *AppLogger) Warn(msg string, args ...interface{}) {
	l.log.Warnf(msg, args...)
}

func (l *AppLogger) Error(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}
