package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	log     = logrus.New()
	logFile *os.File
)

// Init initializes the logger and creates/opens the log file. Output goes to
// the file and to stderr.
func Init(logFilePath string) error {
	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return nil
}

// SetLevel adjusts verbosity from a config string ("debug", "info", ...).
// Unknown values leave the level at info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		return
	}
	log.SetLevel(parsed)
}

// Cleanup closes the log file when the application is done using it
func Cleanup() {
	if logFile != nil {
		logFile.Close()
	}
}

func Debug(v ...interface{}) {
	log.Debug(v...)
}

func Info(v ...interface{}) {
	log.Info(v...)
}

func Warn(v ...interface{}) {
	log.Warn(v...)
}

func Error(v ...interface{}) {
	log.Error(v...)
}

// WithField returns an entry carrying one structured field, for call sites
// that log the same subject repeatedly.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}
