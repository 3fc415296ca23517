// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"lid-agent/internal/config"
)

var rotator *lumberjack.Logger

// Init sets the logrus formatter, level and outputs from config. Logs go to
// stdout unless disabled and, when a file is configured, to a rotated file.
func Init(c config.LogConfig) error {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if err := Close(); err != nil {
		return errors.Wrap(err, "couldn't close previous log file")
	}
	rotator = nil

	log.SetFormatter(formatter(c.Formatter))
	var writers []io.Writer
	if c.LogStdout() {
		writers = append(writers, os.Stdout)
	}
	if c.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
		}
		writers = append(writers, rotator)
	}
	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}
	return SetLevel(lvl.String())
}

// Close closes the log file, if any.
func Close() error {
	if rotator == nil {
		return nil
	}
	return rotator.Close()
}

// SetLevel changes the level of the standard logger.
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if lvl != log.GetLevel() {
		log.SetLevel(lvl)
		log.Infof("Log level set to %s", lvl)
	}
	return nil
}

func formatter(name string) log.Formatter {
	switch name {
	case "json":
		return &log.JSONFormatter{}
	default:
		return &log.TextFormatter{FullTimestamp: true}
	}
}
