// Package log sets up logging for the command line tool
package log

import (
	"io"
	"os"
	"time"

	"github.com/meocloud-go/meocloud/fs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options contains options for controlling the logging
type Options struct {
	Level      fs.LogLevel   // log everything at this level or above
	File       string        // log everything to this file
	MaxSize    int           // max size of the log file in MiB before rotation, 0 for no rotation
	MaxBackups int           // max number of rotated log files to keep
	MaxAge     time.Duration // max age of rotated log files
	Compress   bool          // gzip rotated log files
	Format     string        // "text" or "json"
	Syslog     bool          // log to the local syslog instead
	Facility   string        // syslog facility, eg KERN,USER,...
}

// DefaultOptions returns the logging defaults
func DefaultOptions() Options {
	return Options{
		Level:    fs.LogLevelNotice,
		Format:   "text",
		Facility: "DAEMON",
	}
}

// round to whole days with a minimum of 1 if set
func days(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d.Hours()/24 + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// InitLogging configures fs.Logger as per opt
//
// It returns a function to close any log file opened.
func InitLogging(opt Options) (closeFn func() error, err error) {
	logger := logrus.New()
	logger.SetLevel(opt.Level.Logrus())
	switch opt.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q - must be text or json", opt.Format)
	}

	var w io.Writer = os.Stderr
	closeFn = func() error { return nil }
	if opt.Syslog {
		if opt.File != "" {
			return nil, errors.New("can't use --syslog and --log-file together")
		}
		if err := startSysLog(logger, opt.Facility); err != nil {
			return nil, err
		}
		w = io.Discard
	} else if opt.File != "" {
		if opt.MaxSize <= 0 {
			f, err := os.OpenFile(opt.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
			if err != nil {
				return nil, errors.Wrap(err, "failed to open log file")
			}
			w, closeFn = f, f.Close
		} else {
			l := &lumberjack.Logger{
				Filename:   opt.File,
				MaxSize:    opt.MaxSize,
				MaxBackups: opt.MaxBackups,
				MaxAge:     days(opt.MaxAge),
				Compress:   opt.Compress,
				LocalTime:  true,
			}
			w, closeFn = l, l.Close
		}
	}
	logger.SetOutput(w)
	fs.Logger = logger
	return closeFn, nil
}
