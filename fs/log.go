package fs

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogLevel describes the levels used for logging.  These are a subset
// of the syslog log levels.
type LogLevel byte

// Log levels.  These are the syslog levels of which we only use a
// subset.
//
//	LOG_EMERG      system is unusable
//	LOG_ALERT      action must be taken immediately
//	LOG_CRIT       critical conditions
//	LOG_ERR        error conditions
//	LOG_WARNING    warning conditions
//	LOG_NOTICE     normal, but significant, condition
//	LOG_INFO       informational message
//	LOG_DEBUG      debug-level message
const (
	LogLevelEmergency LogLevel = iota
	LogLevelAlert
	LogLevelCritical
	LogLevelError // Error - can't be suppressed
	LogLevelWarning
	LogLevelNotice // Normal logging, -q suppresses
	LogLevelInfo   // Transfers, needs -v
	LogLevelDebug  // Debug level, needs -vv
)

var logLevelToString = []string{
	LogLevelEmergency: "EMERGENCY",
	LogLevelAlert:     "ALERT",
	LogLevelCritical:  "CRITICAL",
	LogLevelError:     "ERROR",
	LogLevelWarning:   "WARNING",
	LogLevelNotice:    "NOTICE",
	LogLevelInfo:      "INFO",
	LogLevelDebug:     "DEBUG",
}

// String turns a LogLevel into a string
func (l LogLevel) String() string {
	if l >= LogLevel(len(logLevelToString)) {
		return fmt.Sprintf("LogLevel(%d)", l)
	}
	return logLevelToString[l]
}

// Set a LogLevel
func (l *LogLevel) Set(s string) error {
	for n, name := range logLevelToString {
		if s != "" && name == s {
			*l = LogLevel(n)
			return nil
		}
	}
	return errors.Errorf("unknown log level %q", s)
}

// Type of the value
func (l *LogLevel) Type() string {
	return "string"
}

// Logrus returns the logrus level corresponding to l
func (l LogLevel) Logrus() logrus.Level {
	switch {
	case l <= LogLevelAlert:
		return logrus.PanicLevel
	case l == LogLevelCritical:
		return logrus.FatalLevel
	case l == LogLevelError:
		return logrus.ErrorLevel
	case l <= LogLevelNotice:
		return logrus.WarnLevel
	case l == LogLevelInfo:
		return logrus.InfoLevel
	}
	return logrus.DebugLevel
}

// LogValueItem describes keyed item for a structured log entry
type LogValueItem struct {
	key   string
	value interface{}
}

// LogValue should be used as an argument to any logging calls to
// augment the log entry with more structured information.
//
// key is the field name used to store value.
func LogValue(key string, value interface{}) LogValueItem {
	return LogValueItem{key: key, value: value}
}

// String returns the representation of value
func (j LogValueItem) String() string {
	if do, ok := j.value.(fmt.Stringer); ok {
		return do.String()
	}
	return fmt.Sprint(j.value)
}

// Logger is where all log output goes.  It is replaced by
// log.InitLogging and by tests which want to capture output.
var Logger = logrus.StandardLogger()

// LogPrintf produces a log entry from the arguments passed in
func LogPrintf(level LogLevel, o interface{}, text string, args ...interface{}) {
	if !Logger.IsLevelEnabled(level.Logrus()) {
		return
	}
	out := fmt.Sprintf(text, args...)
	fields := logrus.Fields{}
	if o != nil {
		fields["object"] = fmt.Sprintf("%+v", o)
		fields["objectType"] = fmt.Sprintf("%T", o)
	}
	for _, arg := range args {
		if item, ok := arg.(LogValueItem); ok {
			fields[item.key] = item.value
		}
	}
	entry := Logger.WithFields(fields)
	switch level {
	case LogLevelDebug:
		entry.Debug(out)
	case LogLevelInfo:
		entry.Info(out)
	case LogLevelNotice, LogLevelWarning:
		entry.Warn(out)
	default:
		entry.Error(out)
	}
}

// Errorf writes error log output for this Object or Client.  It
// should always be seen by the user.
func Errorf(o interface{}, text string, args ...interface{}) {
	LogPrintf(LogLevelError, o, text, args...)
}

// Logf writes log output for this Object or Client.  This should be
// considered to be Notice level logging.
func Logf(o interface{}, text string, args ...interface{}) {
	LogPrintf(LogLevelNotice, o, text, args...)
}

// Infof writes info on transfers for this Object or Client.
func Infof(o interface{}, text string, args ...interface{}) {
	LogPrintf(LogLevelInfo, o, text, args...)
}

// Debugf writes debugging output for this Object or Client.  Use this
// for debug only.
func Debugf(o interface{}, text string, args ...interface{}) {
	LogPrintf(LogLevelDebug, o, text, args...)
}
