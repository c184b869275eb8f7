// Syslog interface for Unix variants only

//go:build !windows && !nacl && !plan9

package log

import (
	"log/syslog"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

var (
	syslogFacilityMap = map[string]syslog.Priority{
		"KERN":     syslog.LOG_KERN,
		"USER":     syslog.LOG_USER,
		"MAIL":     syslog.LOG_MAIL,
		"DAEMON":   syslog.LOG_DAEMON,
		"AUTH":     syslog.LOG_AUTH,
		"SYSLOG":   syslog.LOG_SYSLOG,
		"LPR":      syslog.LOG_LPR,
		"NEWS":     syslog.LOG_NEWS,
		"UUCP":     syslog.LOG_UUCP,
		"CRON":     syslog.LOG_CRON,
		"AUTHPRIV": syslog.LOG_AUTHPRIV,
		"FTP":      syslog.LOG_FTP,
		"LOCAL0":   syslog.LOG_LOCAL0,
		"LOCAL1":   syslog.LOG_LOCAL1,
		"LOCAL2":   syslog.LOG_LOCAL2,
		"LOCAL3":   syslog.LOG_LOCAL3,
		"LOCAL4":   syslog.LOG_LOCAL4,
		"LOCAL5":   syslog.LOG_LOCAL5,
		"LOCAL6":   syslog.LOG_LOCAL6,
		"LOCAL7":   syslog.LOG_LOCAL7,
	}
)

// syslogPriority looks up the priority for facility
func syslogPriority(facility string) (syslog.Priority, error) {
	priority, ok := syslogFacilityMap[facility]
	if !ok {
		return 0, errors.Errorf("unknown syslog facility %q - man syslog for list", facility)
	}
	return syslog.LOG_NOTICE | priority, nil
}

// startSysLog sends everything logger logs to the local syslog
// instead of its output
func startSysLog(logger *logrus.Logger, facility string) error {
	priority, err := syslogPriority(facility)
	if err != nil {
		return err
	}
	hook, err := lsyslog.NewSyslogHook("", "", priority, path.Base(os.Args[0]))
	if err != nil {
		return errors.Wrap(err, "failed to start syslog")
	}
	logger.AddHook(hook)
	return nil
}
