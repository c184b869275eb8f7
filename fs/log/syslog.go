// Syslog stubs for platforms without one

//go:build windows || nacl || plan9

package log

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// startSysLog fails as there is no syslog here
func startSysLog(logger *logrus.Logger, facility string) error {
	return errors.Errorf("syslog not supported on %s platform", runtime.GOOS)
}
