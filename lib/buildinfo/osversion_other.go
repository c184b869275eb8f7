//go:build openbsd || ios

// Package buildinfo describes the system meocloud is running on
package buildinfo

import "runtime"

// GetOSVersion returns OS version, kernel and bitness
func GetOSVersion() (osVersion, osKernel string) {
	return runtime.GOOS, "unknown"
}
