//go:build !openbsd && !ios

// Package buildinfo describes the system meocloud is running on
package buildinfo

import (
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

var kernelBuild = regexp.MustCompile(`^([\d\.]+?\.)(\d+) Build (\d+)$`)

// simplifyKernel turns `RELEASE.BUILD Build BUILD` into `RELEASE.BUILD`
func simplifyKernel(kernel string) string {
	match := kernelBuild.FindStringSubmatch(kernel)
	if len(match) == 4 && match[2] == match[3] {
		return match[1] + match[2]
	}
	return kernel
}

// GetOSVersion returns OS version, kernel and bitness
func GetOSVersion() (osVersion, osKernel string) {
	if platform, _, version, err := host.PlatformInformation(); err == nil && platform != "" {
		osVersion = platform
		if version != "" {
			osVersion += " " + version
		}
	}
	if version, err := host.KernelVersion(); err == nil && version != "" {
		osKernel = version
		if strings.Contains(osVersion, osKernel) {
			deduped := strings.TrimSpace(strings.Replace(osVersion, osKernel, "", 1))
			if deduped != "" {
				osVersion = deduped
			}
		}
		osKernel = simplifyKernel(osKernel)
	}
	if arch, err := host.KernelArch(); err == nil && arch != "" {
		if strings.HasSuffix(arch, "64") && osVersion != "" {
			osVersion += " (64 bit)"
		}
		if osKernel != "" {
			osKernel += " (" + arch + ")"
		}
	}
	return osVersion, osKernel
}
