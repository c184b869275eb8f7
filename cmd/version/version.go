// Package version provides the version command.
package version

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/buildinfo"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "version",
	Short: `Show the version number.`,
	Long: `Show the meocloud version number, the go version, the OS it is
running on and the build target OS and architecture.

    $ meocloud version
    meocloud v0.3.0
    - os/version: ubuntu 22.04 (64 bit)
    - os/kernel: 5.15.0-76-generic (x86_64)
    - os/type: linux
    - os/arch: amd64
    - go/version: go1.21.0
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		showVersion(os.Stdout)
	},
}

func showVersion(out io.Writer) {
	osVersion, osKernel := buildinfo.GetOSVersion()
	if osVersion == "" {
		osVersion = "unknown"
	}
	if osKernel == "" {
		osKernel = "unknown"
	}
	_, _ = fmt.Fprintf(out, "meocloud %s\n", fs.Version)
	_, _ = fmt.Fprintf(out, "- os/version: %s\n", osVersion)
	_, _ = fmt.Fprintf(out, "- os/kernel: %s\n", osKernel)
	_, _ = fmt.Fprintf(out, "- os/type: %s\n", runtime.GOOS)
	_, _ = fmt.Fprintf(out, "- os/arch: %s\n", runtime.GOARCH)
	_, _ = fmt.Fprintf(out, "- go/version: %s\n", runtime.Version())
}
