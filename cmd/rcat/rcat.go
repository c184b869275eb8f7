// Package rcat provides the rcat command.
package rcat

import (
	"context"
	"os"

	"github.com/meocloud-go/meocloud/backend/meocloud"
	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/spf13/cobra"
)

// Globals
var (
	size      = fs.SizeSuffix(-1)
	overwrite = true
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.VarP(&size, "size", "", "Number of bytes that will be read from stdin (required)")
	cmdFlags.BoolVarP(&overwrite, "overwrite", "", overwrite, "Replace the remote file if it exists")
}

var commandDefinition = &cobra.Command{
	Use:   "rcat remote/path",
	Short: `Copies standard input to a file on the remote.`,
	Long: `Reads from standard input and uploads it to a single remote file.

    meocloud rcat --size $(stat -c %s disk.img) backups/disk.img < disk.img

The service needs to know the length of an upload before it starts so
--size must be given.  It is in bytes unless it has a suffix, eg 10M.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			if size < 0 {
				return fs.ErrorMissingContentLength
			}
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			params := rest.NewParams().SetBool("overwrite", overwrite)
			resp, err := c.Transfer(ctx, meocloud.NewUpload(args[0], os.Stdin, int64(size), params))
			if err != nil {
				return err
			}
			return api.StatusError(resp)
		})
	},
}
