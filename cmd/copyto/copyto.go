// Package copyto provides the copyto command.
package copyto

import (
	"context"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/spf13/cobra"
)

// Globals
var (
	overwrite = true
	parentRev = ""
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&overwrite, "overwrite", "", overwrite, "Replace the remote file if it exists")
	cmdFlags.StringVarP(&parentRev, "parent-rev", "", parentRev, "Only replace the remote file if it is at this revision")
}

var commandDefinition = &cobra.Command{
	Use:   "copyto local/file remote/path",
	Short: `Upload a local file to a remote path.`,
	Long: `Uploads a single local file to the remote path given.

    meocloud copyto ./report.pdf docs/report.pdf

The file is streamed as it is read so it is never held in memory.  If
--overwrite=false and the remote file exists the server stores the
upload under a new name.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			params := rest.NewParams().SetBool("overwrite", overwrite)
			if parentRev != "" {
				params.Set("parent_rev", parentRev)
			}
			resp, err := c.UploadFile(ctx, args[0], args[1], params)
			if err != nil {
				return err
			}
			if err := api.StatusError(resp); err != nil {
				return err
			}
			var info api.Metadata
			if err := resp.DecodeJSON(&info); err != nil {
				return err
			}
			fs.Infof(c, "Uploaded %q as %q rev %s", args[0], info.Path, info.Rev)
			return nil
		})
	},
}
