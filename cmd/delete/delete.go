// Package delete provides the delete command.
package delete

import (
	"context"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "delete path",
	Short: `Remove a file or folder and its contents.`,
	Long: `Removes the file or folder at path.  A folder is removed with
everything in it.  Deleted files can be brought back with the web
interface or by restoring a revision.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			resp, err := c.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			return api.StatusError(resp)
		})
	},
}
