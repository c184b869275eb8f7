// Package moveto provides the moveto command.
package moveto

import (
	"context"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/spf13/cobra"
)

var copyOnly = false

func init() {
	cmd.Root.AddCommand(commandDefinition)
	commandDefinition.Flags().BoolVarP(&copyOnly, "copy", "", copyOnly, "Copy instead of moving")
}

var commandDefinition = &cobra.Command{
	Use:   "moveto source/path dest/path",
	Short: `Move a file or folder on the server.`,
	Long: `Moves or renames source/path to dest/path without downloading
anything.  With --copy the source is left where it is.

    meocloud moveto old/name.txt new/name.txt
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			op := c.Move
			if copyOnly {
				op = c.Copy
			}
			resp, err := op(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return api.StatusError(resp)
		})
	},
}
