// Package cat provides the cat command.
package cat

import (
	"context"
	"io"
	"os"

	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/spf13/cobra"
)

// Globals
var (
	rev     = ""
	discard = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&rev, "rev", "", rev, "Print this revision of the file")
	cmdFlags.BoolVarP(&discard, "discard", "", discard, "Discard the output instead of printing")
}

var commandDefinition = &cobra.Command{
	Use:   "cat path",
	Short: `Sends a file to stdout.`,
	Long: `Downloads a file and streams it to standard output.

    meocloud cat docs/notes.txt

Use --rev to print an older revision of the file.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			var w io.Writer = os.Stdout
			if discard {
				w = io.Discard
			}
			return cat(ctx, c, args[0], w)
		})
	},
}

// opener is the part of the client cat needs
type opener interface {
	Open(ctx context.Context, path string, params *rest.Params) (*rest.Response, error)
}

func cat(ctx context.Context, c opener, path string, w io.Writer) (err error) {
	var params *rest.Params
	if rev != "" {
		params = rest.NewParams().Set("rev", rev)
	}
	resp, err := c.Open(ctx, path, params)
	if err != nil {
		return err
	}
	if err := cmd.CheckResponse(resp); err != nil {
		return err
	}
	defer fs.CheckClose(resp.Body, &err)
	_, err = io.Copy(w, resp.Body)
	return err
}
