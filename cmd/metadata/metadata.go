// Package metadata provides the metadata command.
package metadata

import (
	"context"
	"os"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/spf13/cobra"
)

// Globals
var (
	format         = cmd.FormatJSON
	fileLimit      = int64(0)
	list           = true
	includeDeleted = false
	rev            = ""
	hash           = ""
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&format, "format", "", format, "Output format json|yaml")
	cmdFlags.Int64VarP(&fileLimit, "file-limit", "", fileLimit, "Max number of entries to list in a folder (0 for the server default)")
	cmdFlags.BoolVarP(&list, "list", "", list, "List the contents of a folder")
	cmdFlags.BoolVarP(&includeDeleted, "include-deleted", "", includeDeleted, "Include deleted entries in the listing")
	cmdFlags.StringVarP(&rev, "rev", "", rev, "Show this revision of the file")
	cmdFlags.StringVarP(&hash, "hash", "", hash, "Only return the listing if it has changed from this hash")
}

// params makes the query parameters from the flags
func params() *rest.Params {
	p := rest.NewParams()
	if fileLimit > 0 {
		p.SetInt("file_limit", fileLimit)
	}
	if hash != "" {
		p.Set("hash", hash)
	}
	p.SetBool("list", list)
	if includeDeleted {
		p.SetBool("include_deleted", true)
	}
	if rev != "" {
		p.Set("rev", rev)
	}
	return p
}

var commandDefinition = &cobra.Command{
	Use:   "metadata [path]",
	Short: `Print the metadata of a file or folder.`,
	Long: `Prints what the server knows about the file or folder at path, and
for a folder its contents, as JSON or YAML.

    meocloud metadata --format yaml docs
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			resp, err := c.Metadata(ctx, path, params())
			if err != nil {
				return err
			}
			if err := api.StatusError(resp); err != nil {
				return err
			}
			return cmd.Print(os.Stdout, format, resp.Result)
		})
	},
}
