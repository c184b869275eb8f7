// Package link provides the link command.
package link

import (
	"context"
	"fmt"
	"os"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/spf13/cobra"
)

// Globals
var (
	list    = false
	unlink  = ""
	shareTo = ""
	format  = ""
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.BoolVarP(&list, "list", "", list, "List the public links already made")
	cmdFlags.StringVarP(&unlink, "unlink", "", unlink, "Remove the public link with this share id")
	cmdFlags.StringVarP(&shareTo, "share-with", "", shareTo, "Share the folder with this email address instead of making a link")
	cmdFlags.StringVarP(&format, "format", "", format, "Print the result as json or yaml")
}

var commandDefinition = &cobra.Command{
	Use:   "link [path]",
	Short: `Generate public links to files.`,
	Long: `Makes a public link to the file at path and prints it.

    $ meocloud link docs/report.pdf
    https://meocloud.pt/link/...

Use --list to see the links already made, --unlink to remove one by
its share id, or --share-with to share a folder with another user.
`,
	Run: func(command *cobra.Command, args []string) {
		if list || unlink != "" {
			cmd.CheckArgs(0, 0, command, args)
		} else {
			cmd.CheckArgs(1, 1, command, args)
		}
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			switch {
			case list:
				links, err := c.GetLinks(ctx)
				if err != nil {
					return err
				}
				if format != "" {
					return cmd.Print(os.Stdout, format, links)
				}
				for _, link := range links {
					fmt.Printf("%s\t%s\n", link.ShareID, link.URL)
				}
				return nil
			case unlink != "":
				resp, err := c.DeleteLink(ctx, unlink)
				if err != nil {
					return err
				}
				return api.StatusError(resp)
			case shareTo != "":
				resp, err := c.ShareFolder(ctx, args[0], shareTo)
				if err != nil {
					return err
				}
				if err := api.StatusError(resp); err != nil {
					return err
				}
				var result api.ShareFolderResult
				if err := resp.DecodeJSON(&result); err != nil {
					return err
				}
				fmt.Println(result.ReqID)
				return nil
			}
			resp, err := c.Shares(ctx, args[0])
			if err != nil {
				return err
			}
			if err := api.StatusError(resp); err != nil {
				return err
			}
			var link api.SharedLink
			if err := resp.DecodeJSON(&link); err != nil {
				return err
			}
			if format != "" {
				return cmd.Print(os.Stdout, format, link)
			}
			fmt.Println(link.URL)
			return nil
		})
	},
}
