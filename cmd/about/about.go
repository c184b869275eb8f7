// Package about provides the about command.
package about

import (
	"context"
	"fmt"
	"os"

	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/spf13/cobra"
)

var format = ""

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&format, "format", "", format, "Print the raw account info as json or yaml")
}

var commandDefinition = &cobra.Command{
	Use:   "about",
	Short: `Get quota information from the account.`,
	Long: `Prints the name of the account owner and the storage used.

    $ meocloud about
    Owner:  Test User <test@example.com>
    Total:  16 GiB
    Used:   1.2 GiB
    Shared: 200 MiB
    Free:   14.6 GiB

Use --format json or --format yaml to see everything the server returns.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			info, err := c.GetAccountInfo(ctx)
			if err != nil {
				return err
			}
			if format != "" {
				return cmd.Print(os.Stdout, format, info)
			}
			q := info.QuotaInfo
			fmt.Printf("Owner:  %s <%s>\n", info.DisplayName, info.Email)
			fmt.Printf("Total:  %s\n", fs.SizeSuffix(q.Quota).ByteUnit())
			fmt.Printf("Used:   %s\n", fs.SizeSuffix(q.Normal+q.Shared).ByteUnit())
			fmt.Printf("Shared: %s\n", fs.SizeSuffix(q.Shared).ByteUnit())
			fmt.Printf("Free:   %s\n", fs.SizeSuffix(q.Quota-q.Normal-q.Shared).ByteUnit())
			return nil
		})
	},
}
