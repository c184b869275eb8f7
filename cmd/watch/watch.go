// Package watch provides the watch command.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/meocloud-go/meocloud/backend/meocloud"
	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/spf13/cobra"
)

// Globals
var (
	cursor = ""
	once   = false
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	cmdFlags.StringVarP(&cursor, "cursor", "", cursor, "Start from this cursor instead of now")
	cmdFlags.BoolVarP(&once, "once", "", once, "Exit once the changes so far have been printed")
}

var commandDefinition = &cobra.Command{
	Use:   "watch",
	Short: `Print changes to the account as they happen.`,
	Long: `Follows the changes made to the account and prints each one as a
line of JSON, [path, metadata] with null metadata for a deletion.

With no --cursor only changes made after the command starts are
printed.  The cursor reached is logged at INFO level (-v) so a later
run can carry on with --cursor.

Stop it with CTRL-C.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			c, err := cmd.NewClient()
			if err != nil {
				return err
			}
			feed := c.NewChangeFeed(meocloud.WithCursor(cursor))
			err = watch(ctx, feed, os.Stdout, once)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	},
}

// printer returns an ApplyFunc which writes each entry to out
func printer(out io.Writer, feed *meocloud.ChangeFeed) meocloud.ApplyFunc {
	return func(ctx context.Context, page *api.DeltaPage) error {
		if page.Reset {
			if _, err := fmt.Fprintln(out, `["", "reset"]`); err != nil {
				return err
			}
		}
		for _, entry := range page.Entries {
			line, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "%s\n", line); err != nil {
				return err
			}
		}
		fs.Infof(feed, "Up to cursor %q", nextCursor(feed, page))
		return nil
	}
}

// nextCursor returns the cursor feed will hold once page is applied
func nextCursor(feed *meocloud.ChangeFeed, page *api.DeltaPage) string {
	if page.Cursor != "" {
		return page.Cursor
	}
	return feed.State().Cursor
}

// watch steps feed printing the changes to out.  If once is set it
// returns when the feed first has to wait for more changes.
func watch(ctx context.Context, feed *meocloud.ChangeFeed, out io.Writer, once bool) error {
	apply := printer(out, feed)
	if !once {
		return feed.Run(ctx, apply)
	}
	for {
		st := feed.State()
		if st.State == meocloud.StateWait && st.LastOutcome != meocloud.OutcomeNone {
			return nil
		}
		if err := feed.Step(ctx, apply); err != nil {
			return err
		}
	}
}
