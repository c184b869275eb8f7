// Package config provides the config command.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/meocloud-go/meocloud/cmd"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/fs/config/configfile"
	"github.com/meocloud-go/meocloud/fs/config/configmap"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(configCommand)
	configCommand.AddCommand(configFileCommand)
	configCommand.AddCommand(configShowCommand)
	configCommand.AddCommand(configSetCommand)
	configCommand.AddCommand(configDeleteCommand)
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: `Manage the config file.`,
	Long: `Shows and edits the config file.  Each account is a section
holding consumer_key, consumer_secret, token and token_secret plus
any of sandbox, use_https and longpoll_timeout.
`,
}

var configFileCommand = &cobra.Command{
	Use:   "file",
	Short: `Show path of configuration file in use.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			storage, err := cmd.Storage()
			if err != nil {
				return err
			}
			fmt.Printf("Configuration file is stored at:\n%s\n", storage.Path())
			return nil
		})
	},
}

var configShowCommand = &cobra.Command{
	Use:   "show [<account>]",
	Short: `Print the config file, or a single account, with secrets hidden.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			storage, err := cmd.Storage()
			if err != nil {
				return err
			}
			return show(os.Stdout, storage, args)
		})
	},
}

var configSetCommand = &cobra.Command{
	Use:   "set <account> [<key> <value>]+",
	Short: `Set keys in an account, making it if needed.`,
	Long: `Sets the keys given in the account section, for example

    meocloud config set work consumer_key XXX consumer_secret YYY
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(3, 256, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			storage, err := cmd.Storage()
			if err != nil {
				return err
			}
			return set(storage, args[0], args[1:])
		})
	},
}

var configDeleteCommand = &cobra.Command{
	Use:   "delete <account> [<key>]",
	Short: `Delete an account, or a key from it.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 2, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			storage, err := cmd.Storage()
			if err != nil {
				return err
			}
			return remove(storage, args)
		})
	},
}

// show writes the accounts named, or all of them, to out
func show(out io.Writer, storage *configfile.Storage, accounts []string) error {
	if len(accounts) == 0 {
		accounts = storage.GetSectionList()
		sort.Strings(accounts)
	}
	for _, account := range accounts {
		if !storage.HasSection(account) {
			return fs.ConfigErrorf("account %q not found", account)
		}
		values := configmap.Simple{}
		for _, key := range storage.GetKeyList(account) {
			values[key], _ = storage.GetValue(account, key)
		}
		if _, err := fmt.Fprintf(out, "[%s]\n%s\n", account, values); err != nil {
			return err
		}
	}
	return nil
}

// set applies the key value pairs in kv to account and saves
func set(storage *configfile.Storage, account string, kv []string) error {
	if len(kv)%2 != 0 {
		return fs.ConfigErrorf("found key %q without a value", kv[len(kv)-1])
	}
	for i := 0; i < len(kv); i += 2 {
		storage.SetValue(account, kv[i], kv[i+1])
	}
	return storage.Save()
}

// remove deletes the account in args[0] or its key args[1] and saves
func remove(storage *configfile.Storage, args []string) error {
	account := args[0]
	if !storage.HasSection(account) {
		return fs.ConfigErrorf("account %q not found", account)
	}
	if len(args) == 1 {
		storage.DeleteSection(account)
	} else if !storage.DeleteKey(account, args[1]) {
		return fs.ConfigErrorf("key %q not found in account %q", args[1], account)
	}
	return storage.Save()
}
