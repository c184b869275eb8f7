// Package cmd implements the meocloud command
//
// It is in a sub package so its internals can be re-used elsewhere
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/meocloud-go/meocloud/backend/meocloud"
	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/fs/config/configfile"
	"github.com/meocloud-go/meocloud/fs/config/configmap"
	"github.com/meocloud-go/meocloud/fs/fserrors"
	"github.com/meocloud-go/meocloud/fs/fshttp"
	fslog "github.com/meocloud-go/meocloud/fs/log"
	"github.com/meocloud-go/meocloud/lib/env"
	"github.com/meocloud-go/meocloud/lib/exitcode"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Globals
var (
	// Flags
	configPath  = configfile.DefaultPath()
	account     = "default"
	verbose     int
	quiet       bool
	metricsAddr string
	logOpt      = fslog.DefaultOptions()
	ci          = fs.NewConfig()

	// set up by initConfig
	metrics  *fshttp.Metrics
	closeLog = func() error { return nil }

	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")
)

// Root is the main meocloud command
var Root = &cobra.Command{
	Use:   "meocloud",
	Short: "Command line client for MEO Cloud storage",
	Long: `
meocloud talks to the MEO Cloud REST API.  It can read metadata,
upload and download files, manage public links and follow the
changes made to an account.

Credentials are read from the account section of the config file
and may be overridden by MEOCLOUD_<KEY> environment variables, for
example MEOCLOUD_TOKEN.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := Root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "", configPath, "Config file"+env.ShellExpandHelp)
	pf.StringVarP(&account, "account", "a", account, "Account section of the config file to use")
	pf.CountVarP(&verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Print as little stuff as possible")
	pf.VarP(&logOpt.Level, "log-level", "", "Log level DEBUG|INFO|NOTICE|ERROR")
	pf.StringVarP(&logOpt.File, "log-file", "", "", "Log everything to this file")
	pf.StringVarP(&logOpt.Format, "log-format", "", logOpt.Format, "Log format text|json")
	pf.IntVarP(&logOpt.MaxSize, "log-file-max-size", "", 0, "Rotate the log file at this size in MiB (0 to disable)")
	pf.IntVarP(&logOpt.MaxBackups, "log-file-max-backups", "", 3, "Number of rotated log files to keep")
	pf.DurationVarP(&logOpt.MaxAge, "log-file-max-age", "", 0, "Remove rotated log files older than this")
	pf.BoolVarP(&logOpt.Compress, "log-file-compress", "", false, "Gzip rotated log files")
	pf.BoolVarP(&logOpt.Syslog, "syslog", "", false, "Use Syslog for logging")
	pf.StringVarP(&logOpt.Facility, "syslog-facility", "", logOpt.Facility, "Facility for syslog, e.g. KERN,USER,...")
	pf.StringVarP(&ci.UserAgent, "user-agent", "", ci.UserAgent, "Set the user-agent to a specified string")
	pf.DurationVarP(&ci.ConnectTimeout, "contimeout", "", ci.ConnectTimeout, "Connect timeout")
	pf.DurationVarP(&ci.Timeout, "timeout", "", ci.Timeout, "IO idle timeout")
	pf.Float64VarP(&ci.TPSLimit, "tpslimit", "", 0, "Limit HTTP transactions per second to this")
	pf.IntVarP(&ci.TPSLimitBurst, "tpslimit-burst", "", ci.TPSLimitBurst, "Max burst of transactions for --tpslimit")
	pf.VarP(&ci.Dump, "dump", "", "List of items to dump from: headers,bodies,auth")
	pf.BoolVarP(&ci.InsecureSkipVerify, "no-check-certificate", "", false, "Do not verify the server SSL certificate (insecure)")
	pf.StringVarP(&metricsAddr, "metrics-addr", "", "", "Serve prometheus metrics on this address, eg localhost:9090")
}

// logLevel works out the log level from the flags
func logLevel(level fs.LogLevel, verbose int, quiet bool) fs.LogLevel {
	switch {
	case quiet:
		return fs.LogLevelError
	case verbose >= 2:
		return fs.LogLevelDebug
	case verbose == 1:
		return fs.LogLevelInfo
	}
	return level
}

// initConfig is run by cobra after initialising the flags
func initConfig() {
	logOpt.Level = logLevel(logOpt.Level, verbose, quiet)
	ci.LogLevel = logOpt.Level
	if ci.Dump != 0 && logOpt.Level < fs.LogLevelDebug {
		logOpt.Level = fs.LogLevelDebug
	}
	var err error
	closeLog, err = fslog.InitLogging(logOpt)
	if err != nil {
		log.Fatalf("Failed to start logging: %v", err)
	}
	fs.Debugf("meocloud", "Version %q starting with parameters %q", fs.Version, os.Args)

	metrics = fshttp.NewMetrics("meocloud")
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(metrics.Collectors()...)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			fs.Infof("meocloud", "Serving metrics on http://%s/metrics", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fs.Errorf("meocloud", "Metrics server failed: %v", err)
			}
		}()
	}
}

// Config returns the HTTP config made from the flags
func Config() *fs.ConfigInfo {
	return ci.Copy()
}

// Storage returns the config file named by the flags, loaded
func Storage() (*configfile.Storage, error) {
	storage := configfile.New(env.ShellExpand(configPath))
	err := storage.Load()
	if err != nil && err != configfile.ErrorConfigFileNotFound {
		return nil, err
	}
	return storage, nil
}

// Account returns the account section in use
func Account() string {
	return account
}

// newClient makes a client for account from storage
func newClient(storage *configfile.Storage, account string, ci *fs.ConfigInfo, metrics *fshttp.Metrics) (*meocloud.Client, error) {
	section, err := storage.Section(account)
	if err != nil {
		return nil, err
	}
	m := configmap.New().AddGetter(configmap.Simple(section))
	opt, err := meocloud.OptionsFromMap(m)
	if err != nil {
		return nil, errors.Wrapf(err, "account %q", account)
	}
	return meocloud.NewClient(opt, fshttp.NewClient(ci, metrics))
}

// NewClient makes a client for the account chosen on the command line
func NewClient() (*meocloud.Client, error) {
	storage, err := Storage()
	if err != nil {
		return nil, err
	}
	return newClient(storage, account, ci, metrics)
}

// Run the function with a context which is cancelled by SIGINT or
// SIGTERM, then exit with a code describing the error.
func Run(cmd *cobra.Command, f func(ctx context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdErr := f(ctx)
	stop()
	fs.Debugf(nil, "%d go routines active", runtime.NumGoroutine())
	if cmdErr != nil {
		log.Printf("Failed to %s: %v", cmd.Name(), cmdErr)
	}
	resolveExitCode(cmdErr)
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// exitCode works out the process exit code for err
func exitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var apiErr *api.Error
	switch {
	case errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case err == errorNotEnoughArguments || err == errorTooManyArguments:
		return exitcode.UsageError
	case fs.IsConfigError(err):
		return exitcode.UsageError
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return exitcode.FileNotFound
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			return exitcode.RetryError
		}
		return exitcode.NoRetryError
	case fserrors.ShouldRetry(err):
		return exitcode.RetryError
	}
	return exitcode.UncategorizedError
}

func resolveExitCode(err error) {
	if closeErr := closeLog(); closeErr != nil {
		log.Printf("Failed to close log file: %v", closeErr)
	}
	os.Exit(exitCode(err))
}

// CheckResponse turns a non 2xx response into an error, reading the
// start of a streamed body for the message.
func CheckResponse(resp *rest.Response) error {
	if resp.OK() {
		return nil
	}
	if resp.Body != nil {
		resp.Raw, _ = io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		resp.Body = nil
	}
	return api.StatusError(resp)
}

// Output formats understood by Print
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Print writes v to out in format
func Print(out io.Writer, format string, v interface{}) error {
	switch format {
	case "", FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "\t")
		return enc.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "failed to make YAML")
		}
		_, err = out.Write(data)
		return err
	}
	return fs.ConfigErrorf("unknown output format %q - must be %s or %s", format, FormatJSON, FormatYAML)
}

// Main runs meocloud
func Main() {
	if err := Root.Execute(); err != nil {
		log.Printf("Fatal error: %v", err)
		os.Exit(exitcode.UsageError)
	}
}
