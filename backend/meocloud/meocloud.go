// Package meocloud provides an interface to the MEO Cloud storage
// service.
//
// A Client is built once from Options and is then immutable, so it
// may be shared by any number of goroutines.  Every endpoint returns
// the normalised *rest.Response: HTTP error statuses are not errors
// at this level, use api.StatusError to turn one into an error.
package meocloud

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/fs/config/configmap"
	"github.com/meocloud-go/meocloud/fs/config/configstruct"
	"github.com/meocloud-go/meocloud/fs/fshttp"
	"github.com/meocloud-go/meocloud/lib/oauthutil"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/pkg/errors"
)

const (
	defaultAPIHost         = "api.meocloud.pt"
	defaultContentHost     = "content-api.meocloud.pt"
	defaultNotifyHost      = "api-notify.meocloud.pt"
	apiVersion             = "/1"
	defaultLongPollTimeout = 30 * time.Second
)

// Roots a client can work in
const (
	RootMeoCloud = "meocloud" // the whole of the user's storage
	RootSandbox  = "sandbox"  // the application's own folder
)

// Options defines the configuration for this backend
type Options struct {
	ConsumerKey     string        `config:"consumer_key"`
	ConsumerSecret  string        `config:"consumer_secret"`
	Token           string        `config:"token"`
	TokenSecret     string        `config:"token_secret"`
	Sandbox         bool          `config:"sandbox"`
	UseHTTPS        bool          `config:"use_https"`
	APIURL          string        `config:"api_url"`     // overrides the API host, eg for testing
	ContentURL      string        `config:"content_url"` // overrides the content host
	NotifyURL       string        `config:"notify_url"`  // overrides the notification host
	LongPollTimeout time.Duration `config:"longpoll_timeout"`
}

// DefaultOptions returns the Options used for anything not configured
func DefaultOptions() Options {
	return Options{
		UseHTTPS:        true,
		LongPollTimeout: defaultLongPollTimeout,
	}
}

// OptionsFromMap reads Options from m on top of the defaults and
// checks them.
func OptionsFromMap(m configmap.Getter) (*Options, error) {
	opt := DefaultOptions()
	if err := configstruct.Set(m, &opt); err != nil {
		return nil, fs.ConfigErrorf("bad config: %v", err)
	}
	if err := opt.Check(); err != nil {
		return nil, err
	}
	return &opt, nil
}

// Check returns a config error if the options can't make a client
func (opt *Options) Check() error {
	if err := opt.Credentials().Check(); err != nil {
		return err
	}
	if opt.LongPollTimeout < 0 {
		return fs.ConfigErrorf("longpoll_timeout must not be negative: %v", opt.LongPollTimeout)
	}
	return nil
}

// Credentials returns the signing credentials in opt
func (opt *Options) Credentials() oauthutil.Credentials {
	return oauthutil.Credentials{
		ConsumerKey:    opt.ConsumerKey,
		ConsumerSecret: opt.ConsumerSecret,
		Token:          opt.Token,
		TokenSecret:    opt.TokenSecret,
	}
}

// Root returns the root the client works in
func (opt *Options) Root() string {
	if opt.Sandbox {
		return RootSandbox
	}
	return RootMeoCloud
}

// rootURL returns override if set, or the versioned URL of host
func (opt *Options) rootURL(override, host string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	scheme := "http"
	if opt.UseHTTPS {
		scheme = "https"
	}
	return scheme + "://" + host + apiVersion
}

// Client talks to the MEO Cloud API
type Client struct {
	opt        Options      // parsed options
	root       string       // meocloud or sandbox
	srv        *rest.Client // the connection to the server
	apiURL     string       // root of the metadata API
	contentURL string       // root of file transfers
	notifyURL  string       // root of change notifications
}

// NewClient makes a Client from opt.
//
// If httpClient is nil one is made with the default fs.ConfigInfo.
func NewClient(opt *Options, httpClient *http.Client) (*Client, error) {
	if opt == nil {
		return nil, fs.ConfigErrorf("no options supplied")
	}
	if err := opt.Check(); err != nil {
		return nil, err
	}
	signer, err := oauthutil.NewSigner(opt.Credentials())
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = fshttp.NewClient(fs.NewConfig(), nil)
	}
	c := &Client{
		opt:        *opt,
		root:       opt.Root(),
		apiURL:     opt.rootURL(opt.APIURL, defaultAPIHost),
		contentURL: opt.rootURL(opt.ContentURL, defaultContentHost),
		notifyURL:  opt.rootURL(opt.NotifyURL, defaultNotifyHost),
	}
	c.srv = rest.NewClient(httpClient).SetRoot(c.apiURL).SetSigner(signer.SignerFn())
	fs.Debugf(c, "New client for %v", opt.Credentials())
	return c, nil
}

// String converts this Client to a string
func (c *Client) String() string {
	return "meocloud:" + c.root
}

// Root returns the root the client works in
func (c *Client) Root() string {
	return c.root
}

// Options returns a copy of the options the client was made with
func (c *Client) Options() Options {
	return c.opt
}

// Call dispatches opts through the client's signer and transport.
// It is the escape hatch for endpoints without a method here.
func (c *Client) Call(ctx context.Context, opts *rest.Opts) (*rest.Response, error) {
	return c.srv.Call(ctx, opts)
}

// rootPath returns the escaped endpoint path for p inside the root
func (c *Client) rootPath(endpoint, p string) string {
	return rest.JoinPath(endpoint, c.root, p)
}

// callJSON runs opts, turning a non 2xx status into an *api.Error and
// decoding a 2xx body into result
func (c *Client) callJSON(ctx context.Context, opts *rest.Opts, result interface{}) error {
	resp, err := c.srv.CallJSON(ctx, opts, result)
	if err != nil {
		return err
	}
	return api.StatusError(resp)
}

// ------------------------------------------------------------
// Metadata and sharing

// Metadata reads the metadata of the file or folder at path.
//
// Params understood by the service: file_limit, hash, list,
// include_deleted, rev.
func (c *Client) Metadata(ctx context.Context, path string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "GET",
		Path:       c.rootPath("Metadata", path),
		Parameters: params,
		Response:   rest.ResponseStructured,
	})
}

// GetMetadata is Metadata decoded into an api.Metadata
func (c *Client) GetMetadata(ctx context.Context, path string, params *rest.Params) (*api.Metadata, error) {
	var info api.Metadata
	err := c.callJSON(ctx, &rest.Opts{
		Method:     "GET",
		Path:       c.rootPath("Metadata", path),
		Parameters: params,
	}, &info)
	if err != nil {
		return nil, errors.Wrapf(err, "metadata of %q", path)
	}
	return &info, nil
}

// MetadataShare reads the metadata of path inside the shared folder
// shareID
func (c *Client) MetadataShare(ctx context.Context, shareID, path string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "GET",
		Path:       rest.JoinPath("MetadataShare", shareID, path),
		Parameters: params,
		Response:   rest.ResponseStructured,
	})
}

// ListLinks lists the public links the user has made
func (c *Client) ListLinks(ctx context.Context) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "GET",
		Path:     "/ListLinks",
		Response: rest.ResponseStructured,
	})
}

// GetLinks is ListLinks decoded
func (c *Client) GetLinks(ctx context.Context) ([]api.Link, error) {
	var links []api.Link
	err := c.callJSON(ctx, &rest.Opts{
		Method: "GET",
		Path:   "/ListLinks",
	}, &links)
	if err != nil {
		return nil, errors.Wrap(err, "list links")
	}
	return links, nil
}

// DeleteLink removes the public link shareID
func (c *Client) DeleteLink(ctx context.Context, shareID string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "POST",
		Path:       "/DeleteLink",
		Parameters: rest.NewParams().Set("shareid", shareID),
		Response:   rest.ResponseStructured,
	})
}

// Shares makes a public link to the file at path
func (c *Client) Shares(ctx context.Context, path string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "POST",
		Path:     c.rootPath("Shares", path),
		Response: rest.ResponseStructured,
	})
}

// ShareFolder shares the folder at path with toEmail
func (c *Client) ShareFolder(ctx context.Context, path, toEmail string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "POST",
		Path:       c.rootPath("ShareFolder", path),
		Parameters: rest.NewParams().Set("to_email", toEmail),
		Response:   rest.ResponseStructured,
	})
}

// ListSharedFolders lists the folders shared with or by the user
func (c *Client) ListSharedFolders(ctx context.Context) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "GET",
		Path:     "/ListSharedFolders",
		Response: rest.ResponseStructured,
	})
}

// AccountInfo reads the user's account details and quota
func (c *Client) AccountInfo(ctx context.Context) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "GET",
		Path:     "/Account/Info",
		Response: rest.ResponseStructured,
	})
}

// GetAccountInfo is AccountInfo decoded
func (c *Client) GetAccountInfo(ctx context.Context) (*api.AccountInfo, error) {
	var info api.AccountInfo
	err := c.callJSON(ctx, &rest.Opts{
		Method: "GET",
		Path:   "/Account/Info",
	}, &info)
	if err != nil {
		return nil, errors.Wrap(err, "account info")
	}
	return &info, nil
}

// Thumbnail fetches a thumbnail of the image at path.  The body is
// image data so it is returned raw.
//
// Params understood by the service: format, size.
func (c *Client) Thumbnail(ctx context.Context, path string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "GET",
		RootURL:    c.contentURL,
		Path:       c.rootPath("Thumbnails", path),
		Parameters: params,
		Response:   rest.ResponseRaw,
	})
}

// Search looks for query in names under path.
//
// Other params understood by the service: file_limit, include_deleted.
func (c *Client) Search(ctx context.Context, path, query string, params *rest.Params) (*rest.Response, error) {
	params = params.Copy().Set("query", query)
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "GET",
		Path:       c.rootPath("Search", path),
		Parameters: params,
		Response:   rest.ResponseStructured,
	})
}

// Revisions lists the revisions of the file at path.
//
// Params understood by the service: rev_limit.
func (c *Client) Revisions(ctx context.Context, path string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "GET",
		Path:       c.rootPath("Revisions", path),
		Parameters: params,
		Response:   rest.ResponseStructured,
	})
}

// Restore restores the file at path to revision rev
func (c *Client) Restore(ctx context.Context, path, rev string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "POST",
		Path:       c.rootPath("Restore", path),
		Parameters: rest.NewParams().Set("rev", rev),
		Response:   rest.ResponseStructured,
	})
}

// Media makes a streaming link to the media file at path
func (c *Client) Media(ctx context.Context, path string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "POST",
		Path:     c.rootPath("Media", path),
		Response: rest.ResponseStructured,
	})
}

// UndeleteTree restores the deleted folder at path and its contents
func (c *Client) UndeleteTree(ctx context.Context, path string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "POST",
		Path:     c.rootPath("UndeleteTree", path),
		Response: rest.ResponseStructured,
	})
}

// ------------------------------------------------------------
// File operations

// fileop posts params plus the root to /Fileops/<op>
func (c *Client) fileop(ctx context.Context, op string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "POST",
		Path:       "/Fileops/" + op,
		Parameters: rest.NewParams().Set("root", c.root).Merge(params),
		Response:   rest.ResponseStructured,
	})
}

// CreateFolder makes the folder at path
func (c *Client) CreateFolder(ctx context.Context, path string) (*rest.Response, error) {
	return c.fileop(ctx, "CreateFolder", rest.NewParams().Set("path", path))
}

// Delete removes the file or folder at path
func (c *Client) Delete(ctx context.Context, path string) (*rest.Response, error) {
	return c.fileop(ctx, "Delete", rest.NewParams().Set("path", path))
}

// Move renames fromPath to toPath
func (c *Client) Move(ctx context.Context, fromPath, toPath string) (*rest.Response, error) {
	return c.fileop(ctx, "Move", rest.NewParams().Set("from_path", fromPath).Set("to_path", toPath))
}

// Copy copies fromPath to toPath
func (c *Client) Copy(ctx context.Context, fromPath, toPath string) (*rest.Response, error) {
	return c.fileop(ctx, "Copy", rest.NewParams().Set("from_path", fromPath).Set("to_path", toPath))
}

// ------------------------------------------------------------
// Changes

// LatestCursor asks for a cursor pointing at the current state
func (c *Client) LatestCursor(ctx context.Context) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:   "POST",
		Path:     "/Delta/LatestCursor",
		Response: rest.ResponseStructured,
	})
}

// GetLatestCursor is LatestCursor decoded
func (c *Client) GetLatestCursor(ctx context.Context) (string, error) {
	var result api.LatestCursor
	err := c.callJSON(ctx, &rest.Opts{
		Method: "POST",
		Path:   "/Delta/LatestCursor",
	}, &result)
	if err != nil {
		return "", errors.Wrap(err, "latest cursor")
	}
	if result.Cursor == "" {
		return "", errors.New("latest cursor: no cursor in response")
	}
	return result.Cursor, nil
}

// Delta pulls the changes since cursor
func (c *Client) Delta(ctx context.Context, cursor string) (*rest.Response, error) {
	return c.srv.Call(ctx, &rest.Opts{
		Method:     "POST",
		Path:       "/Delta",
		Parameters: rest.NewParams().Set("cursor", cursor),
		Response:   rest.ResponseStructured,
	})
}

// GetDelta is Delta decoded
func (c *Client) GetDelta(ctx context.Context, cursor string) (*api.DeltaPage, error) {
	var page api.DeltaPage
	err := c.callJSON(ctx, &rest.Opts{
		Method:     "POST",
		Path:       "/Delta",
		Parameters: rest.NewParams().Set("cursor", cursor),
	}, &page)
	if err != nil {
		return nil, errors.Wrap(err, "delta")
	}
	return &page, nil
}

// LongPollDelta blocks until there are changes after cursor or
// timeout passes.  It is sent unsigned to the notification host.
func (c *Client) LongPollDelta(ctx context.Context, cursor string, timeout time.Duration) (*rest.Response, error) {
	return c.srv.Call(ctx, c.longPollOpts(cursor, timeout))
}

func (c *Client) longPollOpts(cursor string, timeout time.Duration) *rest.Opts {
	params := rest.NewParams().Set("cursor", cursor)
	if timeout > 0 {
		seconds := int64(timeout / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		params.SetInt("timeout", seconds)
	}
	return &rest.Opts{
		Method:     "GET",
		RootURL:    c.notifyURL,
		Path:       "/LongPollDelta",
		Parameters: params,
		NoAuth:     true,
		Response:   rest.ResponseStructured,
	}
}

// WaitForChanges is LongPollDelta decoded
func (c *Client) WaitForChanges(ctx context.Context, cursor string, timeout time.Duration) (*api.LongPollResult, error) {
	var result api.LongPollResult
	err := c.callJSON(ctx, c.longPollOpts(cursor, timeout), &result)
	if err != nil {
		return nil, errors.Wrap(err, "long poll")
	}
	return &result, nil
}
