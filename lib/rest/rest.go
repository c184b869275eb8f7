// Package rest implements the request dispatcher used by every API
// call.
//
// It builds the HTTP request from an Opts, encodes the parameters
// according to the method, signs it and normalises the outcome into a
// Response.  HTTP error statuses are not turned into errors: only
// transport failures, local configuration problems and undecodable
// bodies are.
//
// All methods are safe for concurrent calling.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/meocloud-go/meocloud/fs"
	"github.com/pkg/errors"
)

// Client contains the info to sustain the API
type Client struct {
	mu      sync.RWMutex
	c       *http.Client
	rootURL string
	signer  SignerFn
}

// NewClient takes an http.Client and makes a new api instance
func NewClient(c *http.Client) *Client {
	api := &Client{
		c: c,
	}
	return api
}

// SetRoot sets the default RootURL.  You can override this on a per
// call basis using the RootURL field in Opts.
func (api *Client) SetRoot(RootURL string) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.rootURL = RootURL
	return api
}

// SignerFn is used to sign an outgoing request.  form holds the
// parameters sent in a form encoded body, if any.
type SignerFn func(req *http.Request, form url.Values) error

// SetSigner sets a signer for all requests which don't have NoAuth set
func (api *Client) SetSigner(signer SignerFn) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.signer = signer
	return api
}

// ResponseMode says what to do with the body of the response
type ResponseMode int

// ResponseMode definitions
const (
	ResponseUnset      ResponseMode = iota // not valid - must be set by the caller
	ResponseStructured                     // read the body and decode it as JSON
	ResponseRaw                            // read the body but leave it as bytes
	ResponseStream                         // return the body unread for the caller to close
)

var responseModeToString = []string{
	ResponseUnset:      "unset",
	ResponseStructured: "structured",
	ResponseRaw:        "raw",
	ResponseStream:     "stream",
}

// String turns a ResponseMode into a string
func (m ResponseMode) String() string {
	if m < 0 || int(m) >= len(responseModeToString) {
		return fmt.Sprintf("ResponseMode(%d)", int(m))
	}
	return responseModeToString[m]
}

// Opts contains parameters for Call, CallJSON, etc.
type Opts struct {
	Method           string    // GET, POST, etc.
	Path             string    // relative to RootURL, already escaped
	RootURL          string    // override RootURL passed into SetRoot()
	Parameters       *Params   // encoded into the URL or the body depending on Method
	Body             io.Reader // streaming body - parameters go in the URL if set
	ContentType      string    // content type of Body
	ContentLength    *int64    // length of Body if known
	ExtraHeaders     map[string]string
	NoAuth           bool         // if set the request is not signed
	Response         ResponseMode // what to do with the response body
	TransferEncoding []string     // transfer encoding, set to "identity" to disable chunked encoding
}

// Copy creates a copy of the options
func (o *Opts) Copy() *Opts {
	newOpts := *o
	return &newOpts
}

// paramsInURL returns true if the parameters for opts are sent in the
// query string rather than a form encoded body.
//
// Retrievals and uploads, where the body is the payload itself, carry
// their parameters in the URL.  Everything else is a form post.
func paramsInURL(opts *Opts) bool {
	if opts.Body != nil {
		return true
	}
	switch strings.ToUpper(opts.Method) {
	case "", http.MethodGet, http.MethodHead, http.MethodPut:
		return true
	}
	return false
}

// Response is the normalised outcome of a call which reached the
// server, whatever the HTTP status.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Raw        []byte        // the body for ResponseStructured and ResponseRaw
	Result     interface{}   // the decoded JSON for ResponseStructured, nil if empty
	Body       io.ReadCloser // the open body for ResponseStream
}

// OK returns true if the status code is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// DecodeJSON decodes the raw body into result
func (r *Response) DecodeJSON(result interface{}) error {
	if err := json.Unmarshal(r.Raw, result); err != nil {
		return &DecodeError{StatusCode: r.StatusCode, Raw: r.Raw, Err: err}
	}
	return nil
}

// DecodeError is returned when a body which should be JSON isn't
type DecodeError struct {
	StatusCode int
	Raw        []byte
	Err        error
}

// Error satisfies the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode HTTP %d response: %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying JSON error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewRequest builds, encodes and signs the http.Request for opts
func (api *Client) NewRequest(ctx context.Context, opts *Opts) (*http.Request, error) {
	api.mu.RLock()
	rootURL, signer := api.rootURL, api.signer
	api.mu.RUnlock()
	headers := make(map[string]string, 4)

	if opts == nil {
		return nil, errors.New("NewRequest called with nil opts")
	}
	if opts.Response == ResponseUnset {
		return nil, fs.ErrorResponseModeUnset
	}
	if opts.RootURL != "" {
		rootURL = opts.RootURL
	}
	if rootURL == "" {
		return nil, fs.ConfigErrorf("RootURL not set")
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	URL := rootURL + opts.Path

	var (
		body          = opts.Body
		contentLength = opts.ContentLength
		form          url.Values
	)
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}
	if opts.Parameters.Len() > 0 {
		encoded := opts.Parameters.Encode()
		if paramsInURL(opts) {
			URL += "?" + encoded
		} else {
			body = strings.NewReader(encoded)
			n := int64(len(encoded))
			contentLength = &n
			form = opts.Parameters.Values()
			headers["Content-Type"] = "application/x-www-form-urlencoded"
		}
	}
	// If length is set and zero then nil out the body to stop use
	// of chunked encoding and send a "Content-Length: 0" header.
	if contentLength != nil && *contentLength == 0 {
		body = nil
	}
	req, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, err
	}
	if contentLength != nil {
		req.ContentLength = *contentLength
	}
	if len(opts.TransferEncoding) != 0 {
		req.TransferEncoding = opts.TransferEncoding
	}
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}
	for k, v := range headers {
		if k != "" && v != "" {
			req.Header.Set(k, v)
		}
	}
	if !opts.NoAuth && signer != nil {
		if err := signer(req, form); err != nil {
			return nil, errors.Wrap(err, "signer failed")
		}
	}
	return req, nil
}

// Call makes the call and returns the normalised Response
//
// err is only set if the request couldn't be made, the transport
// failed, or a 2xx structured response couldn't be decoded.  In the
// last case resp is returned too.  A non 2xx status is not an error:
// inspect resp.StatusCode.
//
// If opts.Response is ResponseStream then resp.Body must be closed by
// the caller.
func (api *Client) Call(ctx context.Context, opts *Opts) (resp *Response, err error) {
	req, err := api.NewRequest(ctx, opts)
	if err != nil {
		return nil, err
	}
	httpResp, err := api.c.Do(req)
	if err != nil {
		return nil, err
	}
	resp = &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
	}
	if opts.Response == ResponseStream {
		resp.Body = httpResp.Body
		return resp, nil
	}
	resp.Raw, err = readBody(httpResp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if opts.Response != ResponseStructured || len(bytes.TrimSpace(resp.Raw)) == 0 {
		return resp, nil
	}
	err = json.Unmarshal(resp.Raw, &resp.Result)
	if err != nil {
		resp.Result = nil
		if resp.OK() {
			return resp, &DecodeError{StatusCode: resp.StatusCode, Raw: resp.Raw, Err: err}
		}
		// error pages needn't be JSON - the status says it all
		return resp, nil
	}
	return resp, nil
}

// readBody reads resp.Body, closing it
func readBody(resp *http.Response) (result []byte, err error) {
	defer fs.CheckClose(resp.Body, &err)
	return io.ReadAll(resp.Body)
}

// CallJSON runs Call in structured mode and, if the status is 2xx and
// result is not nil, decodes the body into result.
//
// It will return resp if at all possible, even if err is set
func (api *Client) CallJSON(ctx context.Context, opts *Opts, result interface{}) (resp *Response, err error) {
	if opts == nil {
		return nil, errors.New("CallJSON called with nil opts")
	}
	opts = opts.Copy()
	opts.Response = ResponseStructured
	resp, err = api.Call(ctx, opts)
	if err != nil {
		return resp, err
	}
	if result == nil || !resp.OK() || resp.Result == nil {
		return resp, nil
	}
	return resp, resp.DecodeJSON(result)
}
