package meocloud

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/readers"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TransferMode says which way a transfer goes
type TransferMode int

// TransferMode definitions
const (
	TransferDownload TransferMode = iota + 1
	TransferUpload
)

// String turns a TransferMode into a string
func (m TransferMode) String() string {
	switch m {
	case TransferDownload:
		return "download"
	case TransferUpload:
		return "upload"
	}
	return fmt.Sprintf("TransferMode(%d)", int(m))
}

// TransferDescriptor describes a file transfer.
//
// A Source with a ContentLength is an upload, neither is a download.
// Anything else is a configuration error.
type TransferDescriptor struct {
	Path          string       // remote path inside the root
	Source        io.Reader    // data to upload
	ContentLength *int64       // length of Source, required for uploads
	ContentType   string       // optional content type of Source
	Parameters    *rest.Params // optional, eg overwrite, parent_rev
}

// NewUpload describes an upload of size bytes read from source to path
func NewUpload(path string, source io.Reader, size int64, params *rest.Params) *TransferDescriptor {
	return &TransferDescriptor{
		Path:          path,
		Source:        source,
		ContentLength: &size,
		Parameters:    params,
	}
}

// NewDownload describes a download of path
func NewDownload(path string, params *rest.Params) *TransferDescriptor {
	return &TransferDescriptor{
		Path:       path,
		Parameters: params,
	}
}

// Mode works out which way the transfer goes
func (d *TransferDescriptor) Mode() (TransferMode, error) {
	switch {
	case d.Source != nil && d.ContentLength != nil:
		if *d.ContentLength < 0 {
			return 0, fs.ConfigErrorf("negative content length %d", *d.ContentLength)
		}
		return TransferUpload, nil
	case d.Source != nil:
		return 0, fs.ErrorMissingContentLength
	case d.ContentLength != nil:
		return 0, fs.ErrorUnexpectedContentLength
	}
	return TransferDownload, nil
}

// Transfer runs the upload or download described by d.
//
// An upload returns the structured response, which is the metadata of
// the stored file.  A read error from the source aborts the request
// and is returned.  A download returns the file's bytes in Raw, never
// parsed.  Configuration errors are returned before anything is sent.
func (c *Client) Transfer(ctx context.Context, d *TransferDescriptor) (*rest.Response, error) {
	if d == nil {
		return nil, fs.ConfigErrorf("no transfer supplied")
	}
	mode, err := d.Mode()
	if err != nil {
		return nil, err
	}
	fs.Debugf(c, "%v of %q", mode, d.Path)
	if mode == TransferDownload {
		return c.srv.Call(ctx, c.filesOpts(d.Path, d.Parameters, rest.ResponseRaw))
	}
	return c.upload(ctx, d)
}

// sourceReader remembers the first error other than io.EOF from the
// upload source
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (n int, err error) {
	n, err = s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

// upload pipes d.Source into an upload request
func (c *Client) upload(ctx context.Context, d *TransferDescriptor) (*rest.Response, error) {
	up, err := c.create(ctx, d.Path, *d.ContentLength, d.ContentType, d.Parameters)
	if err != nil {
		return nil, err
	}
	src := &sourceReader{r: d.Source}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := io.Copy(up, readers.NewContextReader(gCtx, src))
		if err != nil {
			up.CloseWithError(err)
			return err
		}
		return up.Close()
	})
	g.Go(func() error {
		_, err := up.Wait()
		return err
	})
	gErr := g.Wait()
	if src.err != nil {
		return nil, errors.Wrapf(src.err, "failed to read source for %q", d.Path)
	}
	resp, err := up.Wait()
	if err != nil {
		return nil, errors.Wrapf(err, "upload of %q failed", d.Path)
	}
	if errors.Is(gErr, fs.ErrorContentLengthExceeded) {
		return nil, errors.Wrapf(gErr, "upload of %q failed", d.Path)
	}
	if gErr != nil {
		// the server answered before taking all the data
		fs.Debugf(c, "upload of %q: %v", d.Path, gErr)
	}
	return resp, nil
}

// filesOpts makes the options for the content endpoint at path
func (c *Client) filesOpts(path string, params *rest.Params, mode rest.ResponseMode) *rest.Opts {
	return &rest.Opts{
		Method:     "GET",
		RootURL:    c.contentURL,
		Path:       c.rootPath("Files", path),
		Parameters: params,
		Response:   mode,
	}
}

// Open starts a streaming download of path.  The caller must close
// the Body of the response.
func (c *Client) Open(ctx context.Context, path string, params *rest.Params) (*rest.Response, error) {
	return c.srv.Call(ctx, c.filesOpts(path, params, rest.ResponseStream))
}

// Upload is an upload in flight.  Data written to it is sent as the
// body of the request.
//
// Close it when all size bytes have been written, or CloseWithError
// to abort it, then Wait for the response.
type Upload struct {
	pw      *io.PipeWriter
	size    int64         // declared length
	written int64         // bytes accepted by Write
	done    chan struct{} // closed when resp and err are set
	resp    *rest.Response
	err     error
}

// Create starts an upload of size bytes to path and returns the sink
// to write them to.
func (c *Client) Create(ctx context.Context, path string, size int64, params *rest.Params) (*Upload, error) {
	return c.create(ctx, path, size, "", params)
}

func (c *Client) create(ctx context.Context, path string, size int64, contentType string, params *rest.Params) (*Upload, error) {
	if size < 0 {
		return nil, fs.ErrorMissingContentLength
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	pr, pw := io.Pipe()
	opts := c.filesOpts(path, params, rest.ResponseStructured)
	opts.Method = "PUT"
	opts.Body = pr
	opts.ContentLength = &size
	opts.ContentType = contentType
	opts.TransferEncoding = []string{"identity"}
	up := &Upload{
		pw:   pw,
		size: size,
		done: make(chan struct{}),
	}
	go func() {
		resp, err := c.srv.Call(ctx, opts)
		closeErr := err
		if closeErr == nil {
			closeErr = io.ErrClosedPipe
		}
		// unblock any writer the server didn't read from
		_ = pr.CloseWithError(closeErr)
		up.resp, up.err = resp, err
		close(up.done)
	}()
	return up, nil
}

// Write writes p to the upload.  Writing more than the declared size
// aborts the upload with fs.ErrorContentLengthExceeded.
func (up *Upload) Write(p []byte) (int, error) {
	if int64(len(p)) > up.size-up.written {
		err := errors.Wrapf(fs.ErrorContentLengthExceeded, "more than %d bytes", up.size)
		_ = up.pw.CloseWithError(err)
		return 0, err
	}
	n, err := up.pw.Write(p)
	up.written += int64(n)
	return n, err
}

// Close signals that all the data has been written
func (up *Upload) Close() error {
	return up.pw.Close()
}

// CloseWithError aborts the upload with err
func (up *Upload) CloseWithError(err error) {
	_ = up.pw.CloseWithError(err)
}

// Done is closed when the upload has finished
func (up *Upload) Done() <-chan struct{} {
	return up.done
}

// Wait waits for the upload to finish and returns its result.  It
// returns the same result however many times it is called.
func (up *Upload) Wait() (*rest.Response, error) {
	<-up.done
	return up.resp, up.err
}

// LocalFile is a readable file which knows its size, eg *os.File
type LocalFile interface {
	io.Reader
	Stat() (os.FileInfo, error)
}

// FileDescriptor describes the upload of f to remote
func FileDescriptor(remote string, f LocalFile) (*TransferDescriptor, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat upload source")
	}
	if fi.IsDir() {
		return nil, fs.ConfigErrorf("can't upload directory %q", fi.Name())
	}
	return NewUpload(remote, f, fi.Size(), nil), nil
}

// UploadFile uploads the local file at localPath to remote with a
// content type detected from its contents
func (c *Client) UploadFile(ctx context.Context, localPath, remote string, params *rest.Params) (resp *rest.Response, err error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer fs.CheckClose(f, &err)
	d, err := FileDescriptor(remote, f)
	if err != nil {
		return nil, err
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload source")
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind upload source")
	}
	d.ContentType = mtype.String()
	d.Parameters = params
	return c.Transfer(ctx, d)
}
