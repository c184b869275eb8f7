package meocloud

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meocloud-go/meocloud/backend/meocloud/api"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/readers"
	"github.com/meocloud-go/meocloud/lib/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadReply = `{"bytes": 11, "path": "/up.txt", "is_dir": false, "root": "meocloud", "rev": "r1"}`

func TestTransferMode(t *testing.T) {
	size := int64(3)
	negative := int64(-1)
	for _, test := range []struct {
		d    TransferDescriptor
		want TransferMode
		err  error
	}{
		{TransferDescriptor{Path: "a"}, TransferDownload, nil},
		{TransferDescriptor{Path: "a", Source: strings.NewReader("abc"), ContentLength: &size}, TransferUpload, nil},
		{TransferDescriptor{Path: "a", Source: strings.NewReader("abc")}, 0, fs.ErrorMissingContentLength},
		{TransferDescriptor{Path: "a", ContentLength: &size}, 0, fs.ErrorUnexpectedContentLength},
	} {
		got, err := test.d.Mode()
		assert.Equal(t, test.err, err)
		assert.Equal(t, test.want, got)
	}
	d := TransferDescriptor{Source: strings.NewReader(""), ContentLength: &negative}
	_, err := d.Mode()
	assert.True(t, fs.IsConfigError(err))

	assert.Equal(t, "download", TransferDownload.String())
	assert.Equal(t, "upload", TransferUpload.String())
	assert.Equal(t, "TransferMode(7)", TransferMode(7).String())
}

func TestTransferConfigErrorsSendNothing(t *testing.T) {
	c, s := newTestClient(t)
	ctx := context.Background()

	_, err := c.Transfer(ctx, nil)
	assert.True(t, fs.IsConfigError(err))

	_, err = c.Transfer(ctx, &TransferDescriptor{Path: "x", Source: strings.NewReader("data")})
	assert.Equal(t, fs.ErrorMissingContentLength, err)

	size := int64(4)
	_, err = c.Transfer(ctx, &TransferDescriptor{Path: "x", ContentLength: &size})
	assert.Equal(t, fs.ErrorUnexpectedContentLength, err)

	_, err = c.Create(ctx, "x", -1, nil)
	assert.Equal(t, fs.ErrorMissingContentLength, err)

	assert.Empty(t, s.got())
}

func TestUpload(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/up.txt", http.StatusOK, uploadReply)

	const content = "hello world"
	d := NewUpload("up.txt", strings.NewReader(content), int64(len(content)), rest.NewParams().SetBool("overwrite", true))
	resp, err := c.Transfer(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info api.Metadata
	require.NoError(t, resp.DecodeJSON(&info))
	assert.Equal(t, int64(11), info.Bytes)
	assert.Equal(t, "r1", info.Rev)

	reqs := s.got()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, "PUT", got.method)
	assert.Equal(t, "/content/1/Files/meocloud/up.txt?overwrite=true", got.uri)
	assert.Equal(t, int64(len(content)), got.length)
	assert.Equal(t, content, got.body)
	assert.Empty(t, got.encoding)
	assert.Equal(t, "application/octet-stream", got.ctype)
	assert.Contains(t, got.auth, `oauth_token="tk"`)
}

func TestUploadContentType(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/page.html", http.StatusOK, `{}`)

	d := NewUpload("page.html", strings.NewReader("<p>"), 3, nil)
	d.ContentType = "text/html"
	_, err := c.Transfer(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "text/html", s.last().ctype)
	assert.Equal(t, "/content/1/Files/meocloud/page.html", s.last().uri)
}

func TestUploadEmpty(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/empty", http.StatusOK, `{"bytes": 0}`)

	resp, err := c.Transfer(context.Background(), NewUpload("empty", strings.NewReader(""), 0, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), s.last().length)
	assert.Equal(t, "", s.last().body)
}

func TestUploadErrorStatus(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/full", http.StatusInsufficientStorage, `{"error": "quota exceeded"}`)

	resp, err := c.Transfer(context.Background(), NewUpload("full", strings.NewReader("abc"), 3, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInsufficientStorage, resp.StatusCode)
	assert.EqualError(t, api.StatusError(resp), "meocloud error: quota exceeded (HTTP 507)")
}

func TestUploadSourceError(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/broken", http.StatusOK, `{}`)

	errBoom := errors.New("boom")
	src := readers.NewFailingReader(strings.NewReader("abc"), errBoom)
	resp, err := c.Transfer(context.Background(), NewUpload("broken", src, 10, nil))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, errBoom), "got %v", err)
}

func TestUploadShortSource(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/short", http.StatusOK, `{}`)

	_, err := c.Transfer(context.Background(), NewUpload("short", strings.NewReader("abc"), 10, nil))
	assert.Error(t, err)
}

func TestUploadLongSource(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/long", http.StatusOK, `{}`)
	s.reply("/content/1/Files/meocloud/empty", http.StatusOK, `{}`)

	_, err := c.Transfer(context.Background(), NewUpload("long", strings.NewReader("abcdef"), 3, nil))
	assert.Error(t, err)

	resp, err := c.Transfer(context.Background(), NewUpload("empty", strings.NewReader("abc"), 0, nil))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, fs.ErrorContentLengthExceeded), "got %v", err)
}

func TestCreateTooLong(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/four", http.StatusOK, `{}`)

	up, err := c.Create(context.Background(), "four", 4, nil)
	require.NoError(t, err)
	n, err := up.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = up.Write([]byte("de"))
	assert.True(t, errors.Is(err, fs.ErrorContentLengthExceeded), "got %v", err)

	_, err = up.Wait()
	assert.Error(t, err)
}

func TestUploadCancelled(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/never", http.StatusOK, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Transfer(ctx, NewUpload("never", strings.NewReader("abc"), 3, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestDownloadIsRaw(t *testing.T) {
	c, s := newTestClient(t)
	s.handle("/content/1/Files/meocloud/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	})

	resp, err := c.Transfer(context.Background(), NewDownload("doc.json", rest.NewParams().Set("rev", "r1")))
	require.NoError(t, err)
	assert.Equal(t, []byte("{not json"), resp.Raw)
	assert.Nil(t, resp.Result)

	got := s.last()
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/content/1/Files/meocloud/doc.json?rev=r1", got.uri)
	assert.NotEmpty(t, got.auth)
}

func TestDownloadNotFound(t *testing.T) {
	c, _ := newTestClient(t)

	resp, err := c.Transfer(context.Background(), NewDownload("nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpen(t *testing.T) {
	c, s := newTestClient(t)
	s.handle("/content/1/Files/meocloud/big.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 1000))
	})

	resp, err := c.Open(context.Background(), "big.bin", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Body)
	assert.Nil(t, resp.Raw)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, 1000, len(data))
}

func TestCreate(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/parts.txt", http.StatusOK, uploadReply)

	up, err := c.Create(context.Background(), "parts.txt", 6, nil)
	require.NoError(t, err)
	for _, part := range []string{"ab", "cd", "ef"} {
		n, err := up.Write([]byte(part))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	require.NoError(t, up.Close())
	<-up.Done()

	resp1, err1 := up.Wait()
	resp2, err2 := up.Wait()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, resp1, resp2)
	assert.Equal(t, "abcdef", s.last().body)
	assert.Len(t, s.got(), 1)
}

func TestCreateAbort(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/aborted", http.StatusOK, `{}`)

	up, err := c.Create(context.Background(), "aborted", 100, nil)
	require.NoError(t, err)
	_, err = up.Write([]byte("partial"))
	require.NoError(t, err)
	errStop := errors.New("stop")
	up.CloseWithError(errStop)

	_, err = up.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStop), "got %v", err)

	// writing after the request has finished fails
	_, err = up.Write([]byte("more"))
	assert.Error(t, err)
}

func TestUploadFile(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/remote/file.txt", http.StatusOK, uploadReply)

	dir := t.TempDir()
	local := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(local, []byte("file contents"), 0600))

	resp, err := c.UploadFile(context.Background(), local, "remote/file.txt", rest.NewParams().SetBool("overwrite", false))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got := s.last()
	assert.Equal(t, "PUT", got.method)
	assert.Equal(t, "/content/1/Files/meocloud/remote/file.txt?overwrite=false", got.uri)
	assert.Equal(t, int64(len("file contents")), got.length)
	assert.Equal(t, "file contents", got.body)
	assert.True(t, strings.HasPrefix(got.ctype, "text/plain"), got.ctype)

	_, err = c.UploadFile(context.Background(), filepath.Join(dir, "missing"), "x", nil)
	assert.True(t, os.IsNotExist(err), "got %v", err)

	_, err = c.UploadFile(context.Background(), dir, "x", nil)
	assert.True(t, fs.IsConfigError(err))
	assert.Len(t, s.got(), 1)
}

func TestUploadFileContentType(t *testing.T) {
	c, s := newTestClient(t)
	s.reply("/content/1/Files/meocloud/pic.png", http.StatusOK, `{}`)

	local := filepath.Join(t.TempDir(), "pic.dat")
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"
	require.NoError(t, os.WriteFile(local, []byte(png), 0600))

	_, err := c.UploadFile(context.Background(), local, "pic.png", nil)
	require.NoError(t, err)
	got := s.last()
	assert.Equal(t, "image/png", got.ctype)
	assert.Equal(t, png, got.body)
	assert.Equal(t, int64(len(png)), got.length)
}
