package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/meocloud-go/meocloud/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is what the test server saw
type recorded struct {
	method      string
	uri         string
	rawQuery    string
	contentType string
	length      int64
	body        string
	auth        string
}

// newServer makes a test server which records the requests it gets
// and replies with the status and body given
func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		reqs = append(reqs, recorded{
			method:      r.Method,
			uri:         r.RequestURI,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			length:      r.ContentLength,
			body:        string(data),
			auth:        r.Header.Get("Authorization"),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(ts.Close)
	return ts, &reqs
}

func TestMetadataRead(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{"is_dir": true, "root": "meocloud"}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL + "/1")

	resp, err := api.Call(context.Background(), &Opts{
		Method:   "GET",
		Path:     "/Metadata/meocloud/test",
		Response: ResponseStructured,
	})
	require.NoError(t, err)
	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "/1/Metadata/meocloud/test", got.uri)
	assert.NotContains(t, got.uri, "?")
	assert.Equal(t, "", got.body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Equal(t, map[string]interface{}{"is_dir": true, "root": "meocloud"}, resp.Result)

	var meta struct {
		IsDir bool   `json:"is_dir"`
		Root  string `json:"root"`
	}
	require.NoError(t, resp.DecodeJSON(&meta))
	assert.True(t, meta.IsDir)
	assert.Equal(t, "meocloud", meta.Root)
}

func TestGetParamsInQuery(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `[]`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)

	_, err := api.Call(context.Background(), &Opts{
		Method:     "GET",
		Path:       "/Search/meocloud/",
		Parameters: NewParams().Set("query", "a b").SetInt("file_limit", 10),
		Response:   ResponseStructured,
	})
	require.NoError(t, err)
	got := (*reqs)[0]
	assert.Equal(t, "query=a+b&file_limit=10", got.rawQuery)
	assert.Equal(t, "", got.body)
	assert.Equal(t, "", got.contentType)
}

func TestPostParamsInBody(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)

	_, err := api.Call(context.Background(), &Opts{
		Method:     "POST",
		Path:       "/ShareFolder/meocloud/Fotos",
		Parameters: NewParams().Set("to_email", "me@me.com").Set("a", "1"),
		Response:   ResponseStructured,
	})
	require.NoError(t, err)
	got := (*reqs)[0]
	assert.Equal(t, "/ShareFolder/meocloud/Fotos", got.uri)
	assert.Equal(t, "", got.rawQuery)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "to_email=me%40me.com&a=1", got.body)
	assert.Equal(t, int64(len(got.body)), got.length)
}

func TestPostNoParamsNoBody(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)

	_, err := api.Call(context.Background(), &Opts{
		Method:   "POST",
		Path:     "/Delta/LatestCursor",
		Response: ResponseStructured,
	})
	require.NoError(t, err)
	got := (*reqs)[0]
	assert.Equal(t, "", got.body)
	assert.Equal(t, "", got.contentType)
	assert.Equal(t, int64(0), got.length)
}

func TestStreamingBodyParamsInQuery(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)

	n := int64(5)
	_, err := api.Call(context.Background(), &Opts{
		Method:        "POST",
		Path:          "/Files/meocloud/hello.txt",
		Parameters:    NewParams().SetBool("overwrite", true),
		Body:          strings.NewReader("hello"),
		ContentLength: &n,
		ContentType:   "text/plain",
		Response:      ResponseStructured,
	})
	require.NoError(t, err)
	got := (*reqs)[0]
	assert.Equal(t, "overwrite=true", got.rawQuery)
	assert.Equal(t, "hello", got.body)
	assert.Equal(t, int64(5), got.length)
	assert.Equal(t, "text/plain", got.contentType)
}

func TestSigner(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	var (
		calls    int
		lastForm url.Values
	)
	api := NewClient(ts.Client()).SetRoot(ts.URL).SetSigner(func(req *http.Request, form url.Values) error {
		calls++
		lastForm = form
		req.Header.Set("Authorization", "OAuth test")
		return nil
	})

	_, err := api.Call(context.Background(), &Opts{
		Method:     "POST",
		Path:       "/Fileops/Delete",
		Parameters: NewParams().Set("root", "meocloud").Set("path", "/x"),
		Response:   ResponseStructured,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, url.Values{"root": {"meocloud"}, "path": {"/x"}}, lastForm)
	assert.Equal(t, "OAuth test", (*reqs)[0].auth)

	_, err = api.Call(context.Background(), &Opts{
		Method:   "GET",
		Path:     "/LongPollDelta",
		NoAuth:   true,
		Response: ResponseStructured,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "", (*reqs)[1].auth)
}

func TestSignerError(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL).SetSigner(func(req *http.Request, form url.Values) error {
		return errors.New("no keys")
	})
	_, err := api.Call(context.Background(), &Opts{Path: "/x", Response: ResponseRaw})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keys")
	assert.Len(t, *reqs, 0)
}

func TestErrorStatusIsNotAnError(t *testing.T) {
	for _, test := range []struct {
		status int
		reply  string
		result interface{}
	}{
		{http.StatusNotFound, `{"error": "not found"}`, map[string]interface{}{"error": "not found"}},
		{http.StatusForbidden, `{}`, map[string]interface{}{}},
		{http.StatusInternalServerError, `<html>oops</html>`, nil},
		{http.StatusServiceUnavailable, ``, nil},
	} {
		ts, _ := newServer(t, test.status, test.reply)
		api := NewClient(ts.Client()).SetRoot(ts.URL)
		resp, err := api.Call(context.Background(), &Opts{Path: "/Metadata/meocloud/missing", Response: ResponseStructured})
		require.NoError(t, err, test.status)
		assert.Equal(t, test.status, resp.StatusCode)
		assert.False(t, resp.OK())
		assert.Equal(t, test.result, resp.Result)
		assert.Equal(t, test.reply, string(resp.Raw))
	}
}

func TestEmptySuccessBody(t *testing.T) {
	ts, _ := newServer(t, http.StatusOK, "")
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	resp, err := api.Call(context.Background(), &Opts{Method: "POST", Path: "/DeleteLink", Response: ResponseStructured})
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDecodeErrorOnSuccess(t *testing.T) {
	ts, _ := newServer(t, http.StatusOK, `{"is_dir": tru`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	resp, err := api.Call(context.Background(), &Opts{Path: "/Metadata/meocloud/x", Response: ResponseStructured})
	require.Error(t, err)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, http.StatusOK, decodeErr.StatusCode)
	assert.Equal(t, `{"is_dir": tru`, string(decodeErr.Raw))
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
	require.NotNil(t, resp)
	assert.Nil(t, resp.Result)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	URL := ts.URL
	ts.Close()
	api := NewClient(http.DefaultClient).SetRoot(URL)
	resp, err := api.Call(context.Background(), &Opts{Path: "/Account/Info", Response: ResponseStructured})
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestCancelledContext(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := api.Call(ctx, &Opts{Path: "/Account/Info", Response: ResponseStructured})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, *reqs, 0)
}

func TestRawMode(t *testing.T) {
	ts, _ := newServer(t, http.StatusOK, "\x89PNG not json")
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	resp, err := api.Call(context.Background(), &Opts{Path: "/Thumbnails/meocloud/a.png", Response: ResponseRaw})
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG not json", string(resp.Raw))
	assert.Nil(t, resp.Result)
	assert.Nil(t, resp.Body)
}

func TestStreamMode(t *testing.T) {
	ts, _ := newServer(t, http.StatusOK, "file contents")
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	resp, err := api.Call(context.Background(), &Opts{Path: "/Files/meocloud/a.txt", Response: ResponseStream})
	require.NoError(t, err)
	require.NotNil(t, resp.Body)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "file contents", string(data))
	assert.Nil(t, resp.Raw)
}

func TestResponseModeUnset(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	_, err := api.Call(context.Background(), &Opts{Path: "/Account/Info"})
	require.Error(t, err)
	assert.True(t, fs.IsConfigError(err))
	assert.Len(t, *reqs, 0)
}

func TestRootURLMissing(t *testing.T) {
	api := NewClient(http.DefaultClient)
	_, err := api.Call(context.Background(), &Opts{Path: "/Account/Info", Response: ResponseRaw})
	require.Error(t, err)
	assert.True(t, fs.IsConfigError(err))
}

func TestRootURLOverride(t *testing.T) {
	ts, reqs := newServer(t, http.StatusOK, `{}`)
	api := NewClient(ts.Client()).SetRoot("http://example.invalid")
	_, err := api.Call(context.Background(), &Opts{RootURL: ts.URL + "/1", Path: "/Shares", Response: ResponseStructured})
	require.NoError(t, err)
	assert.Equal(t, "/1/Shares", (*reqs)[0].uri)
}

func TestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer ts.Close()
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	_, err := api.Call(context.Background(), &Opts{
		Path:         "/x",
		ExtraHeaders: map[string]string{"X-Extra": "1", "X-Empty": ""},
		Response:     ResponseRaw,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", got.Get("X-Extra"))
	_, ok := got["X-Empty"]
	assert.False(t, ok)
}

func TestCallJSON(t *testing.T) {
	ts, _ := newServer(t, http.StatusOK, `{"cursor": "AAE"}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	var result struct {
		Cursor string `json:"cursor"`
	}
	opts := &Opts{Method: "POST", Path: "/Delta/LatestCursor", Response: ResponseRaw}
	resp, err := api.CallJSON(context.Background(), opts, &result)
	require.NoError(t, err)
	assert.Equal(t, "AAE", result.Cursor)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// caller's opts are untouched
	assert.Equal(t, ResponseRaw, opts.Response)

	_, err = api.CallJSON(context.Background(), nil, &result)
	assert.Error(t, err)
}

func TestCallJSONErrorStatus(t *testing.T) {
	ts, _ := newServer(t, http.StatusNotFound, `{"cursor": "nope"}`)
	api := NewClient(ts.Client()).SetRoot(ts.URL)
	var result struct {
		Cursor string `json:"cursor"`
	}
	resp, err := api.CallJSON(context.Background(), &Opts{Path: "/x"}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "", result.Cursor)
}

func TestResponseModeString(t *testing.T) {
	assert.Equal(t, "unset", ResponseUnset.String())
	assert.Equal(t, "structured", ResponseStructured.String())
	assert.Equal(t, "raw", ResponseRaw.String())
	assert.Equal(t, "stream", ResponseStream.String())
	assert.Equal(t, "ResponseMode(17)", ResponseMode(17).String())
}

func TestURLPathEscape(t *testing.T) {
	assert.Equal(t, "/Metadata/meocloud/test", URLPathEscape("/Metadata/meocloud/test"))
	assert.Equal(t, "/a%20b/c%3Fd/%25", URLPathEscape("/a b/c?d/%"))
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/Metadata/meocloud/test", JoinPath("Metadata", "meocloud", "/test"))
	assert.Equal(t, "/Metadata/meocloud", JoinPath("/Metadata/", "meocloud", "", "/"))
	assert.Equal(t, "/Files/sandbox/f%C3%A9rias%202013/a%23b.txt", JoinPath("Files", "sandbox", "férias 2013//a#b.txt"))
	assert.Equal(t, "/", JoinPath())
	assert.Equal(t, "/Files/meocloud/f%C3%A9rias", JoinPath("Files", "meocloud", "fe\u0301rias"))
}
