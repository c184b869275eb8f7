package readers

import "io"

// ErrorReader wraps an error to return on Read
type ErrorReader struct {
	Err error
}

// Read always returns the error
func (er ErrorReader) Read(p []byte) (n int, err error) {
	return 0, er.Err
}

// NewFailingReader returns a reader which reads from r and then
// returns err in place of io.EOF.
//
// Chain it after some data to simulate a source which breaks part
// way through.
func NewFailingReader(r io.Reader, err error) io.Reader {
	return io.MultiReader(r, ErrorReader{Err: err})
}
