package rest

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// URLPathEscape escapes URL path the in string using URL escaping
// rules.  Slashes are kept as path separators.
func URLPathEscape(in string) string {
	u := url.URL{Path: in}
	return u.EscapedPath()
}

// JoinPath joins the path segments into an escaped URL path with a
// leading slash, dropping empty segments and doubled slashes.
// Segments are converted to Unicode NFC.
//
// The segments should not be escaped.
func JoinPath(segments ...string) string {
	var parts []string
	for _, segment := range segments {
		for _, part := range strings.Split(segment, "/") {
			if part != "" {
				parts = append(parts, norm.NFC.String(part))
			}
		}
	}
	return URLPathEscape("/" + strings.Join(parts, "/"))
}
