// Package api has type definitions for meocloud
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meocloud-go/meocloud/lib/rest"
)

const (
	// Tue, 01 Jan 2030 00:00:00 +0000
	timeFormat = `"` + time.RFC1123Z + `"`
)

// Time represents date and time information for the
// meocloud API, by using RFC1123Z
type Time time.Time

// MarshalJSON turns a Time into JSON (in UTC)
func (t *Time) MarshalJSON() (out []byte, err error) {
	timeString := (*time.Time)(t).UTC().Format(timeFormat)
	return []byte(timeString), nil
}

// UnmarshalJSON turns JSON into a Time
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		*t = Time{}
		return nil
	}
	newT, err := time.Parse(timeFormat, string(data))
	if err != nil {
		return err
	}
	*t = Time(newT)
	return nil
}

// String formats the time like the service does
func (t Time) String() string {
	return time.Time(t).Format(time.RFC1123Z)
}

// Error is made from a response with a non 2xx status for callers
// which want one
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

// Error returns a string for the error and satisfies the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("meocloud error: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("meocloud error: %s (HTTP %d)", e.Message, e.StatusCode)
}

// Check Error satisfies the error interface
var _ error = (*Error)(nil)

// StatusError returns nil if resp has a 2xx status, otherwise an
// *Error describing it.  The message is taken from a JSON "error"
// field if present, or the start of a plain text body.
func StatusError(resp *rest.Response) error {
	if resp == nil || resp.OK() {
		return nil
	}
	e := &Error{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(resp.Raw, e); err != nil || e.Message == "" {
		e.Message = ""
		body := strings.TrimSpace(string(resp.Raw))
		if !strings.HasPrefix(body, "{") && !strings.HasPrefix(body, "<") {
			const maxMessage = 256
			if len(body) > maxMessage {
				body = body[:maxMessage]
			}
			e.Message = body
		}
	}
	return e
}

// Metadata describes a file or folder
type Metadata struct {
	Size        string      `json:"size,omitempty"`
	Rev         string      `json:"rev,omitempty"`
	ThumbExists bool        `json:"thumb_exists"`
	Bytes       int64       `json:"bytes"`
	Modified    *Time       `json:"modified,omitempty"`
	ClientMtime *Time       `json:"client_mtime,omitempty"`
	Path        string      `json:"path"`
	IsDir       bool        `json:"is_dir"`
	IsDeleted   bool        `json:"is_deleted,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Root        string      `json:"root"`
	MimeType    string      `json:"mime_type,omitempty"`
	Hash        string      `json:"hash,omitempty"`
	Contents    []*Metadata `json:"contents,omitempty"`
}

// Link is a public link as returned by ListLinks
type Link struct {
	URL     string `json:"url"`
	ShareID string `json:"shareid"`
	Path    string `json:"path,omitempty"`
	Expires *Time  `json:"expires,omitempty"`
}

// SharedLink is returned when a link to a file is made by Shares
type SharedLink struct {
	URL         string `json:"url"`
	Expires     *Time  `json:"expires,omitempty"`
	LinkShareID string `json:"link_shareid"`
}

// ShareFolderResult is returned by ShareFolder
type ShareFolderResult struct {
	ReqID string `json:"req_id"`
}

// QuotaInfo describes the storage used by an account
type QuotaInfo struct {
	Shared int64 `json:"shared"`
	Quota  int64 `json:"quota"`
	Normal int64 `json:"normal"`
}

// AccountInfo describes the user account
type AccountInfo struct {
	ReferralLink string    `json:"referral_link"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	UID          string    `json:"uid"`
	Country      string    `json:"country,omitempty"`
	QuotaInfo    QuotaInfo `json:"quota_info"`
}

// DeltaEntry is a single change.  The feed doesn't interpret it.
type DeltaEntry = json.RawMessage

// DeltaPage is a page of changes as returned by Delta
type DeltaPage struct {
	HasMore bool         `json:"has_more"`
	Entries []DeltaEntry `json:"entries"`
	Reset   bool         `json:"reset"`
	Cursor  string       `json:"cursor,omitempty"`
}

// LatestCursor is returned by LatestCursor
type LatestCursor struct {
	Cursor string `json:"cursor"`
}

// LongPollResult is returned by LongPollDelta
type LongPollResult struct {
	Changes bool `json:"changes"`
	Backoff int  `json:"backoff,omitempty"` // seconds before the next long poll
}

// BackoffDuration returns the backoff as a time.Duration
func (r *LongPollResult) BackoffDuration() time.Duration {
	if r.Backoff <= 0 {
		return 0
	}
	return time.Duration(r.Backoff) * time.Second
}
