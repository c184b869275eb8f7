package rest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type param struct {
	key   string
	value string
}

// Params is an ordered set of request parameters.
//
// Unlike url.Values the parameters are encoded in the order they were
// first set, so the bytes sent (and signed) are those the caller
// built.  The zero value and a nil *Params are both empty.
type Params struct {
	params []param
}

// NewParams makes an empty Params
func NewParams() *Params {
	return &Params{}
}

// Set sets key to value.  If key was already set its value is
// replaced in place, keeping its original position.
func (p *Params) Set(key, value string) *Params {
	for i := range p.params {
		if p.params[i].key == key {
			p.params[i].value = value
			return p
		}
	}
	p.params = append(p.params, param{key: key, value: value})
	return p
}

// SetBool sets key to "true" or "false"
func (p *Params) SetBool(key string, value bool) *Params {
	return p.Set(key, strconv.FormatBool(value))
}

// SetInt sets key to the decimal representation of value
func (p *Params) SetInt(key string, value int64) *Params {
	return p.Set(key, strconv.FormatInt(value, 10))
}

// Get returns the value for key and whether it was set
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, item := range p.params {
		if item.key == key {
			return item.value, true
		}
	}
	return "", false
}

// Del removes key if present
func (p *Params) Del(key string) {
	if p == nil {
		return
	}
	for i := range p.params {
		if p.params[i].key == key {
			p.params = append(p.params[:i], p.params[i+1:]...)
			return
		}
	}
}

// Len returns the number of parameters set
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.params)
}

// Keys returns the keys in order
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.Len())
	if p == nil {
		return keys
	}
	for _, item := range p.params {
		keys = append(keys, item.key)
	}
	return keys
}

// Copy returns a copy of p which can be changed independently
func (p *Params) Copy() *Params {
	newP := NewParams()
	if p == nil {
		return newP
	}
	newP.params = append(newP.params, p.params...)
	return newP
}

// Merge sets every parameter of other in p, in other's order
func (p *Params) Merge(other *Params) *Params {
	if other == nil {
		return p
	}
	for _, item := range other.params {
		p.Set(item.key, item.value)
	}
	return p
}

// Encode encodes the parameters in "URL encoded" form
// ("bar=baz&foo=quux") in insertion order.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}
	var buf strings.Builder
	for i, item := range p.params {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(item.key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(item.value))
	}
	return buf.String()
}

// Values returns the parameters as url.Values, losing the order
func (p *Params) Values() url.Values {
	values := url.Values{}
	if p == nil {
		return values
	}
	for _, item := range p.params {
		values.Set(item.key, item.value)
	}
	return values
}

// ParseParams decodes a URL encoded query string or form body
// keeping the order of the keys.
func ParseParams(query string) (*Params, error) {
	p := NewParams()
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		key, value := part, ""
		if i := strings.IndexByte(part, '='); i >= 0 {
			key, value = part[:i], part[i+1:]
		}
		key, err := url.QueryUnescape(key)
		if err != nil {
			return nil, errors.Wrapf(err, "bad key in %q", part)
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, errors.Wrapf(err, "bad value in %q", part)
		}
		p.Set(key, value)
	}
	return p, nil
}
