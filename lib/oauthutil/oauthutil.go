// Package oauthutil provides OAuth 1.0a request signing.
package oauthutil

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/garyburd/go-oauth/oauth"
	"github.com/meocloud-go/meocloud/fs"
	"github.com/meocloud-go/meocloud/lib/rest"
)

// Credentials are the application and user keys used to sign requests
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

// Check returns a config error if the credentials can't sign anything
func (c Credentials) Check() error {
	if c.ConsumerKey == "" || c.Token == "" {
		return fs.ErrorMissingCredentials
	}
	return nil
}

// String shows the keys but not the secrets
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ConsumerKey:%q, Token:%q}", c.ConsumerKey, c.Token)
}

// Signer signs requests with a fixed set of credentials
type Signer struct {
	client oauth.Client
	token  oauth.Credentials
}

// NewSigner makes a Signer from creds, checking them first
func NewSigner(creds Credentials) (*Signer, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	return &Signer{
		client: oauth.Client{
			Credentials: oauth.Credentials{
				Token:  creds.ConsumerKey,
				Secret: creds.ConsumerSecret,
			},
			SignatureMethod: oauth.HMACSHA1,
		},
		token: oauth.Credentials{
			Token:  creds.Token,
			Secret: creds.TokenSecret,
		},
	}, nil
}

// Sign adds the Authorization header to req.  form must hold the
// parameters of a form encoded body, or nil if there isn't one.
func (s *Signer) Sign(req *http.Request, form url.Values) error {
	return s.client.SetAuthorizationHeader(req.Header, &s.token, req.Method, req.URL, form)
}

// SignerFn returns Sign in the form the rest client wants
func (s *Signer) SignerFn() rest.SignerFn {
	return s.Sign
}
