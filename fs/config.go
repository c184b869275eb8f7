package fs

import (
	"time"
)

// Version of the library, used in the default user agent
const Version = "v0.3.0"

// ConfigInfo is the HTTP level configuration shared by a client.
//
// It is filled in once, before the client is made, and is not
// changed afterwards.  Clients keep their own copy.
type ConfigInfo struct {
	LogLevel              LogLevel
	UserAgent             string
	ConnectTimeout        time.Duration // timeout for the TCP connection and TLS handshake
	Timeout               time.Duration // idle timeout for data once connected
	ExpectContinueTimeout time.Duration
	TPSLimit              float64 // max HTTP transactions per second, 0 for unlimited
	TPSLimitBurst         int
	Dump                  DumpFlags
	InsecureSkipVerify    bool
	NoGzip                bool
}

// NewConfig returns a ConfigInfo with the defaults filled in
func NewConfig() *ConfigInfo {
	return &ConfigInfo{
		LogLevel:              LogLevelNotice,
		UserAgent:             "meocloud-go/" + Version,
		ConnectTimeout:        60 * time.Second,
		Timeout:               10 * time.Minute,
		ExpectContinueTimeout: 1 * time.Second,
		TPSLimitBurst:         1,
	}
}

// Copy returns a shallow copy of ci
func (ci *ConfigInfo) Copy() *ConfigInfo {
	newCi := *ci
	return &newCi
}
