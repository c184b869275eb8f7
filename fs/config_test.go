package fs

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check it satisfies the interface
var _ pflag.Value = (*DumpFlags)(nil)

func TestNewConfig(t *testing.T) {
	ci := NewConfig()
	assert.Equal(t, LogLevelNotice, ci.LogLevel)
	assert.Equal(t, "meocloud-go/"+Version, ci.UserAgent)
	assert.Equal(t, 60*time.Second, ci.ConnectTimeout)
	assert.Equal(t, 1, ci.TPSLimitBurst)
	assert.Equal(t, DumpFlags(0), ci.Dump)
}

func TestConfigCopy(t *testing.T) {
	ci := NewConfig()
	newCi := ci.Copy()
	newCi.UserAgent = "potato"
	newCi.TPSLimit = 10
	assert.Equal(t, "meocloud-go/"+Version, ci.UserAgent)
	assert.Equal(t, 0.0, ci.TPSLimit)
	assert.NotSame(t, ci, newCi)
}

func TestDumpFlagsString(t *testing.T) {
	assert.Equal(t, "", DumpFlags(0).String())
	assert.Equal(t, "headers", DumpHeaders.String())
	assert.Equal(t, "headers,bodies", (DumpHeaders | DumpBodies).String())
	assert.Equal(t, "headers,bodies,auth", (DumpHeaders | DumpBodies | DumpAuth).String())
	assert.Equal(t, "auth,Unknown-0x8", (DumpAuth | 8).String())
}

func TestDumpFlagsSet(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    DumpFlags
		wantErr string
	}{
		{"", 0, ""},
		{"headers", DumpHeaders, ""},
		{"Bodies, AUTH", DumpBodies | DumpAuth, ""},
		{"headers,,headers", DumpHeaders, ""},
		{"headers,potato", 0, `unknown dump flag "potato" - must be one of headers,bodies,auth`},
	} {
		f := DumpFlags(0)
		err := f.Set(test.in)
		if test.wantErr != "" {
			assert.EqualError(t, err, test.wantErr, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, f, test.in)
	}
	f := DumpFlags(0)
	assert.Equal(t, "DumpFlags", f.Type())
}
