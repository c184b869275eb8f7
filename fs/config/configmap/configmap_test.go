package configmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	_ Mapper = Simple(nil)
	_ Getter = Simple(nil)
	_ Setter = Simple(nil)
	_ Mapper = (*Map)(nil)
)

func TestConfigMapGet(t *testing.T) {
	m := New()

	value, found := m.Get("token")
	assert.Equal(t, "", value)
	assert.Equal(t, false, found)

	flags := Simple{
		"token": "from-flag",
	}
	m.AddGetter(flags)

	value, found = m.Get("token")
	assert.Equal(t, "from-flag", value)
	assert.Equal(t, true, found)

	value, found = m.Get("consumer_key")
	assert.Equal(t, "", value)
	assert.Equal(t, false, found)

	file := Simple{
		"token":        "from-file",
		"consumer_key": "ck",
	}
	m.AddGetter(file)

	value, found = m.Get("token")
	assert.Equal(t, "from-flag", value)
	assert.Equal(t, true, found)

	value, found = m.Get("consumer_key")
	assert.Equal(t, "ck", value)
	assert.Equal(t, true, found)
}

func TestConfigMapSet(t *testing.T) {
	m := New()

	m1 := Simple{
		"sandbox": "false",
	}
	m2 := Simple{
		"sandbox": "false",
		"token":   "tk",
	}

	m.AddSetter(m1).AddSetter(m2)

	m.Set("token", "potato")

	assert.Equal(t, Simple{
		"sandbox": "false",
		"token":   "potato",
	}, m1)
	assert.Equal(t, Simple{
		"sandbox": "false",
		"token":   "potato",
	}, m2)

	m.Set("sandbox", "true")

	assert.Equal(t, Simple{
		"sandbox": "true",
		"token":   "potato",
	}, m1)
	assert.Equal(t, Simple{
		"sandbox": "true",
		"token":   "potato",
	}, m2)
}

func TestSimpleString(t *testing.T) {
	for _, tt := range []struct {
		name string
		want string
		in   Simple
	}{
		{name: "Nil", want: "", in: Simple(nil)},
		{name: "Empty", want: "", in: Simple{}},
		{name: "Basic", want: "sandbox='true'", in: Simple{
			"sandbox": "true",
		}},
		{name: "Quotable", want: `a='"one"',b=':two:',c='''three'''`, in: Simple{
			"a": `"one"`,
			"b": `:two:`,
			"c": `'three'`,
		}},
		{name: "Order", want: "a='1',b='2',c='3'", in: Simple{
			"c": "3",
			"b": "2",
			"a": "1",
		}},
		{name: "Sensitive", want: "consumer_key='ck',consumer_secret='XXX',token='XXX',token_secret='XXX',use_https=''", in: Simple{
			"consumer_key":    "ck",
			"consumer_secret": "cs",
			"token":           "tk",
			"token_secret":    "ts",
			"use_https":       "",
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, IsSensitive("token"))
	assert.True(t, IsSensitive("token_secret"))
	assert.True(t, IsSensitive("consumer_secret"))
	assert.False(t, IsSensitive("consumer_key"))
	assert.False(t, IsSensitive("sandbox"))
}
