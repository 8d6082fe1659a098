package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stat struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

func TestCodecs(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			data := MustMarshal(c, stat{Name: "repo.idx", Documents: 3})
			assert.JSONEq(t, `{"name":"repo.idx","documents":3}`, string(data))

			var out stat
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, stat{Name: "repo.idx", Documents: 3}, out)
		})
	}

	_, ok := ByName("xml")
	assert.False(t, ok)
	_, err := Lookup("xml")
	assert.ErrorContains(t, err, "go-json, json")
	assert.Equal(t, []string{"go-json", "json"}, Names())
	assert.Equal(t, Names()[0], Default.Name())

	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}

func TestGoJSON_Append(t *testing.T) {
	out, err := GoJSON{}.Append([]byte("x="), 1)
	require.NoError(t, err)
	assert.Equal(t, "x=1", string(out))
}

func TestCodecs_NoHTMLEscape(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data := MustMarshal(c, stat{Name: "a&b/<gen>.go", Documents: 1})
			assert.Equal(t, `{"name":"a&b/<gen>.go","documents":1}`, string(data))
		})
	}
}

func TestLineWriter(t *testing.T) {
	for _, c := range []Codec{nil, JSON{}, GoJSON{}} {
		var buf bytes.Buffer
		lw := NewLineWriter(&buf, c)
		require.NoError(t, lw.Write(stat{Name: "a.idx", Documents: 1}))
		require.NoError(t, lw.Write(stat{Name: "b.idx", Documents: 2}))
		assert.Equal(t,
			"{\"name\":\"a.idx\",\"documents\":1}\n{\"name\":\"b.idx\",\"documents\":2}\n",
			buf.String())

		assert.Error(t, lw.Write(make(chan int)))
	}
}
