package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	data := bytes.Repeat([]byte("func main() { println(\"hello\") }\n"), 64)

	for _, typ := range []Type{None, LZ4, Zstd} {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := Compress(typ, data)
			require.NoError(t, err)
			if typ != None {
				assert.Less(t, len(compressed), len(data))
			}

			out, err := Decompress(typ, compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress(Zstd, []byte("not zstd"))
	assert.Error(t, err)

	_, err = Decompress(LZ4, []byte("not lz4"))
	assert.Error(t, err)

	_, err = Decompress(Type(42), nil)
	assert.Error(t, err)
}
