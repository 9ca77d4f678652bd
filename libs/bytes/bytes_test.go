package bytes

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMarshal(t *testing.T) {
	type TestStruct struct {
		B1 []byte
		B2 HexBytes
	}

	cases := []struct {
		input    []byte
		expected string
	}{
		{[]byte(``), `{"B1":"","B2":""}`},
		{[]byte(`a`), `{"B1":"YQ==","B2":"61"}`},
		{[]byte(`abc`), `{"B1":"YWJj","B2":"616263"}`},
		{[]byte("\x1a\x2b\x3c"), `{"B1":"Gis8","B2":"1A2B3C"}`},
	}

	for i, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			ts := TestStruct{B1: tc.input, B2: tc.input}

			jsonBytes, err := json.Marshal(ts)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(jsonBytes))

			ts2 := TestStruct{}
			require.NoError(t, json.Unmarshal(jsonBytes, &ts2))
			assert.Equal(t, tc.input, []byte(ts2.B1))
			assert.Equal(t, tc.input, []byte(ts2.B2))
		})
	}
}

func TestUnmarshalTextEmpty(t *testing.T) {
	var bz HexBytes
	require.NoError(t, bz.UnmarshalText([]byte("")))
	assert.NotNil(t, bz)
	assert.Empty(t, bz)

	bz = nil
	require.NoError(t, bz.UnmarshalText([]byte("null")))
	assert.Nil(t, bz)
}

func TestDecodeFixed(t *testing.T) {
	var dst [3]byte
	require.NoError(t, DecodeFixed(dst[:], "0x1a2b3c"))
	assert.Equal(t, [3]byte{0x1a, 0x2b, 0x3c}, dst)

	require.Error(t, DecodeFixed(dst[:], "1a2b"))
	require.Error(t, DecodeFixed(dst[:], "zz2b3c"))
}
